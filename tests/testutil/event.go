// Package testutil provides common test utilities for the BizLedger backend.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bizledger/backend/internal/domain/shared"
)

// EventCollector records every domain event its handler receives. Register
// Handler() on a bus to capture published events for assertions.
type EventCollector struct {
	mu      sync.Mutex
	handled []shared.DomainEvent
	err     error
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		handled: make([]shared.DomainEvent, 0),
	}
}

// Handler returns an EventHandler that records events into the collector.
func (c *EventCollector) Handler() shared.EventHandler {
	return func(ctx context.Context, event shared.DomainEvent) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handled = append(c.handled, event)
		return c.err
	}
}

// Handled returns all recorded events.
func (c *EventCollector) Handled() []shared.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]shared.DomainEvent, len(c.handled))
	copy(result, c.handled)
	return result
}

// HandledCount returns the number of recorded events.
func (c *EventCollector) HandledCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handled)
}

// HandledTypes returns the event types in the order they were recorded.
func (c *EventCollector) HandledTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, len(c.handled))
	for i, e := range c.handled {
		types[i] = e.EventType()
	}
	return types
}

// SetError sets the error the handler returns after recording an event.
func (c *EventCollector) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Reset clears all recorded events.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handled = make([]shared.DomainEvent, 0)
	c.err = nil
}

// TestEvent is a simple domain event for testing.
type TestEvent struct {
	shared.BaseDomainEvent
	Data string
}

// NewTestEvent creates a new test event.
func NewTestEvent(eventType string, tenantID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:            uuid.New(),
			Type:          eventType,
			TenantIDValue: tenantID,
			Timestamp:     time.Now(),
			AggID:         uuid.New(),
			AggType:       "TestAggregate",
		},
		Data: "test-data",
	}
}

// NewTestEventWithID creates a test event with a specific event ID.
func NewTestEventWithID(eventID uuid.UUID, eventType string, tenantID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:            eventID,
			Type:          eventType,
			TenantIDValue: tenantID,
			Timestamp:     time.Now(),
			AggID:         uuid.New(),
			AggType:       "TestAggregate",
		},
		Data: "test-data",
	}
}

// WaitForCondition waits for a condition to become true.
// Returns true if the condition was met, false if timeout occurred.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}

// WaitForEventCount waits until the collector has recorded at least n events.
func WaitForEventCount(t *testing.T, collector *EventCollector, count int, timeout time.Duration) bool {
	t.Helper()

	return WaitForCondition(t, func() bool {
		return collector.HandledCount() >= count
	}, timeout, 10*time.Millisecond)
}
