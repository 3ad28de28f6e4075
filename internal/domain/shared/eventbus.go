package shared

import (
	"context"
	"sync"
)

// EventHandler handles a domain event
type EventHandler func(ctx context.Context, event DomainEvent) error

// EventBus publishes domain events to registered handlers after an
// aggregate change has been committed.
type EventBus interface {
	Publish(ctx context.Context, events ...DomainEvent) error
	Subscribe(eventType string, handler EventHandler)
}

// InMemoryEventBus is a synchronous, in-process EventBus implementation
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for an event type
func (b *InMemoryEventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers events to all handlers subscribed to their type.
// The first handler error aborts delivery and is returned to the caller.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...DomainEvent) error {
	for _, event := range events {
		b.mu.RLock()
		handlers := b.handlers[event.EventType()]
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}
