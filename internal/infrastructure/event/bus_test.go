package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecordedEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	tx, err := ledger.NewDepositTransaction(uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	return ledger.NewTransactionRecordedEvent(tx)
}

func TestBusPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers events to subscribed handlers", func(t *testing.T) {
		bus := NewBus(zap.NewNop())

		var received []string
		bus.Subscribe(ledger.EventTypeTransactionRecorded, func(ctx context.Context, evt shared.DomainEvent) error {
			received = append(received, evt.EventType())
			return nil
		})

		err := bus.Publish(ctx, newRecordedEvent(t), newRecordedEvent(t))
		require.NoError(t, err)
		assert.Equal(t, []string{ledger.EventTypeTransactionRecorded, ledger.EventTypeTransactionRecorded}, received)
	})

	t.Run("ignores events nobody subscribed to", func(t *testing.T) {
		bus := NewBus(zap.NewNop())
		err := bus.Publish(ctx, newRecordedEvent(t))
		require.NoError(t, err)
	})

	t.Run("a failing handler does not block the others", func(t *testing.T) {
		bus := NewBus(zap.NewNop())

		secondCalled := false
		bus.Subscribe(ledger.EventTypeTransactionRecorded, func(ctx context.Context, evt shared.DomainEvent) error {
			return errors.New("handler failure")
		})
		bus.Subscribe(ledger.EventTypeTransactionRecorded, func(ctx context.Context, evt shared.DomainEvent) error {
			secondCalled = true
			return nil
		})

		err := bus.Publish(ctx, newRecordedEvent(t))
		require.NoError(t, err)
		assert.True(t, secondCalled)
	})

	t.Run("recovers from a panicking handler", func(t *testing.T) {
		bus := NewBus(zap.NewNop())

		bus.Subscribe(ledger.EventTypeTransactionRecorded, func(ctx context.Context, evt shared.DomainEvent) error {
			panic("boom")
		})

		require.NotPanics(t, func() {
			_ = bus.Publish(ctx, newRecordedEvent(t))
		})
	})
}

func TestRegisterAuditLogging(t *testing.T) {
	bus := NewBus(zap.NewNop())
	RegisterAuditLogging(bus, zap.NewNop())

	plan, err := installment.NewInstallmentPlan(uuid.New(), uuid.New(),
		decimal.NewFromInt(1000), decimal.NewFromInt(200), 8,
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(10))
	require.NoError(t, err)

	outcome, err := plan.Allocate(decimal.NewFromInt(250), nil)
	require.NoError(t, err)

	events := []shared.DomainEvent{
		newRecordedEvent(t),
		installment.NewPlanCreatedEvent(plan),
		installment.NewPaymentAllocatedEvent(plan, outcome),
	}

	require.NotPanics(t, func() {
		require.NoError(t, bus.Publish(context.Background(), events...))
	})
}
