package event

import (
	"context"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RegisterAuditLogging subscribes a structured audit log entry for every
// finance event the system raises. The entries complement the transaction
// table: the table is the source of truth, the log is for operators tailing
// the system.
func RegisterAuditLogging(bus shared.EventBus, logger *zap.Logger) {
	audit := logger.Named("audit")

	log := func(ctx context.Context, evt shared.DomainEvent, fields ...zap.Field) error {
		base := []zap.Field{
			zap.String("event_type", evt.EventType()),
			zap.String("aggregate_id", evt.AggregateID().String()),
			zap.String("tenant_id", evt.TenantID().String()),
		}
		audit.Info("finance event", append(base, fields...)...)
		return nil
	}

	bus.Subscribe(ledger.EventTypeCashBoxCreated, func(ctx context.Context, evt shared.DomainEvent) error {
		e, ok := evt.(*ledger.CashBoxCreatedEvent)
		if !ok {
			return log(ctx, evt)
		}
		return log(ctx, evt,
			zap.String("owner_id", e.OwnerID),
			zap.String("box_type", e.BoxType.String()))
	})

	bus.Subscribe(ledger.EventTypeTransactionRecorded, func(ctx context.Context, evt shared.DomainEvent) error {
		e, ok := evt.(*ledger.TransactionRecordedEvent)
		if !ok {
			return log(ctx, evt)
		}
		return log(ctx, evt,
			zap.String("transaction_type", e.TransactionType.String()),
			zap.String("amount", e.Amount.String()),
			zap.String("balance_after", e.BalanceAfter.String()))
	})

	bus.Subscribe(ledger.EventTypeTransactionReversed, func(ctx context.Context, evt shared.DomainEvent) error {
		e, ok := evt.(*ledger.TransactionReversedEvent)
		if !ok {
			return log(ctx, evt)
		}
		return log(ctx, evt,
			zap.String("original_type", e.OriginalType.String()),
			zap.String("reversal_id", e.ReversalID),
			zap.String("amount", e.Amount.String()))
	})

	bus.Subscribe(installment.EventTypePlanCreated, func(ctx context.Context, evt shared.DomainEvent) error {
		return log(ctx, evt)
	})

	bus.Subscribe(installment.EventTypePlanCanceled, func(ctx context.Context, evt shared.DomainEvent) error {
		return log(ctx, evt)
	})

	bus.Subscribe(installment.EventTypePaymentAllocated, func(ctx context.Context, evt shared.DomainEvent) error {
		e, ok := evt.(*installment.PaymentAllocatedEvent)
		if !ok {
			return log(ctx, evt)
		}
		return log(ctx, evt,
			zap.String("total_applied", e.TotalApplied.String()),
			zap.String("excess", e.Excess.String()))
	})
}
