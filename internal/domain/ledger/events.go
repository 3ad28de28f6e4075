package ledger

import (
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the ledger domain
const (
	EventTypeCashBoxCreated      = "ledger.cashbox.created"
	EventTypeTransactionRecorded = "ledger.transaction.recorded"
	EventTypeTransactionReversed = "ledger.transaction.reversed"
)

// CashBoxCreatedEvent is raised when a new cashbox is opened
type CashBoxCreatedEvent struct {
	shared.BaseDomainEvent
	OwnerID string      `json:"owner_id"`
	BoxType CashBoxType `json:"box_type"`
}

// NewCashBoxCreatedEvent creates a new CashBoxCreatedEvent
func NewCashBoxCreatedEvent(cb *CashBox) *CashBoxCreatedEvent {
	return &CashBoxCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashBoxCreated, "CashBox", cb.ID, cb.TenantID),
		OwnerID:         cb.OwnerID.String(),
		BoxType:         cb.Type,
	}
}

// TransactionRecordedEvent is raised when an audit transaction is written
type TransactionRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
}

// NewTransactionRecordedEvent creates a new TransactionRecordedEvent
func NewTransactionRecordedEvent(tx *Transaction) *TransactionRecordedEvent {
	return &TransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRecorded, "Transaction", tx.ID, tx.TenantID),
		TransactionType: tx.Type,
		Amount:          tx.Amount,
		BalanceAfter:    tx.BalanceAfter,
	}
}

// TransactionReversedEvent is raised when a transaction is undone
type TransactionReversedEvent struct {
	shared.BaseDomainEvent
	OriginalType TransactionType `json:"original_type"`
	ReversalID   string          `json:"reversal_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewTransactionReversedEvent creates a new TransactionReversedEvent
func NewTransactionReversedEvent(original, reversal *Transaction) *TransactionReversedEvent {
	return &TransactionReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionReversed, "Transaction", original.ID, original.TenantID),
		OriginalType:    original.Type,
		ReversalID:      reversal.ID.String(),
		Amount:          reversal.Amount,
	}
}
