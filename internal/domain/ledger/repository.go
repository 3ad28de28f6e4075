package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CashBoxRepository defines the interface for cashbox persistence
type CashBoxRepository interface {
	// Create creates a new cashbox
	Create(ctx context.Context, cashBox *CashBox) error

	// FindByIDForTenant finds a cashbox by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CashBox, error)

	// FindDefault finds the owner's default cashbox of the given type
	FindDefault(ctx context.Context, tenantID, ownerID uuid.UUID, boxType CashBoxType) (*CashBox, error)

	// FindByOwner lists all cashboxes of an owner
	FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]*CashBox, error)

	// Save persists an updated cashbox without a version check
	Save(ctx context.Context, cashBox *CashBox) error

	// SaveWithLock persists an updated cashbox with an optimistic version
	// check. Returns CONCURRENCY_CONFLICT if another writer got there first.
	SaveWithLock(ctx context.Context, cashBox *CashBox) error

	// ClearDefault clears the default flag on every cashbox of the
	// (owner, type) pair, keeping the one-default invariant before a new
	// default is saved.
	ClearDefault(ctx context.Context, tenantID, ownerID uuid.UUID, boxType CashBoxType) error
}

// TransactionFilter contains filter options for listing transactions
type TransactionFilter struct {
	CashBoxID *uuid.UUID
	UserID    *uuid.UUID
	Type      *TransactionType
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// TransactionRepository defines the interface for audit transaction
// persistence. Transactions are append-only; the only permitted update is
// stamping ReversedAt on a reversed row.
type TransactionRepository interface {
	// Create appends a new transaction
	Create(ctx context.Context, transaction *Transaction) error

	// FindByIDForTenant finds a transaction by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)

	// MarkReversed stamps the reversed-at guard on an original transaction.
	// Fails with ALREADY_REVERSED if another reversal won the race.
	MarkReversed(ctx context.Context, transaction *Transaction) error

	// List lists transactions of a tenant with filtering
	List(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]*Transaction, int64, error)

	// FindByCashBox lists all transactions that touched a cashbox, oldest
	// first, for balance replay
	FindByCashBox(ctx context.Context, tenantID, cashBoxID uuid.UUID) ([]*Transaction, error)
}
