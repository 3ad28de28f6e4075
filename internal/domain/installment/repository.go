package installment

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PlanFilter carries optional filtering for plan listings
type PlanFilter struct {
	shared.Filter
	DebtorID *uuid.UUID
	Status   *PlanStatus
}

// PlanRepository defines persistence operations for installment plans.
// Save and SaveWithLock persist the plan header together with the current
// state of its installments.
type PlanRepository interface {
	Create(ctx context.Context, plan *InstallmentPlan) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InstallmentPlan, error)
	FindByDebtor(ctx context.Context, tenantID, debtorID uuid.UUID, filter PlanFilter) (*shared.Paginated[*InstallmentPlan], error)
	Save(ctx context.Context, plan *InstallmentPlan) error
	// SaveWithLock persists the plan and its installments guarded by the
	// plan's version column. Returns ErrConcurrencyConflict when the row
	// was modified since it was read.
	SaveWithLock(ctx context.Context, plan *InstallmentPlan) error
	List(ctx context.Context, tenantID uuid.UUID, filter PlanFilter) (*shared.Paginated[*InstallmentPlan], error)
}

// PaymentRepository defines persistence operations for installment payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *InstallmentPayment) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InstallmentPayment, error)
	FindByPlan(ctx context.Context, tenantID, planID uuid.UUID) ([]*InstallmentPayment, error)
}
