package installment

import (
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the installment domain
const (
	EventTypePlanCreated      = "installment.plan.created"
	EventTypePlanCanceled     = "installment.plan.canceled"
	EventTypePaymentAllocated = "installment.payment.allocated"
)

// PlanCreatedEvent is raised when a plan and its schedule are generated
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	DebtorID             string          `json:"debtor_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	NumberOfInstallments int             `json:"number_of_installments"`
}

// NewPlanCreatedEvent creates a new PlanCreatedEvent
func NewPlanCreatedEvent(p *InstallmentPlan) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypePlanCreated, "InstallmentPlan", p.ID, p.TenantID),
		DebtorID:             p.DebtorID.String(),
		TotalAmount:          p.TotalAmount,
		NumberOfInstallments: p.NumberOfInstallments,
	}
}

// PlanCanceledEvent is raised when a plan is voided
type PlanCanceledEvent struct {
	shared.BaseDomainEvent
	Reason string `json:"reason"`
}

// NewPlanCanceledEvent creates a new PlanCanceledEvent
func NewPlanCanceledEvent(p *InstallmentPlan) *PlanCanceledEvent {
	return &PlanCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCanceled, "InstallmentPlan", p.ID, p.TenantID),
		Reason:          p.CancelReason,
	}
}

// PaymentAllocatedEvent is raised when a payment has been distributed over
// a plan's installments
type PaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	TotalApplied      decimal.Decimal `json:"total_applied"`
	Excess            decimal.Decimal `json:"excess"`
	InstallmentsPaid  int             `json:"installments_paid"`
	PlanCompleted     bool            `json:"plan_completed"`
	RemainingOnPlan   decimal.Decimal `json:"remaining_on_plan"`
	AllocationEntries int             `json:"allocation_entries"`
}

// NewPaymentAllocatedEvent creates a new PaymentAllocatedEvent
func NewPaymentAllocatedEvent(p *InstallmentPlan, outcome *AllocationOutcome) *PaymentAllocatedEvent {
	paid := 0
	for _, inst := range p.Installments {
		if inst.IsPaid() {
			paid++
		}
	}
	return &PaymentAllocatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentAllocated, "InstallmentPlan", p.ID, p.TenantID),
		TotalApplied:      outcome.TotalApplied,
		Excess:            outcome.Excess,
		InstallmentsPaid:  paid,
		PlanCompleted:     p.IsCompleted(),
		RemainingOnPlan:   p.RemainingAmount,
		AllocationEntries: len(outcome.Entries),
	}
}
