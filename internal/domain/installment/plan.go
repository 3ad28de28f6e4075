package installment

import (
	"fmt"
	"sort"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultRoundStep is the rounding granularity applied to generated
// installment amounts when the caller does not supply one.
var DefaultRoundStep = decimal.NewFromInt(10)

// PlanStatus represents the lifecycle status of an installment plan
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "PENDING"
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusCanceled  PlanStatus = "CANCELED"
)

// IsValid checks if the status is a valid PlanStatus
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusPending, PlanStatusActive, PlanStatusCompleted, PlanStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of PlanStatus
func (s PlanStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the plan is in a terminal state
func (s PlanStatus) IsTerminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusCanceled
}

// InstallmentPlan is the aggregate root for an amortized payment schedule.
// It owns its Installment rows; RemainingAmount always equals the sum of
// Remaining over non-canceled installments.
type InstallmentPlan struct {
	shared.TenantAggregateRoot
	DebtorID              uuid.UUID       `json:"debtor_id"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	DownPayment           decimal.Decimal `json:"down_payment"`
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`
	RequestedInstallments int             `json:"requested_installments"`
	NumberOfInstallments  int             `json:"number_of_installments"` // actual generated count
	InstallmentAmount     decimal.Decimal `json:"installment_amount"`     // standard rounded amount
	RoundStep             decimal.Decimal `json:"round_step"`
	StartDate             time.Time       `json:"start_date"`
	EndDate               time.Time       `json:"end_date"`
	Status                PlanStatus      `json:"status"`
	CanceledAt            *time.Time      `json:"canceled_at"`
	CancelReason          string          `json:"cancel_reason"`
	Installments          []*Installment  `json:"installments"`
}

// NewInstallmentPlan builds a plan and its full installment schedule.
//
// The schedule is amortized with fixed-point arithmetic only: the standard
// amount is the per-installment average rounded up to the nearest multiple of
// roundStep, the final installment absorbs whatever is left, and generation
// stops early once the principal is covered. The actual generated count is
// stored in NumberOfInstallments and may be smaller than the requested term.
func NewInstallmentPlan(
	tenantID, debtorID uuid.UUID,
	totalAmount, downPayment decimal.Decimal,
	requestedInstallments int,
	startDate time.Time,
	roundStep decimal.Decimal,
) (*InstallmentPlan, error) {
	if debtorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Debtor ID cannot be empty")
	}
	if totalAmount.IsNegative() || totalAmount.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Total amount must be positive")
	}
	if downPayment.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Down payment cannot be negative")
	}
	if downPayment.GreaterThanOrEqual(totalAmount) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Down payment must be less than the total amount")
	}
	if requestedInstallments < 1 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Number of installments must be at least 1")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Start date is required")
	}
	if roundStep.IsZero() {
		roundStep = DefaultRoundStep
	}
	if roundStep.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Round step must be positive")
	}

	remaining := totalAmount.Sub(downPayment)
	avg := remaining.Div(decimal.NewFromInt(int64(requestedInstallments)))

	standardMoney, err := valueobject.NewMoneyDefault(avg).CeilToStep(roundStep)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	standard := standardMoney.Amount()

	plan := &InstallmentPlan{
		TenantAggregateRoot:   shared.NewTenantAggregateRoot(tenantID),
		DebtorID:              debtorID,
		TotalAmount:           totalAmount,
		DownPayment:           downPayment,
		RemainingAmount:       remaining,
		RequestedInstallments: requestedInstallments,
		InstallmentAmount:     standard,
		RoundStep:             roundStep,
		StartDate:             startDate,
		Status:                PlanStatusActive,
	}

	allocated := decimal.Zero
	for i := 1; i <= requestedInstallments; i++ {
		left := remaining.Sub(allocated)
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		amount := standard
		if standard.GreaterThan(left) || i == requestedInstallments {
			amount = left
		}
		dueDate := startDate.AddDate(0, i, 0)
		plan.Installments = append(plan.Installments, newInstallment(plan.ID, i, dueDate, amount))
		allocated = allocated.Add(amount)
	}

	plan.NumberOfInstallments = len(plan.Installments)
	plan.EndDate = plan.Installments[len(plan.Installments)-1].DueDate

	plan.AddDomainEvent(NewPlanCreatedEvent(plan))

	return plan, nil
}

// AllocationEntry records how much of a payment went to one installment
type AllocationEntry struct {
	InstallmentID uuid.UUID
	Number        int
	Applied       decimal.Decimal
}

// AllocationOutcome is the in-memory result of distributing a payment over
// the plan's installments. TotalApplied plus Excess always equals the amount
// handed to Allocate.
type AllocationOutcome struct {
	Entries      []AllocationEntry
	TotalApplied decimal.Decimal
	Excess       decimal.Decimal
}

// Allocate distributes a payment amount across the plan's installments.
//
// Explicitly selected installments are settled first, earliest due date
// first. Anything left after that sweeps the remaining outstanding
// installments of the plan in the same order, so an overpayment settles
// future installments automatically. An amount still left once every
// installment is paid is reported as Excess; the plan does not decide what
// happens to it.
func (p *InstallmentPlan) Allocate(amount decimal.Decimal, selectedIDs []uuid.UUID) (*AllocationOutcome, error) {
	if p.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot allocate payment to plan in %s status", p.Status))
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
	}

	selected := make([]*Installment, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		inst := p.installmentByID(id)
		if inst == nil {
			return nil, shared.NewDomainError("VALIDATION_FAILED",
				fmt.Sprintf("Installment %s does not belong to this plan", id))
		}
		if inst.Status == InstallmentStatusCanceled {
			return nil, shared.NewDomainError("VALIDATION_FAILED",
				fmt.Sprintf("Installment %d is canceled", inst.Number))
		}
		selected = append(selected, inst)
	}

	outcome := &AllocationOutcome{TotalApplied: decimal.Zero}
	left := amount
	touched := make(map[uuid.UUID]bool, len(selected))

	// Phase A: the caller's explicit selection, earliest due date first.
	sortByDueDate(selected)
	for _, inst := range selected {
		touched[inst.ID] = true
		left = p.applyTo(inst, left, outcome)
		if left.IsZero() {
			break
		}
	}

	// Phase B: sweep the rest of the plan with whatever is left.
	if left.IsPositive() {
		others := make([]*Installment, 0, len(p.Installments))
		for _, inst := range p.Installments {
			if !touched[inst.ID] && inst.Status.IsOutstanding() {
				others = append(others, inst)
			}
		}
		sortByDueDate(others)
		for _, inst := range others {
			left = p.applyTo(inst, left, outcome)
			if left.IsZero() {
				break
			}
		}
	}

	outcome.Excess = left

	if p.RemainingAmount.IsZero() {
		p.Status = PlanStatusCompleted
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentAllocatedEvent(p, outcome))

	return outcome, nil
}

// applyTo applies as much of left as the installment can absorb and records
// the entry. Returns the amount still left.
func (p *InstallmentPlan) applyTo(inst *Installment, left decimal.Decimal, outcome *AllocationOutcome) decimal.Decimal {
	if left.IsZero() || !inst.Status.IsOutstanding() || !inst.Remaining.IsPositive() {
		return left
	}

	applied := left
	if inst.Remaining.LessThan(applied) {
		applied = inst.Remaining
	}
	// Clamped above, so Apply cannot fail on an outstanding installment.
	if err := inst.Apply(applied); err != nil {
		return left
	}

	p.RemainingAmount = p.RemainingAmount.Sub(applied)
	outcome.Entries = append(outcome.Entries, AllocationEntry{
		InstallmentID: inst.ID,
		Number:        inst.Number,
		Applied:       applied,
	})
	outcome.TotalApplied = outcome.TotalApplied.Add(applied)

	return left.Sub(applied)
}

// Cancel voids the plan and every installment. Only a plan with no applied
// payments can be canceled.
func (p *InstallmentPlan) Cancel(reason string) error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel plan in %s status", p.Status))
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_FAILED", "Cancel reason is required")
	}
	for _, inst := range p.Installments {
		if inst.PaidAmount().IsPositive() {
			return shared.NewDomainError("INVALID_STATE", "Cannot cancel a plan with applied payments")
		}
	}

	now := time.Now()
	for _, inst := range p.Installments {
		if inst.Status != InstallmentStatusCanceled {
			if err := inst.Cancel(); err != nil {
				return err
			}
		}
	}
	p.Status = PlanStatusCanceled
	p.CanceledAt = &now
	p.CancelReason = reason
	p.RemainingAmount = decimal.Zero
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPlanCanceledEvent(p))

	return nil
}

// OutstandingAmount returns the sum of Remaining over non-canceled installments
func (p *InstallmentPlan) OutstandingAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range p.Installments {
		if inst.Status != InstallmentStatusCanceled {
			total = total.Add(inst.Remaining)
		}
	}
	return total
}

// IsCompleted returns true if every installment has been paid
func (p *InstallmentPlan) IsCompleted() bool {
	return p.Status == PlanStatusCompleted
}

func (p *InstallmentPlan) installmentByID(id uuid.UUID) *Installment {
	for _, inst := range p.Installments {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

func sortByDueDate(installments []*Installment) {
	sort.SliceStable(installments, func(a, b int) bool {
		if installments[a].DueDate.Equal(installments[b].DueDate) {
			return installments[a].Number < installments[b].Number
		}
		return installments[a].DueDate.Before(installments[b].DueDate)
	})
}
