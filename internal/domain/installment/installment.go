package installment

import (
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the payment status of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending       InstallmentStatus = "PENDING"
	InstallmentStatusPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentStatusPaid          InstallmentStatus = "PAID"
	InstallmentStatusCanceled      InstallmentStatus = "CANCELED"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPartiallyPaid, InstallmentStatusPaid, InstallmentStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// IsOutstanding returns true if the installment can still receive payments
func (s InstallmentStatus) IsOutstanding() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPartiallyPaid
}

// Installment is one scheduled partial payment within a plan. Amount is the
// immutable original; Remaining decreases as payments are applied and the
// difference between the two always equals the sum of applied detail rows.
type Installment struct {
	shared.BaseEntity
	PlanID    uuid.UUID         `json:"plan_id"`
	Number    int               `json:"number"`
	DueDate   time.Time         `json:"due_date"`
	Amount    decimal.Decimal   `json:"amount"`
	Remaining decimal.Decimal   `json:"remaining"`
	Status    InstallmentStatus `json:"status"`
}

func newInstallment(planID uuid.UUID, number int, dueDate time.Time, amount decimal.Decimal) *Installment {
	return &Installment{
		BaseEntity: shared.NewBaseEntity(),
		PlanID:     planID,
		Number:     number,
		DueDate:    dueDate,
		Amount:     amount,
		Remaining:  amount,
		Status:     InstallmentStatusPending,
	}
}

// Apply reduces the remaining balance of the installment. The amount must be
// positive and must not exceed the remaining balance - callers clamp first.
func (i *Installment) Apply(amount decimal.Decimal) error {
	if !i.Status.IsOutstanding() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot apply payment to installment %d in %s status", i.Number, i.Status))
	}
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("VALIDATION_FAILED", "Applied amount must be positive")
	}
	if amount.GreaterThan(i.Remaining) {
		return shared.NewDomainError("VALIDATION_FAILED",
			fmt.Sprintf("Applied amount %s exceeds remaining %s on installment %d",
				amount.String(), i.Remaining.String(), i.Number))
	}

	i.Remaining = i.Remaining.Sub(amount)
	if i.Remaining.IsZero() {
		i.Status = InstallmentStatusPaid
	} else {
		i.Status = InstallmentStatusPartiallyPaid
	}
	i.UpdatedAt = time.Now()

	return nil
}

// Cancel voids the installment: the remaining balance resets to the original
// amount so canceled rows drop out of every outstanding-total computation.
func (i *Installment) Cancel() error {
	if i.Status == InstallmentStatusCanceled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Installment %d is already canceled", i.Number))
	}

	i.Remaining = i.Amount
	i.Status = InstallmentStatusCanceled
	i.UpdatedAt = time.Now()

	return nil
}

// IsPaid returns true if the installment is fully settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// PaidAmount returns how much of the original amount has been applied
func (i *Installment) PaidAmount() decimal.Decimal {
	if i.Status == InstallmentStatusCanceled {
		return decimal.Zero
	}
	return i.Amount.Sub(i.Remaining)
}
