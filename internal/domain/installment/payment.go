package installment

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how an installment payment was made
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodBank   PaymentMethod = "BANK"
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodOther  PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodWallet, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// InstallmentPaymentDetail records how much of one payment event landed on
// one installment
type InstallmentPaymentDetail struct {
	shared.BaseEntity
	PaymentID     uuid.UUID       `json:"payment_id"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
}

// InstallmentPayment is one payment event against a plan. AmountPaid is the
// actual applied total after allocation, which may be less than the nominal
// amount the payer handed over; the detail rows break it down per
// installment and always sum to AmountPaid.
type InstallmentPayment struct {
	shared.BaseEntity
	TenantID   uuid.UUID                   `json:"tenant_id"`
	PlanID     uuid.UUID                   `json:"plan_id"`
	PayerID    uuid.UUID                   `json:"payer_id"`
	AmountPaid decimal.Decimal             `json:"amount_paid"`
	Method     PaymentMethod               `json:"method"`
	Notes      string                      `json:"notes"`
	PaidAt     time.Time                   `json:"paid_at"`
	Details    []*InstallmentPaymentDetail `json:"details"`
}

// NewInstallmentPayment creates a payment header with the nominal amount.
// The amount is corrected to the applied total via Finalize once allocation
// has run.
func NewInstallmentPayment(
	tenantID, planID, payerID uuid.UUID,
	nominalAmount decimal.Decimal,
	method PaymentMethod,
	notes string,
) (*InstallmentPayment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Tenant ID cannot be empty")
	}
	if planID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Plan ID cannot be empty")
	}
	if payerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payer ID cannot be empty")
	}
	if nominalAmount.IsNegative() || nominalAmount.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment method is not valid")
	}

	return &InstallmentPayment{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		PlanID:     planID,
		PayerID:    payerID,
		AmountPaid: nominalAmount,
		Method:     method,
		Notes:      notes,
		PaidAt:     time.Now(),
	}, nil
}

// AddDetail records the portion applied to one installment
func (p *InstallmentPayment) AddDetail(installmentID uuid.UUID, amount decimal.Decimal) {
	p.Details = append(p.Details, &InstallmentPaymentDetail{
		BaseEntity:    shared.NewBaseEntity(),
		PaymentID:     p.ID,
		InstallmentID: installmentID,
		AmountPaid:    amount,
	})
}

// Finalize corrects the header to the actual applied total
func (p *InstallmentPayment) Finalize(totalApplied decimal.Decimal) {
	p.AmountPaid = totalApplied
	p.UpdatedAt = time.Now()
}

// DetailTotal returns the sum of the detail rows
func (p *InstallmentPayment) DetailTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Details {
		total = total.Add(d.AmountPaid)
	}
	return total
}
