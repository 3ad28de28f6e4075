package ledger

import (
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashBoxType represents the kind of balance bucket a cashbox is
type CashBoxType string

const (
	CashBoxTypeCash   CashBoxType = "CASH"
	CashBoxTypeBank   CashBoxType = "BANK"
	CashBoxTypeWallet CashBoxType = "WALLET"
)

// IsValid checks if the cashbox type is valid
func (t CashBoxType) IsValid() bool {
	switch t {
	case CashBoxTypeCash, CashBoxTypeBank, CashBoxTypeWallet:
		return true
	}
	return false
}

// String returns the string representation of CashBoxType
func (t CashBoxType) String() string {
	return string(t)
}

// CashBoxStatus represents the lifecycle status of a cashbox
type CashBoxStatus string

const (
	CashBoxStatusActive   CashBoxStatus = "ACTIVE"
	CashBoxStatusArchived CashBoxStatus = "ARCHIVED"
)

// IsValid checks if the cashbox status is valid
func (s CashBoxStatus) IsValid() bool {
	return s == CashBoxStatusActive || s == CashBoxStatusArchived
}

// NegativeBalancePolicy controls whether withdrawals may drive a cashbox
// balance below zero. It is a single system-wide setting rather than a
// per-call-site decision.
type NegativeBalancePolicy string

const (
	// NegativeBalanceForbid rejects withdrawals exceeding the available balance
	NegativeBalanceForbid NegativeBalancePolicy = "forbid"
	// NegativeBalanceAllow lets balances go negative to represent debt
	NegativeBalanceAllow NegativeBalancePolicy = "allow"
)

// IsValid checks if the policy is a known value
func (p NegativeBalancePolicy) IsValid() bool {
	return p == NegativeBalanceForbid || p == NegativeBalanceAllow
}

// AllowsNegative returns true if balances may go below zero
func (p NegativeBalancePolicy) AllowsNegative() bool {
	return p == NegativeBalanceAllow
}

// CashBox is a named balance bucket owned by a user within a company.
// A user may own several; at most one default exists per (owner, type).
type CashBox struct {
	shared.TenantAggregateRoot
	OwnerID   uuid.UUID       `json:"owner_id"`
	Name      string          `json:"name"`
	Type      CashBoxType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	IsDefault bool            `json:"is_default"`
	Status    CashBoxStatus   `json:"status"`
}

// NewCashBox creates a new cashbox with a zero balance
func NewCashBox(tenantID, ownerID uuid.UUID, name string, boxType CashBoxType, isDefault bool) (*CashBox, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Owner ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cashbox name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cashbox name cannot exceed 100 characters")
	}
	if !boxType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cashbox type is not valid")
	}

	cb := &CashBox{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OwnerID:             ownerID,
		Name:                name,
		Type:                boxType,
		Balance:             decimal.Zero,
		IsDefault:           isDefault,
		Status:              CashBoxStatusActive,
	}

	cb.AddDomainEvent(NewCashBoxCreatedEvent(cb))

	return cb, nil
}

// Deposit increases the cashbox balance by a positive amount
func (cb *CashBox) Deposit(amount decimal.Decimal) error {
	if cb.Status != CashBoxStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot deposit into %s cashbox", cb.Status))
	}
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("VALIDATION_FAILED", "Deposit amount must be positive")
	}

	cb.Balance = cb.Balance.Add(amount)
	cb.UpdatedAt = time.Now()
	cb.IncrementVersion()

	return nil
}

// Withdraw decreases the cashbox balance by a positive amount. Under the
// forbid policy a withdrawal exceeding the available balance fails with
// INSUFFICIENT_FUNDS; under the allow policy the balance goes negative.
func (cb *CashBox) Withdraw(amount decimal.Decimal, policy NegativeBalancePolicy) error {
	if cb.Status != CashBoxStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot withdraw from %s cashbox", cb.Status))
	}
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("VALIDATION_FAILED", "Withdrawal amount must be positive")
	}
	if !policy.AllowsNegative() && cb.Balance.LessThan(amount) {
		return shared.NewDomainError("INSUFFICIENT_FUNDS",
			fmt.Sprintf("Insufficient funds: available %s, required %s", cb.Balance.String(), amount.String()))
	}

	cb.Balance = cb.Balance.Sub(amount)
	cb.UpdatedAt = time.Now()
	cb.IncrementVersion()

	return nil
}

// MarkDefault makes this cashbox the default for its (owner, type) pair.
// The repository keeps the one-default invariant by clearing the previous one.
func (cb *CashBox) MarkDefault() {
	cb.IsDefault = true
	cb.UpdatedAt = time.Now()
	cb.IncrementVersion()
}

// UnmarkDefault clears the default flag
func (cb *CashBox) UnmarkDefault() {
	cb.IsDefault = false
	cb.UpdatedAt = time.Now()
	cb.IncrementVersion()
}

// Archive retires the cashbox. Only an empty cashbox can be archived.
func (cb *CashBox) Archive() error {
	if cb.Status == CashBoxStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Cashbox is already archived")
	}
	if !cb.Balance.IsZero() {
		return shared.NewDomainError("INVALID_STATE", "Cannot archive a cashbox with a non-zero balance")
	}

	cb.Status = CashBoxStatusArchived
	cb.IsDefault = false
	cb.UpdatedAt = time.Now()
	cb.IncrementVersion()

	return nil
}

// IsActive returns true if the cashbox accepts operations
func (cb *CashBox) IsActive() bool {
	return cb.Status == CashBoxStatusActive
}
