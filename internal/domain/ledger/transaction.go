package ledger

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of balance movement a transaction records
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeReversal TransactionType = "REVERSAL"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer, TransactionTypeReversal:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsReversible returns true if a transaction of this type can be reversed.
// Reversal rows themselves are final.
func (t TransactionType) IsReversible() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is an immutable, append-only audit record of a single balance
// movement. BalanceBefore and BalanceAfter always refer to the cashbox
// identified by CashBoxID; for transfers that is the source side.
// Corrections are made with new REVERSAL rows, never by editing old ones.
type Transaction struct {
	shared.BaseEntity
	TenantID              uuid.UUID
	Type                  TransactionType
	Amount                decimal.Decimal // Always positive, direction determined by type
	BalanceBefore         decimal.Decimal
	BalanceAfter          decimal.Decimal
	UserID                uuid.UUID
	TargetUserID          *uuid.UUID
	OperatorID            *uuid.UUID // Acting user, always passed explicitly
	CashBoxID             uuid.UUID
	TargetCashBoxID       *uuid.UUID
	OriginalTransactionID *uuid.UUID // Set only for reversals
	ReversedAt            *time.Time
	ReversalReason        string
	Reference             string
	Remark                string
	TransactionDate       time.Time
}

func newTransaction(
	tenantID uuid.UUID,
	txType TransactionType,
	userID, cashBoxID uuid.UUID,
	amount, balanceBefore, balanceAfter decimal.Decimal,
) (*Transaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Tenant ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "User ID cannot be empty")
	}
	if cashBoxID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cashbox ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invalid transaction type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Amount must be positive")
	}

	return &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		Type:            txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		UserID:          userID,
		CashBoxID:       cashBoxID,
		TransactionDate: time.Now(),
	}, nil
}

// NewDepositTransaction records a balance increase on a cashbox
func NewDepositTransaction(
	tenantID, userID, cashBoxID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
) (*Transaction, error) {
	return newTransaction(tenantID, TransactionTypeDeposit, userID, cashBoxID,
		amount, balanceBefore, balanceBefore.Add(amount))
}

// NewWithdrawTransaction records a balance decrease on a cashbox
func NewWithdrawTransaction(
	tenantID, userID, cashBoxID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
) (*Transaction, error) {
	return newTransaction(tenantID, TransactionTypeWithdraw, userID, cashBoxID,
		amount, balanceBefore, balanceBefore.Sub(amount))
}

// NewTransferTransaction records a movement from a source cashbox to a target
// cashbox as a single transaction. The before/after pair refers to the source.
func NewTransferTransaction(
	tenantID, sourceUserID, targetUserID, sourceCashBoxID, targetCashBoxID uuid.UUID,
	amount, sourceBalanceBefore decimal.Decimal,
) (*Transaction, error) {
	if targetUserID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Target user ID cannot be empty")
	}
	if targetCashBoxID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Target cashbox ID cannot be empty")
	}
	if sourceCashBoxID == targetCashBoxID {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cannot transfer to the same cashbox")
	}

	tx, err := newTransaction(tenantID, TransactionTypeTransfer, sourceUserID, sourceCashBoxID,
		amount, sourceBalanceBefore, sourceBalanceBefore.Sub(amount))
	if err != nil {
		return nil, err
	}
	tx.TargetUserID = &targetUserID
	tx.TargetCashBoxID = &targetCashBoxID
	return tx, nil
}

// NewReversalTransaction records the inverse of a prior transaction. User and
// target are swapped relative to the original and OriginalTransactionID links
// back to it. The before/after pair refers to the cashbox in CashBoxID, which
// is the account whose balance the reversal restored first (the original
// source for transfers, the original account otherwise).
func NewReversalTransaction(
	original *Transaction,
	balanceBefore, balanceAfter decimal.Decimal,
	reason string,
) (*Transaction, error) {
	if original == nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Original transaction cannot be nil")
	}
	if err := original.CanReverse(); err != nil {
		return nil, err
	}

	userID := original.UserID
	var targetUserID *uuid.UUID
	if original.TargetUserID != nil {
		userID = *original.TargetUserID
		originalUser := original.UserID
		targetUserID = &originalUser
	}

	originalID := original.ID
	tx := &Transaction{
		BaseEntity:            shared.NewBaseEntity(),
		TenantID:              original.TenantID,
		Type:                  TransactionTypeReversal,
		Amount:                original.Amount,
		BalanceBefore:         balanceBefore,
		BalanceAfter:          balanceAfter,
		UserID:                userID,
		TargetUserID:          targetUserID,
		CashBoxID:             original.CashBoxID,
		TargetCashBoxID:       original.TargetCashBoxID,
		OriginalTransactionID: &originalID,
		Remark:                reason,
		TransactionDate:       time.Now(),
	}
	return tx, nil
}

// WithReference sets the reference code for the transaction
func (t *Transaction) WithReference(reference string) *Transaction {
	t.Reference = reference
	return t
}

// WithRemark sets the remark for the transaction
func (t *Transaction) WithRemark(remark string) *Transaction {
	t.Remark = remark
	return t
}

// WithOperator records the acting user who initiated the movement
func (t *Transaction) WithOperator(operatorID uuid.UUID) *Transaction {
	if operatorID != uuid.Nil {
		t.OperatorID = &operatorID
	}
	return t
}

// CanReverse reports whether this transaction may still be reversed
func (t *Transaction) CanReverse() error {
	if !t.Type.IsReversible() {
		return shared.NewDomainError("UNSUPPORTED_REVERSAL_TYPE",
			"Transactions of type "+t.Type.String()+" cannot be reversed")
	}
	if t.ReversedAt != nil {
		return shared.NewDomainError("ALREADY_REVERSED", "Transaction has already been reversed")
	}
	return nil
}

// MarkReversed records that this transaction has been undone. A transaction
// can be reversed at most once.
func (t *Transaction) MarkReversed(reason string) error {
	if err := t.CanReverse(); err != nil {
		return err
	}
	now := time.Now()
	t.ReversedAt = &now
	t.ReversalReason = reason
	t.UpdatedAt = now
	return nil
}

// IsReversed returns true if the transaction has been undone
func (t *Transaction) IsReversed() bool {
	return t.ReversedAt != nil
}

// BalanceChange returns the net movement on the CashBoxID side
func (t *Transaction) BalanceChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// SignedEffect returns the balance effect this transaction had on the given
// cashbox. Zero if the transaction never touched it. Replaying SignedEffect
// over every transaction of a cashbox reproduces its balance.
func (t *Transaction) SignedEffect(cashBoxID uuid.UUID) decimal.Decimal {
	if cashBoxID == t.CashBoxID {
		return t.BalanceChange()
	}
	if t.TargetCashBoxID != nil && cashBoxID == *t.TargetCashBoxID {
		switch t.Type {
		case TransactionTypeTransfer:
			return t.Amount
		case TransactionTypeReversal:
			return t.BalanceChange().Neg()
		}
	}
	return decimal.Zero
}
