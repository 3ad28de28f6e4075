package models

import (
	"time"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashBoxModel is the persistence model for ledger.CashBox
type CashBoxModel struct {
	TenantAggregateModel
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_cashboxes_owner"`
	Name      string          `gorm:"size:100;not null"`
	Type      string          `gorm:"size:20;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsDefault bool            `gorm:"not null;default:false"`
	Status    string          `gorm:"size:20;not null;default:'ACTIVE'"`
}

// TableName returns the table name for CashBoxModel
func (CashBoxModel) TableName() string {
	return "cashboxes"
}

// CashBoxModelFromDomain converts a domain CashBox to its persistence model
func CashBoxModelFromDomain(cb *ledger.CashBox) *CashBoxModel {
	model := &CashBoxModel{
		OwnerID:   cb.OwnerID,
		Name:      cb.Name,
		Type:      cb.Type.String(),
		Balance:   cb.Balance,
		IsDefault: cb.IsDefault,
		Status:    string(cb.Status),
	}
	model.FromDomainTenantAggregateRoot(cb.TenantAggregateRoot)
	return model
}

// ToDomain converts the persistence model to a domain CashBox
func (m *CashBoxModel) ToDomain() *ledger.CashBox {
	cb := &ledger.CashBox{
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		Type:      ledger.CashBoxType(m.Type),
		Balance:   m.Balance,
		IsDefault: m.IsDefault,
		Status:    ledger.CashBoxStatus(m.Status),
	}
	m.PopulateTenantAggregateRoot(&cb.TenantAggregateRoot)
	return cb
}

// TransactionModel is the persistence model for ledger.Transaction
type TransactionModel struct {
	BaseModel
	TenantID              uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_tenant"`
	Type                  string          `gorm:"size:20;not null"`
	Amount                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_user"`
	TargetUserID          *uuid.UUID      `gorm:"type:uuid"`
	OperatorID            *uuid.UUID      `gorm:"type:uuid"`
	CashBoxID             uuid.UUID       `gorm:"column:cashbox_id;type:uuid;not null;index:idx_transactions_cashbox"`
	TargetCashBoxID       *uuid.UUID      `gorm:"column:target_cashbox_id;type:uuid;index:idx_transactions_target_cashbox"`
	OriginalTransactionID *uuid.UUID      `gorm:"type:uuid;index:idx_transactions_original"`
	ReversedAt            *time.Time
	ReversalReason        string    `gorm:"size:500"`
	Reference             string    `gorm:"size:100"`
	Remark                string    `gorm:"size:500"`
	TransactionDate       time.Time `gorm:"not null;index:idx_transactions_date"`
}

// TableName returns the table name for TransactionModel
func (TransactionModel) TableName() string {
	return "ledger_transactions"
}

// TransactionModelFromDomain converts a domain Transaction to its persistence model
func TransactionModelFromDomain(tx *ledger.Transaction) *TransactionModel {
	model := &TransactionModel{
		TenantID:              tx.TenantID,
		Type:                  tx.Type.String(),
		Amount:                tx.Amount,
		BalanceBefore:         tx.BalanceBefore,
		BalanceAfter:          tx.BalanceAfter,
		UserID:                tx.UserID,
		TargetUserID:          tx.TargetUserID,
		OperatorID:            tx.OperatorID,
		CashBoxID:             tx.CashBoxID,
		TargetCashBoxID:       tx.TargetCashBoxID,
		OriginalTransactionID: tx.OriginalTransactionID,
		ReversedAt:            tx.ReversedAt,
		ReversalReason:        tx.ReversalReason,
		Reference:             tx.Reference,
		Remark:                tx.Remark,
		TransactionDate:       tx.TransactionDate,
	}
	model.FromDomainBaseEntity(tx.BaseEntity)
	return model
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseEntity:            m.BaseModel.ToDomain(),
		TenantID:              m.TenantID,
		Type:                  ledger.TransactionType(m.Type),
		Amount:                m.Amount,
		BalanceBefore:         m.BalanceBefore,
		BalanceAfter:          m.BalanceAfter,
		UserID:                m.UserID,
		TargetUserID:          m.TargetUserID,
		OperatorID:            m.OperatorID,
		CashBoxID:             m.CashBoxID,
		TargetCashBoxID:       m.TargetCashBoxID,
		OriginalTransactionID: m.OriginalTransactionID,
		ReversedAt:            m.ReversedAt,
		ReversalReason:        m.ReversalReason,
		Reference:             m.Reference,
		Remark:                m.Remark,
		TransactionDate:       m.TransactionDate,
	}
}
