package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM.
// Rows are append-only; the single permitted update is the reversed-at stamp.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a new transaction
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(transaction)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// FindByIDForTenant finds a transaction by ID within a tenant
func (r *GormTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// MarkReversed stamps the reversed-at guard on an original transaction. The
// WHERE clause only matches rows not yet reversed, so of two racing
// reversals exactly one wins and the loser gets ALREADY_REVERSED.
func (r *GormTransactionRepository) MarkReversed(ctx context.Context, transaction *ledger.Transaction) error {
	if transaction.ReversedAt == nil {
		return shared.NewDomainError("INVALID_STATE", "Transaction is not marked reversed")
	}
	result := dbFromContext(ctx, r.db).
		Model(&models.TransactionModel{}).
		Where("id = ? AND tenant_id = ? AND reversed_at IS NULL", transaction.ID, transaction.TenantID).
		Updates(map[string]interface{}{
			"reversed_at":     transaction.ReversedAt,
			"reversal_reason": transaction.ReversalReason,
			"updated_at":      transaction.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ALREADY_REVERSED", "Transaction has already been reversed")
	}
	return nil
}

// List lists transactions of a tenant with filtering, newest first
func (r *GormTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	query := dbFromContext(ctx, r.db).
		Model(&models.TransactionModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.CashBoxID != nil {
		query = query.Where("(cashbox_id = ? OR target_cashbox_id = ?)", *filter.CashBoxID, *filter.CashBoxID)
	}
	if filter.UserID != nil {
		query = query.Where("(user_id = ? OR target_user_id = ?)", *filter.UserID, *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", filter.Type.String())
	}
	if filter.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("transaction_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var transactionModels []models.TransactionModel
	err := query.
		Order("transaction_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactionModels).Error
	if err != nil {
		return nil, 0, err
	}

	transactions := make([]*ledger.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = transactionModels[i].ToDomain()
	}
	return transactions, total, nil
}

// FindByCashBox lists every transaction that touched a cashbox, oldest
// first, for balance replay
func (r *GormTransactionRepository) FindByCashBox(ctx context.Context, tenantID, cashBoxID uuid.UUID) ([]*ledger.Transaction, error) {
	var transactionModels []models.TransactionModel
	err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND (cashbox_id = ? OR target_cashbox_id = ?)", tenantID, cashBoxID, cashBoxID).
		Order("transaction_date ASC").
		Find(&transactionModels).Error
	if err != nil {
		return nil, err
	}

	transactions := make([]*ledger.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = transactionModels[i].ToDomain()
	}
	return transactions, nil
}
