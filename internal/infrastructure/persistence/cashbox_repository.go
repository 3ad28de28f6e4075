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

// GormCashBoxRepository implements ledger.CashBoxRepository using GORM
type GormCashBoxRepository struct {
	db *gorm.DB
}

// NewGormCashBoxRepository creates a new GormCashBoxRepository
func NewGormCashBoxRepository(db *gorm.DB) *GormCashBoxRepository {
	return &GormCashBoxRepository{db: db}
}

// Create creates a new cashbox
func (r *GormCashBoxRepository) Create(ctx context.Context, cashBox *ledger.CashBox) error {
	model := models.CashBoxModelFromDomain(cashBox)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// FindByIDForTenant finds a cashbox by ID within a tenant
func (r *GormCashBoxRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CashBox, error) {
	var model models.CashBoxModel
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

// FindDefault finds the owner's default cashbox of the given type
func (r *GormCashBoxRepository) FindDefault(ctx context.Context, tenantID, ownerID uuid.UUID, boxType ledger.CashBoxType) (*ledger.CashBox, error) {
	var model models.CashBoxModel
	err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND owner_id = ? AND type = ? AND is_default = ? AND status = ?",
			tenantID, ownerID, boxType.String(), true, string(ledger.CashBoxStatusActive)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists all cashboxes of an owner
func (r *GormCashBoxRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]*ledger.CashBox, error) {
	var cashBoxModels []models.CashBoxModel
	err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID).
		Order("created_at ASC").
		Find(&cashBoxModels).Error
	if err != nil {
		return nil, err
	}

	cashBoxes := make([]*ledger.CashBox, len(cashBoxModels))
	for i := range cashBoxModels {
		cashBoxes[i] = cashBoxModels[i].ToDomain()
	}
	return cashBoxes, nil
}

// Save persists an updated cashbox without a version check
func (r *GormCashBoxRepository) Save(ctx context.Context, cashBox *ledger.CashBox) error {
	model := models.CashBoxModelFromDomain(cashBox)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// SaveWithLock persists an updated cashbox guarded by its version column.
// A concurrent writer that already bumped the version makes this fail with
// CONCURRENCY_CONFLICT and the caller's unit of work rolls back.
func (r *GormCashBoxRepository) SaveWithLock(ctx context.Context, cashBox *ledger.CashBox) error {
	model := models.CashBoxModelFromDomain(cashBox)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", cashBox.ID, cashBox.Version-1).
		Select("balance", "is_default", "status", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT",
			"The cashbox has been modified by another transaction")
	}
	return nil
}

// ClearDefault clears the default flag on every cashbox of the (owner, type) pair
func (r *GormCashBoxRepository) ClearDefault(ctx context.Context, tenantID, ownerID uuid.UUID, boxType ledger.CashBoxType) error {
	return dbFromContext(ctx, r.db).
		Model(&models.CashBoxModel{}).
		Where("tenant_id = ? AND owner_id = ? AND type = ? AND is_default = ?",
			tenantID, ownerID, boxType.String(), true).
		Update("is_default", false).Error
}
