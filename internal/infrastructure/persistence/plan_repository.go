package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlanRepository implements installment.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// Create persists a new plan together with its installment schedule
func (r *GormPlanRepository) Create(ctx context.Context, plan *installment.InstallmentPlan) error {
	model := models.InstallmentPlanModelFromDomain(plan)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// FindByIDForTenant finds a plan with its installments within a tenant
func (r *GormPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPlan, error) {
	var model models.InstallmentPlanModel
	err := dbFromContext(ctx, r.db).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
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

// FindByDebtor lists a debtor's plans
func (r *GormPlanRepository) FindByDebtor(ctx context.Context, tenantID, debtorID uuid.UUID, filter installment.PlanFilter) (*shared.Paginated[*installment.InstallmentPlan], error) {
	filter.DebtorID = &debtorID
	return r.List(ctx, tenantID, filter)
}

// Save persists an updated plan and its installments without a version check
func (r *GormPlanRepository) Save(ctx context.Context, plan *installment.InstallmentPlan) error {
	db := dbFromContext(ctx, r.db)
	model := models.InstallmentPlanModelFromDomain(plan)

	installments := model.Installments
	model.Installments = nil
	if err := db.Save(model).Error; err != nil {
		return err
	}
	return r.saveInstallments(db, installments)
}

// SaveWithLock persists an updated plan guarded by its version column, then
// updates every installment row. All writes share the caller's unit of work,
// so a version conflict rolls back the installments too.
func (r *GormPlanRepository) SaveWithLock(ctx context.Context, plan *installment.InstallmentPlan) error {
	db := dbFromContext(ctx, r.db)
	model := models.InstallmentPlanModelFromDomain(plan)

	installments := model.Installments
	model.Installments = nil

	result := db.
		Model(model).
		Where("id = ? AND version = ?", plan.ID, plan.Version-1).
		Select("remaining_amount", "status", "canceled_at", "cancel_reason", "version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT",
			"The installment plan has been modified by another transaction")
	}

	return r.saveInstallments(db, installments)
}

func (r *GormPlanRepository) saveInstallments(db *gorm.DB, installments []models.InstallmentModel) error {
	for i := range installments {
		err := db.Model(&models.InstallmentModel{}).
			Where("id = ?", installments[i].ID).
			Select("remaining", "status", "updated_at").
			Updates(&installments[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// List lists plans of a tenant with filtering
func (r *GormPlanRepository) List(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) (*shared.Paginated[*installment.InstallmentPlan], error) {
	query := dbFromContext(ctx, r.db).
		Model(&models.InstallmentPlanModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.DebtorID != nil {
		query = query.Where("debtor_id = ?", *filter.DebtorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var planModels []models.InstallmentPlanModel
	err := query.
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&planModels).Error
	if err != nil {
		return nil, err
	}

	plans := make([]*installment.InstallmentPlan, len(planModels))
	for i := range planModels {
		plans[i] = planModels[i].ToDomain()
	}
	result := shared.NewPaginated(plans, total, page, pageSize)
	return &result, nil
}
