package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements installment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create persists a payment header together with its allocation details
func (r *GormPaymentRepository) Create(ctx context.Context, payment *installment.InstallmentPayment) error {
	model := models.InstallmentPaymentModelFromDomain(payment)
	return dbFromContext(ctx, r.db).Create(model).Error
}

// FindByIDForTenant finds a payment with its details within a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPayment, error) {
	var model models.InstallmentPaymentModel
	err := dbFromContext(ctx, r.db).
		Preload("Details").
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

// FindByPlan lists every payment recorded against a plan, oldest first
func (r *GormPaymentRepository) FindByPlan(ctx context.Context, tenantID, planID uuid.UUID) ([]*installment.InstallmentPayment, error) {
	var paymentModels []models.InstallmentPaymentModel
	err := dbFromContext(ctx, r.db).
		Preload("Details").
		Where("tenant_id = ? AND plan_id = ?", tenantID, planID).
		Order("paid_at ASC").
		Find(&paymentModels).Error
	if err != nil {
		return nil, err
	}

	payments := make([]*installment.InstallmentPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}
