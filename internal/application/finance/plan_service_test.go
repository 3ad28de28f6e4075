package finance

import (
	"context"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPlanService(planRepo *MockPlanRepository) *PlanService {
	return NewPlanService(planRepo, passthroughTxManager{}, shared.NewInMemoryEventBus(), decimal.NewFromInt(10), zap.NewNop())
}

func planStartDate() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestPlanServiceCreatePlan(t *testing.T) {
	tenantID, debtorID, operatorID := uuid.New(), uuid.New(), uuid.New()

	t.Run("generates and persists the schedule", func(t *testing.T) {
		planRepo := new(MockPlanRepository)
		svc := newPlanService(planRepo)

		planRepo.On("Create", mock.Anything, mock.AnythingOfType("*installment.InstallmentPlan")).Return(nil)

		plan, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
			TenantID:             tenantID,
			DebtorID:             debtorID,
			OperatorID:           operatorID,
			TotalAmount:          decimal.NewFromInt(1000),
			DownPayment:          decimal.NewFromInt(200),
			NumberOfInstallments: 8,
			StartDate:            planStartDate(),
		})
		require.NoError(t, err)

		assert.Equal(t, installment.PlanStatusActive, plan.Status)
		assert.Len(t, plan.Installments, 8)
		assert.True(t, plan.InstallmentAmount.Equal(decimal.NewFromInt(100)))
		require.NotNil(t, plan.GetCreatedBy())
		assert.Equal(t, operatorID, *plan.GetCreatedBy())
		assert.Empty(t, plan.GetDomainEvents(), "events are published and cleared")
		planRepo.AssertExpectations(t)
	})

	t.Run("falls back to the configured round step", func(t *testing.T) {
		planRepo := new(MockPlanRepository)
		svc := newPlanService(planRepo)

		planRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		plan, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
			TenantID:             tenantID,
			DebtorID:             debtorID,
			TotalAmount:          decimal.NewFromInt(1000),
			NumberOfInstallments: 3,
			StartDate:            planStartDate(),
		})
		require.NoError(t, err)
		assert.True(t, plan.RoundStep.Equal(decimal.NewFromInt(10)))
		assert.True(t, plan.InstallmentAmount.Equal(decimal.NewFromInt(340)))
	})

	t.Run("validation failure never reaches storage", func(t *testing.T) {
		planRepo := new(MockPlanRepository)
		svc := newPlanService(planRepo)

		_, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
			TenantID:             tenantID,
			DebtorID:             debtorID,
			TotalAmount:          decimal.NewFromInt(100),
			DownPayment:          decimal.NewFromInt(100),
			NumberOfInstallments: 3,
			StartDate:            planStartDate(),
		})
		assert.True(t, shared.IsDomainError(err, "VALIDATION_FAILED"))
		planRepo.AssertNotCalled(t, "Create")
	})
}

func TestPlanServiceCancelPlan(t *testing.T) {
	tenantID, debtorID := uuid.New(), uuid.New()

	t.Run("cancels an unpaid plan", func(t *testing.T) {
		planRepo := new(MockPlanRepository)
		svc := newPlanService(planRepo)

		plan, err := installment.NewInstallmentPlan(tenantID, debtorID,
			decimal.NewFromInt(1000), decimal.NewFromInt(200), 8, planStartDate(), decimal.NewFromInt(10))
		require.NoError(t, err)
		plan.ClearDomainEvents()

		planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(plan, nil)
		planRepo.On("SaveWithLock", mock.Anything, plan).Return(nil)

		canceled, err := svc.CancelPlan(context.Background(), tenantID, plan.ID, "order returned", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, installment.PlanStatusCanceled, canceled.Status)
		planRepo.AssertExpectations(t)
	})

	t.Run("unknown plan yields not found", func(t *testing.T) {
		planRepo := new(MockPlanRepository)
		svc := newPlanService(planRepo)

		missing := uuid.New()
		planRepo.On("FindByIDForTenant", mock.Anything, tenantID, missing).Return(nil, nil)

		_, err := svc.CancelPlan(context.Background(), tenantID, missing, "whatever", uuid.New())
		assert.True(t, shared.IsDomainError(err, "NOT_FOUND"))
	})
}
