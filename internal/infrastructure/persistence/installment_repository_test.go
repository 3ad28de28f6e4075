package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInstallmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.InstallmentPlanModel{},
		&models.InstallmentModel{},
		&models.InstallmentPaymentModel{},
		&models.InstallmentPaymentDetailModel{},
	)
	require.NoError(t, err)

	return db
}

func createTestPlan(t *testing.T, repo *GormPlanRepository, tenantID, debtorID uuid.UUID) *installment.InstallmentPlan {
	t.Helper()

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	plan, err := installment.NewInstallmentPlan(tenantID, debtorID,
		decimal.NewFromInt(1000), decimal.NewFromInt(200), 8, start, decimal.NewFromInt(10))
	require.NoError(t, err)
	plan.ClearDomainEvents()

	require.NoError(t, repo.Create(context.Background(), plan))
	return plan
}

func TestGormPlanRepository_CreateAndFind(t *testing.T) {
	db := setupInstallmentTestDB(t)
	repo := NewGormPlanRepository(db)
	ctx := context.Background()

	t.Run("round-trips a plan with its schedule", func(t *testing.T) {
		tenantID := uuid.New()
		debtorID := uuid.New()
		plan := createTestPlan(t, repo, tenantID, debtorID)

		found, err := repo.FindByIDForTenant(ctx, tenantID, plan.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, debtorID, found.DebtorID)
		assert.True(t, found.RemainingAmount.Equal(decimal.NewFromInt(800)))
		assert.Equal(t, installment.PlanStatusActive, found.Status)
		require.Len(t, found.Installments, 8)

		for i, inst := range found.Installments {
			assert.Equal(t, i+1, inst.Number)
			assert.True(t, inst.Amount.Equal(decimal.NewFromInt(100)))
			assert.Equal(t, plan.ID, inst.PlanID)
		}
	})

	t.Run("installments come back ordered by number", func(t *testing.T) {
		tenantID := uuid.New()
		plan := createTestPlan(t, repo, tenantID, uuid.New())

		found, err := repo.FindByIDForTenant(ctx, tenantID, plan.ID)
		require.NoError(t, err)
		for i := 1; i < len(found.Installments); i++ {
			assert.Less(t, found.Installments[i-1].Number, found.Installments[i].Number)
		}
	})

	t.Run("returns nil for unknown id", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormPlanRepository_SaveWithLock(t *testing.T) {
	db := setupInstallmentTestDB(t)
	repo := NewGormPlanRepository(db)
	ctx := context.Background()

	t.Run("persists allocation results across plan and installments", func(t *testing.T) {
		tenantID := uuid.New()
		plan := createTestPlan(t, repo, tenantID, uuid.New())

		outcome, err := plan.Allocate(decimal.NewFromInt(250), nil)
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, plan))

		found, err := repo.FindByIDForTenant(ctx, tenantID, plan.ID)
		require.NoError(t, err)
		assert.True(t, found.RemainingAmount.Equal(decimal.NewFromInt(550)))
		assert.Equal(t, installment.PlanStatusActive, found.Status)
		assert.True(t, outcome.TotalApplied.Equal(decimal.NewFromInt(250)))

		assert.Equal(t, installment.InstallmentStatusPaid, found.Installments[0].Status)
		assert.True(t, found.Installments[0].Remaining.IsZero())
		assert.Equal(t, installment.InstallmentStatusPaid, found.Installments[1].Status)
		assert.Equal(t, installment.InstallmentStatusPartiallyPaid, found.Installments[2].Status)
		assert.True(t, found.Installments[2].Remaining.Equal(decimal.NewFromInt(50)))
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		tenantID := uuid.New()
		plan := createTestPlan(t, repo, tenantID, uuid.New())

		stale, err := repo.FindByIDForTenant(ctx, tenantID, plan.ID)
		require.NoError(t, err)

		_, err = plan.Allocate(decimal.NewFromInt(100), nil)
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, plan))

		_, err = stale.Allocate(decimal.NewFromInt(100), nil)
		require.NoError(t, err)
		err = repo.SaveWithLock(ctx, stale)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "CONCURRENCY_CONFLICT"))

		found, err := repo.FindByIDForTenant(ctx, tenantID, plan.ID)
		require.NoError(t, err)
		assert.True(t, found.RemainingAmount.Equal(decimal.NewFromInt(700)))
	})

	t.Run("persists cancellation", func(t *testing.T) {
		tenantID := uuid.New()
		plan := createTestPlan(t, repo, tenantID, uuid.New())

		require.NoError(t, plan.Cancel("customer request"))
		require.NoError(t, repo.SaveWithLock(ctx, plan))

		found, err := repo.FindByIDForTenant(ctx, tenantID, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, installment.PlanStatusCanceled, found.Status)
		require.NotNil(t, found.CanceledAt)
		assert.Equal(t, "customer request", found.CancelReason)
		for _, inst := range found.Installments {
			assert.Equal(t, installment.InstallmentStatusCanceled, inst.Status)
			assert.True(t, inst.Remaining.IsZero())
		}
	})
}

func TestGormPlanRepository_List(t *testing.T) {
	db := setupInstallmentTestDB(t)
	repo := NewGormPlanRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	debtorID := uuid.New()

	createTestPlan(t, repo, tenantID, debtorID)
	createTestPlan(t, repo, tenantID, uuid.New())

	canceled := createTestPlan(t, repo, tenantID, debtorID)
	require.NoError(t, canceled.Cancel("dup"))
	require.NoError(t, repo.SaveWithLock(ctx, canceled))

	t.Run("lists all plans of a tenant", func(t *testing.T) {
		result, err := repo.List(ctx, tenantID, installment.PlanFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Total)
		assert.Len(t, result.Items, 3)
	})

	t.Run("filters by debtor", func(t *testing.T) {
		result, err := repo.FindByDebtor(ctx, tenantID, debtorID, installment.PlanFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := installment.PlanStatusActive
		result, err := repo.List(ctx, tenantID, installment.PlanFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Total)
		for _, p := range result.Items {
			assert.Equal(t, installment.PlanStatusActive, p.Status)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		result, err := repo.List(ctx, tenantID, installment.PlanFilter{
			Filter: shared.Filter{Page: 2, PageSize: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Total)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 2, result.TotalPages)
	})

	t.Run("unknown tenant sees nothing", func(t *testing.T) {
		result, err := repo.List(ctx, uuid.New(), installment.PlanFilter{})
		require.NoError(t, err)
		assert.Zero(t, result.Total)
		assert.Empty(t, result.Items)
	})
}

func TestGormPaymentRepository(t *testing.T) {
	db := setupInstallmentTestDB(t)
	planRepo := NewGormPlanRepository(db)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	payerID := uuid.New()
	plan := createTestPlan(t, planRepo, tenantID, payerID)

	newStoredPayment := func(t *testing.T, amount int64) *installment.InstallmentPayment {
		t.Helper()
		payment, err := installment.NewInstallmentPayment(tenantID, plan.ID, payerID,
			decimal.NewFromInt(amount), installment.PaymentMethodCash, "walk-in")
		require.NoError(t, err)
		payment.AddDetail(plan.Installments[0].ID, decimal.NewFromInt(amount))
		payment.Finalize(decimal.NewFromInt(amount))
		require.NoError(t, repo.Create(ctx, payment))
		return payment
	}

	t.Run("round-trips a payment with details", func(t *testing.T) {
		payment := newStoredPayment(t, 100)

		found, err := repo.FindByIDForTenant(ctx, tenantID, payment.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.AmountPaid.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, installment.PaymentMethodCash, found.Method)
		assert.Equal(t, "walk-in", found.Notes)
		require.Len(t, found.Details, 1)
		assert.Equal(t, plan.Installments[0].ID, found.Details[0].InstallmentID)
		assert.True(t, found.Details[0].AmountPaid.Equal(decimal.NewFromInt(100)))
	})

	t.Run("lists payments of a plan", func(t *testing.T) {
		newStoredPayment(t, 50)

		payments, err := repo.FindByPlan(ctx, tenantID, plan.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 2)
		for _, p := range payments {
			assert.Equal(t, plan.ID, p.PlanID)
			assert.NotEmpty(t, p.Details)
		}
	})

	t.Run("returns nil for unknown payment", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
