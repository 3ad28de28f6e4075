package persistence

import (
	"context"
	"testing"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTxManager_RunInTx(t *testing.T) {
	db := setupLedgerTestDB(t)
	txManager := NewGormTxManager(db)
	boxRepo := NewGormCashBoxRepository(db)
	txRepo := NewGormTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("commits all writes on success", func(t *testing.T) {
		box := createTestCashBox(t, boxRepo, tenantID, userID, ledger.CashBoxTypeCash, false)

		err := txManager.RunInTx(ctx, func(ctx context.Context) error {
			if err := box.Deposit(decimal.NewFromInt(100)); err != nil {
				return err
			}
			if err := boxRepo.SaveWithLock(ctx, box); err != nil {
				return err
			}
			row, err := ledger.NewDepositTransaction(tenantID, userID, box.ID,
				decimal.NewFromInt(100), decimal.Zero)
			if err != nil {
				return err
			}
			return txRepo.Create(ctx, row)
		})
		require.NoError(t, err)

		found, err := boxRepo.FindByIDForTenant(ctx, tenantID, box.ID)
		require.NoError(t, err)
		assert.True(t, found.Balance.Equal(decimal.NewFromInt(100)))

		rows, err := txRepo.FindByCashBox(ctx, tenantID, box.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		box := createTestCashBox(t, boxRepo, tenantID, userID, ledger.CashBoxTypeBank, false)

		err := txManager.RunInTx(ctx, func(ctx context.Context) error {
			if err := box.Deposit(decimal.NewFromInt(500)); err != nil {
				return err
			}
			if err := boxRepo.SaveWithLock(ctx, box); err != nil {
				return err
			}
			return shared.NewDomainError("VALIDATION_FAILED", "forced failure")
		})
		require.Error(t, err)

		found, err := boxRepo.FindByIDForTenant(ctx, tenantID, box.ID)
		require.NoError(t, err)
		assert.True(t, found.Balance.IsZero())
		assert.Equal(t, 1, found.Version)
	})

	t.Run("nested call joins the outer transaction", func(t *testing.T) {
		box := createTestCashBox(t, boxRepo, tenantID, userID, ledger.CashBoxTypeWallet, false)

		err := txManager.RunInTx(ctx, func(outer context.Context) error {
			return txManager.RunInTx(outer, func(inner context.Context) error {
				assert.Same(t, txFromContext(outer), txFromContext(inner))
				if err := box.Deposit(decimal.NewFromInt(25)); err != nil {
					return err
				}
				return boxRepo.SaveWithLock(inner, box)
			})
		})
		require.NoError(t, err)

		found, err := boxRepo.FindByIDForTenant(ctx, tenantID, box.ID)
		require.NoError(t, err)
		assert.True(t, found.Balance.Equal(decimal.NewFromInt(25)))
	})

	t.Run("inner failure rolls back outer writes", func(t *testing.T) {
		box := createTestCashBox(t, boxRepo, tenantID, userID, ledger.CashBoxTypeCash, false)

		err := txManager.RunInTx(ctx, func(outer context.Context) error {
			if err := box.Deposit(decimal.NewFromInt(10)); err != nil {
				return err
			}
			if err := boxRepo.SaveWithLock(outer, box); err != nil {
				return err
			}
			return txManager.RunInTx(outer, func(context.Context) error {
				return shared.NewDomainError("VALIDATION_FAILED", "inner failure")
			})
		})
		require.Error(t, err)

		found, err := boxRepo.FindByIDForTenant(ctx, tenantID, box.ID)
		require.NoError(t, err)
		assert.True(t, found.Balance.IsZero())
	})
}
