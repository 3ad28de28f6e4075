package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCashBox(t *testing.T) *CashBox {
	t.Helper()
	cb, err := NewCashBox(uuid.New(), uuid.New(), "Main register", CashBoxTypeCash, true)
	require.NoError(t, err)
	return cb
}

func TestCashBoxType(t *testing.T) {
	t.Run("IsValid returns true for valid types", func(t *testing.T) {
		for _, boxType := range []CashBoxType{CashBoxTypeCash, CashBoxTypeBank, CashBoxTypeWallet} {
			assert.True(t, boxType.IsValid(), "Expected %s to be valid", boxType)
		}
	})

	t.Run("IsValid returns false for invalid type", func(t *testing.T) {
		assert.False(t, CashBoxType("INVALID").IsValid())
	})
}

func TestNegativeBalancePolicy(t *testing.T) {
	t.Run("forbid does not allow negative", func(t *testing.T) {
		assert.False(t, NegativeBalanceForbid.AllowsNegative())
		assert.True(t, NegativeBalanceForbid.IsValid())
	})

	t.Run("allow permits negative", func(t *testing.T) {
		assert.True(t, NegativeBalanceAllow.AllowsNegative())
		assert.True(t, NegativeBalanceAllow.IsValid())
	})

	t.Run("unknown policy is invalid", func(t *testing.T) {
		assert.False(t, NegativeBalancePolicy("maybe").IsValid())
	})
}

func TestNewCashBox(t *testing.T) {
	t.Run("creates active cashbox with zero balance", func(t *testing.T) {
		cb := newTestCashBox(t)

		assert.Equal(t, CashBoxStatusActive, cb.Status)
		assert.True(t, cb.Balance.IsZero())
		assert.True(t, cb.IsDefault)
		assert.Equal(t, 1, cb.Version)
		assert.Len(t, cb.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeCashBoxCreated, cb.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty owner", func(t *testing.T) {
		_, err := NewCashBox(uuid.New(), uuid.Nil, "Register", CashBoxTypeCash, false)
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCashBox(uuid.New(), uuid.New(), "", CashBoxTypeCash, false)
		assert.Error(t, err)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewCashBox(uuid.New(), uuid.New(), "Register", CashBoxType("SOCK"), false)
		assert.Error(t, err)
	})
}

func TestCashBoxDeposit(t *testing.T) {
	t.Run("increases balance and version", func(t *testing.T) {
		cb := newTestCashBox(t)

		require.NoError(t, cb.Deposit(decimal.NewFromInt(500)))

		assert.True(t, cb.Balance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 2, cb.Version)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		cb := newTestCashBox(t)
		assert.Error(t, cb.Deposit(decimal.Zero))
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		cb := newTestCashBox(t)
		assert.Error(t, cb.Deposit(decimal.NewFromInt(-10)))
	})

	t.Run("rejects archived cashbox", func(t *testing.T) {
		cb := newTestCashBox(t)
		require.NoError(t, cb.Archive())
		assert.Error(t, cb.Deposit(decimal.NewFromInt(10)))
	})
}

func TestCashBoxWithdraw(t *testing.T) {
	t.Run("decreases balance", func(t *testing.T) {
		cb := newTestCashBox(t)
		require.NoError(t, cb.Deposit(decimal.NewFromInt(500)))

		require.NoError(t, cb.Withdraw(decimal.NewFromInt(200), NegativeBalanceForbid))

		assert.True(t, cb.Balance.Equal(decimal.NewFromInt(300)))
	})

	t.Run("forbid policy rejects overdraft", func(t *testing.T) {
		cb := newTestCashBox(t)
		require.NoError(t, cb.Deposit(decimal.NewFromInt(100)))

		err := cb.Withdraw(decimal.NewFromInt(150), NegativeBalanceForbid)

		require.Error(t, err)
		assert.ErrorContains(t, err, "Insufficient funds")
		assert.True(t, cb.Balance.Equal(decimal.NewFromInt(100)), "balance must be untouched on failure")
	})

	t.Run("allow policy permits overdraft", func(t *testing.T) {
		cb := newTestCashBox(t)
		require.NoError(t, cb.Deposit(decimal.NewFromInt(100)))

		require.NoError(t, cb.Withdraw(decimal.NewFromInt(150), NegativeBalanceAllow))

		assert.True(t, cb.Balance.Equal(decimal.NewFromInt(-50)))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		cb := newTestCashBox(t)
		assert.Error(t, cb.Withdraw(decimal.Zero, NegativeBalanceAllow))
		assert.Error(t, cb.Withdraw(decimal.NewFromInt(-1), NegativeBalanceAllow))
	})
}

func TestCashBoxArchive(t *testing.T) {
	t.Run("archives empty cashbox and clears default", func(t *testing.T) {
		cb := newTestCashBox(t)

		require.NoError(t, cb.Archive())

		assert.Equal(t, CashBoxStatusArchived, cb.Status)
		assert.False(t, cb.IsDefault)
		assert.False(t, cb.IsActive())
	})

	t.Run("rejects non-zero balance", func(t *testing.T) {
		cb := newTestCashBox(t)
		require.NoError(t, cb.Deposit(decimal.NewFromInt(1)))
		assert.Error(t, cb.Archive())
	})

	t.Run("rejects double archive", func(t *testing.T) {
		cb := newTestCashBox(t)
		require.NoError(t, cb.Archive())
		assert.Error(t, cb.Archive())
	})
}

func TestCashBoxDefaultFlag(t *testing.T) {
	cb, err := NewCashBox(uuid.New(), uuid.New(), "Side register", CashBoxTypeCash, false)
	require.NoError(t, err)

	cb.MarkDefault()
	assert.True(t, cb.IsDefault)

	cb.UnmarkDefault()
	assert.False(t, cb.IsDefault)
}
