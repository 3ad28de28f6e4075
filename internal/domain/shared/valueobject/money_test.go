package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})

	t.Run("parses from string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", EUR)
		require.NoError(t, err)
		assert.Equal(t, "123.45", m.StringFixed(2))
	})

	t.Run("rejects invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", EUR)
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	hundred := NewMoneyDefaultFromInt(100)
	fifty := NewMoneyDefaultFromInt(50)

	t.Run("adds same currency", func(t *testing.T) {
		sum, err := hundred.Add(fifty)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))
	})

	t.Run("subtracts same currency", func(t *testing.T) {
		diff, err := hundred.Subtract(fifty)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(50)))
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		euro := Zero(EUR)
		_, err := hundred.Add(euro)
		assert.Error(t, err)
		_, err = hundred.Subtract(euro)
		assert.Error(t, err)
	})

	t.Run("divide by zero fails", func(t *testing.T) {
		_, err := hundred.Divide(decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("negate and abs", func(t *testing.T) {
		neg := hundred.Negate()
		assert.True(t, neg.IsNegative())
		assert.True(t, neg.Abs().Equals(hundred))
	})
}

func TestMoneyCeilToStep(t *testing.T) {
	step := decimal.NewFromInt(10)

	t.Run("rounds up to next multiple", func(t *testing.T) {
		m, _ := NewMoneyDefaultFromString("93.75")
		rounded, err := m.CeilToStep(step)
		require.NoError(t, err)
		assert.True(t, rounded.Amount().Equal(decimal.NewFromInt(100)))
	})

	t.Run("exact multiple is unchanged", func(t *testing.T) {
		m := NewMoneyDefaultFromInt(100)
		rounded, err := m.CeilToStep(step)
		require.NoError(t, err)
		assert.True(t, rounded.Equals(m))
	})

	t.Run("fractional step", func(t *testing.T) {
		m, _ := NewMoneyDefaultFromString("10.01")
		rounded, err := m.CeilToStep(decimal.NewFromFloat(0.25))
		require.NoError(t, err)
		assert.Equal(t, "10.25", rounded.StringFixed(2))
	})

	t.Run("rejects non-positive step", func(t *testing.T) {
		m := NewMoneyDefaultFromInt(100)
		_, err := m.CeilToStep(decimal.Zero)
		assert.Error(t, err)
		_, err = m.CeilToStep(decimal.NewFromInt(-10))
		assert.Error(t, err)
	})
}

func TestMoneyComparison(t *testing.T) {
	hundred := NewMoneyDefaultFromInt(100)
	fifty := NewMoneyDefaultFromInt(50)

	t.Run("less than and greater than", func(t *testing.T) {
		lt, err := fifty.LessThan(hundred)
		require.NoError(t, err)
		assert.True(t, lt)

		gt, err := hundred.GreaterThan(fifty)
		require.NoError(t, err)
		assert.True(t, gt)

		gte, err := hundred.GreaterThanOrEqual(hundred)
		require.NoError(t, err)
		assert.True(t, gte)
	})

	t.Run("comparing mixed currencies fails", func(t *testing.T) {
		_, err := hundred.LessThan(Zero(EUR))
		assert.Error(t, err)
	})

	t.Run("equals considers currency", func(t *testing.T) {
		same := NewMoneyDefaultFromInt(100)
		assert.True(t, hundred.Equals(same))
		other, _ := NewMoney(decimal.NewFromInt(100), EUR)
		assert.False(t, hundred.Equals(other))
	})
}

func TestMoneyJSON(t *testing.T) {
	t.Run("round trips through JSON", func(t *testing.T) {
		m, _ := NewMoneyDefaultFromString("42.50")
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Money
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, m.Equals(decoded))
	})

	t.Run("rejects invalid amount", func(t *testing.T) {
		var decoded Money
		err := json.Unmarshal([]byte(`{"amount":"abc","currency":"USD"}`), &decoded)
		assert.Error(t, err)
	})
}
