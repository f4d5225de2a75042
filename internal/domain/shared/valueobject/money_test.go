package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m := NewMoney(decimal.NewFromFloat(100.50))
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
}

func TestNewMoneyFromFloat(t *testing.T) {
	m := NewMoneyFromFloat(99.99)
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(99.99)))
}

func TestNewMoneyFromInt(t *testing.T) {
	m := NewMoneyFromInt(1000)
	assert.Equal(t, int64(1000), m.Amount().IntPart())
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestZero(t *testing.T) {
	m := Zero()
	assert.True(t, m.IsZero())
}

func TestMoneyIsPositiveNegativeZero(t *testing.T) {
	positive := NewMoneyFromFloat(100)
	negative := NewMoneyFromFloat(-100)
	zero := Zero()

	assert.True(t, positive.IsPositive())
	assert.False(t, positive.IsNegative())
	assert.False(t, positive.IsZero())

	assert.False(t, negative.IsPositive())
	assert.True(t, negative.IsNegative())
	assert.False(t, negative.IsZero())

	assert.False(t, zero.IsPositive())
	assert.False(t, zero.IsNegative())
	assert.True(t, zero.IsZero())
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum := NewMoneyFromFloat(100.25).Add(NewMoneyFromFloat(50.75))
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(151)))
	})

	t.Run("subtract", func(t *testing.T) {
		diff := NewMoneyFromFloat(100).Subtract(NewMoneyFromFloat(30.50))
		assert.True(t, diff.Amount().Equal(decimal.NewFromFloat(69.50)))
	})

	t.Run("multiply", func(t *testing.T) {
		product := NewMoneyFromFloat(9.99).MultiplyByInt(3)
		assert.True(t, product.Amount().Equal(decimal.NewFromFloat(29.97)))
	})

	t.Run("negate and abs", func(t *testing.T) {
		m := NewMoneyFromFloat(42)
		assert.True(t, m.Negate().IsNegative())
		assert.True(t, m.Negate().Abs().Equals(m))
	})
}

func TestMoneyComparisons(t *testing.T) {
	small := NewMoneyFromFloat(10)
	big := NewMoneyFromFloat(20)

	assert.True(t, small.LessThan(big))
	assert.True(t, big.GreaterThan(small))
	assert.True(t, big.GreaterThanOrEqual(big))
	assert.True(t, small.Equals(NewMoneyFromFloat(10)))
	assert.False(t, small.Equals(big))
}

func TestMoneyRound(t *testing.T) {
	m := NewMoneyFromFloat(10.456)
	assert.Equal(t, "10.46", m.Round(2).Amount().StringFixed(2))
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshals as bare number", func(t *testing.T) {
		data, err := json.Marshal(NewMoneyFromFloat(123.45))
		require.NoError(t, err)
		assert.Equal(t, "123.45", string(data))
	})

	t.Run("unmarshals number", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte("99.5"), &m))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(99.5)))
	})

	t.Run("unmarshals quoted string", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`"42.00"`), &m))
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(42)))
	})

	t.Run("null defaults to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte("null"), &m))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var m Money
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
	})
}

func TestMoneySQLRoundTrip(t *testing.T) {
	m := NewMoneyFromFloat(55.25)
	v, err := m.Value()
	require.NoError(t, err)

	var scanned Money
	require.NoError(t, scanned.Scan(v))
	assert.True(t, scanned.Equals(m))

	t.Run("scans NULL to zero", func(t *testing.T) {
		var nullScanned Money
		require.NoError(t, nullScanned.Scan(nil))
		assert.True(t, nullScanned.IsZero())
	})

	t.Run("scans numeric types", func(t *testing.T) {
		var f Money
		require.NoError(t, f.Scan(float64(12.5)))
		assert.True(t, f.Amount().Equal(decimal.NewFromFloat(12.5)))

		var i Money
		require.NoError(t, i.Scan(int64(7)))
		assert.True(t, i.Amount().Equal(decimal.NewFromInt(7)))
	})
}
