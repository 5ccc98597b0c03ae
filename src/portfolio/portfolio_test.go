package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/trading-simulator/src/eventmodels"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuyCommissionPushesCostOverBalance(t *testing.T) {
	p := NewPortfolio(d("10000"))

	// cost = 0.5*20000*(1+0.001) = 10010, just over the balance
	err := p.Buy(d("0.5"), d("20000"), d("0.001"))
	assert.ErrorIs(t, err, eventmodels.ErrInsufficientFunds)

	// the same trade clears with zero commission
	assert.NoError(t, p.Buy(d("0.5"), d("20000"), decimal.Zero))
	assert.True(t, p.Balance().IsZero())
}

func TestBuyExactArithmetic(t *testing.T) {
	p := NewPortfolio(d("10000"))

	err := p.Buy(d("0.4"), d("20000"), d("0.001"))
	require.NoError(t, err)

	// cost = 0.4*20000*(1+0.001) = 8008
	assert.True(t, p.Balance().Equal(d("1992")), "balance = %s", p.Balance())
	assert.True(t, p.AssetAmount().Equal(d("0.4")))
	assert.True(t, p.AssetValue().Equal(d("8000")))
	assert.True(t, p.TotalValue().Equal(d("9992")))
}

func TestBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	p := NewPortfolio(d("100"))

	err := p.Buy(d("1"), d("200"), decimal.Zero)
	assert.ErrorIs(t, err, eventmodels.ErrInsufficientFunds)

	assert.True(t, p.Balance().Equal(d("100")))
	assert.True(t, p.AssetAmount().IsZero())
	assert.True(t, p.TotalValue().Equal(d("100")))
}

func TestSell(t *testing.T) {
	t.Run("credits cash net of commission", func(t *testing.T) {
		p := NewPortfolio(d("10000"))
		require.NoError(t, p.Buy(d("0.1"), d("50000"), decimal.Zero))

		err := p.Sell(d("0.1"), d("60000"), d("0.001"))
		require.NoError(t, err)

		// proceeds = 0.1*60000*(1-0.001) = 5994
		assert.True(t, p.Balance().Equal(d("10994")), "balance = %s", p.Balance())
		assert.True(t, p.AssetAmount().IsZero())
		assert.True(t, p.TotalValue().Equal(d("10994")))
	})

	t.Run("selling more than held fails without mutation", func(t *testing.T) {
		p := NewPortfolio(d("10000"))
		require.NoError(t, p.Buy(d("0.1"), d("50000"), decimal.Zero))

		before := p.Snapshot()
		err := p.Sell(d("0.2"), d("60000"), decimal.Zero)
		assert.ErrorIs(t, err, eventmodels.ErrInsufficientAsset)

		assert.True(t, p.Balance().Equal(before.Balance))
		assert.True(t, p.AssetAmount().Equal(before.AssetAmount))
		assert.True(t, p.TotalValue().Equal(before.TotalValue))
	})

	t.Run("zero volume is rejected", func(t *testing.T) {
		p := NewPortfolio(d("10000"))

		assert.ErrorIs(t, p.Sell(decimal.Zero, d("100"), decimal.Zero), eventmodels.ErrInvalidTradeVolume)
		assert.ErrorIs(t, p.Buy(d("-1"), d("100"), decimal.Zero), eventmodels.ErrInvalidTradeVolume)
	})
}

func TestRoundTripCommissionLeakage(t *testing.T) {
	t.Run("r > 0 leaks exactly 2*q*p*r", func(t *testing.T) {
		q := d("2")
		price := d("150")
		rate := d("0.002")

		p := NewPortfolio(d("1000"))
		require.NoError(t, p.Buy(q, price, rate))
		require.NoError(t, p.Sell(q, price, rate))

		// leakage = 2 * 2 * 150 * 0.002 = 1.2
		assert.True(t, p.TotalValue().Equal(d("998.8")), "total = %s", p.TotalValue())
	})

	t.Run("r = 0 preserves total value", func(t *testing.T) {
		p := NewPortfolio(d("1000"))
		require.NoError(t, p.Buy(d("3"), d("100"), decimal.Zero))
		require.NoError(t, p.Sell(d("3"), d("100"), decimal.Zero))

		assert.True(t, p.TotalValue().Equal(d("1000")))
	})
}

func TestRevalueInvariant(t *testing.T) {
	p := NewPortfolio(d("5000"))
	require.NoError(t, p.Buy(d("0.5"), d("4000"), d("0.001")))

	for _, price := range []string{"4100", "3900.55", "0.01", "123456.789"} {
		p.Revalue(d(price))
		expected := p.Balance().Add(p.AssetAmount().Mul(d(price)))
		assert.True(t, p.TotalValue().Equal(expected), "price %s: total %s != %s", price, p.TotalValue(), expected)
	}
}

func TestNoDriftAfterManyOperations(t *testing.T) {
	p := NewPortfolio(d("1000000"))
	q := d("0.003")
	price := d("101.17")

	for i := 0; i < 10000; i++ {
		require.NoError(t, p.Buy(q, price, decimal.Zero))
		require.NoError(t, p.Sell(q, price, decimal.Zero))
	}

	assert.True(t, p.Balance().Equal(d("1000000")), "balance drifted to %s", p.Balance())
	assert.True(t, p.AssetAmount().IsZero(), "asset drifted to %s", p.AssetAmount())
	assert.True(t, p.TotalValue().Equal(d("1000000")))
}

func TestReset(t *testing.T) {
	p := NewPortfolio(d("10000"))
	require.NoError(t, p.Buy(d("0.1"), d("30000"), d("0.001")))

	p.Reset()

	assert.True(t, p.Balance().Equal(d("10000")))
	assert.True(t, p.AssetAmount().IsZero())
	assert.True(t, p.AssetValue().IsZero())
	assert.True(t, p.TotalValue().Equal(d("10000")))
}
