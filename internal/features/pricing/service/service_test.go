package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRates map[string]float64

func (r staticRates) RatesRUB(ctx context.Context) map[string]float64 {
	return r
}

// 1.38 RUB per star, 276 RUB per TON: one star costs exactly 0.005 TON.
func newTestService() PricingService {
	return NewPricingService(staticRates{"TON": 276.0, "USDT": 69.0}, 1.38)
}

func TestGetQuoteSubstitutesDefaultAmount(t *testing.T) {
	svc := newTestService()

	for _, amount := range []int64{0, -10} {
		quote, err := svc.GetQuote(context.Background(), amount)
		require.NoError(t, err)
		assert.InDelta(t, 0.005*float64(DefaultAmount), quote["TON"].Base, 1e-9)
	}
}

func TestGetQuoteCoversAllCurrencies(t *testing.T) {
	svc := newTestService()

	quote, err := svc.GetQuote(context.Background(), 100)
	require.NoError(t, err)
	require.Contains(t, quote, "TON")
	require.Contains(t, quote, "USDT")
	assert.InDelta(t, 0.5, quote["TON"].Base, 1e-9)
	assert.InDelta(t, 2.0, quote["USDT"].Base, 1e-9)
}

func TestGetQuoteDiscountTiers(t *testing.T) {
	svc := newTestService()

	cases := []struct {
		amount  int64
		percent float64
	}{
		{100, 0},
		{499, 0},
		{500, 3},
		{999, 3},
		{1000, 5},
		{4999, 5},
		{5000, 8},
	}

	for _, tc := range cases {
		quote, err := svc.GetQuote(context.Background(), tc.amount)
		require.NoError(t, err)
		price := quote["TON"]
		assert.InDelta(t, price.Base*(1-tc.percent/100), price.Discounted, 1e-9,
			"amount %d expects %.0f%% discount", tc.amount, tc.percent)
		assert.LessOrEqual(t, price.Discounted, price.Base)
	}
}

func TestPriceChargesDiscountedTotal(t *testing.T) {
	svc := newTestService()

	price, err := svc.Price(context.Background(), "TON", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 5.0*0.95, price, 1e-9)
}

func TestPriceUnsupportedCurrency(t *testing.T) {
	svc := newTestService()

	_, err := svc.Price(context.Background(), "BTC", 100)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}
