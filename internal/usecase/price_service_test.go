package usecase

import (
	"context"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time          { return c.t }
func (c *stepClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPriceService(v *fakeVendor, opts ...PriceServiceOption) (*PriceService, *stepClock) {
	clk := &stepClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]PriceServiceOption{WithQuoteCache(cache.WithClock(clk.Now))}, opts...)
	return NewPriceService(v, opts...), clk
}

func TestQuoteValidation(t *testing.T) {
	s, _ := newTestPriceService(newFakeVendor(map[string]float64{}))
	ctx := context.Background()

	_, err := s.Quote(ctx, "", "forex")
	assert.ErrorIs(t, err, ErrMissingSymbol)
	_, err = s.Quote(ctx, "EURUSD", "")
	assert.ErrorIs(t, err, ErrMissingSymbol)
	_, err = s.Quote(ctx, "EURUSD", "bonds")
	assert.ErrorIs(t, err, ErrUnknownAssetClass)
}

func TestQuoteRequiresConfiguredVendor(t *testing.T) {
	v := newFakeVendor(map[string]float64{"EURUSD": 1.085})
	v.configured = false
	s, _ := newTestPriceService(v)

	_, err := s.Quote(context.Background(), "EURUSD", "forex")
	assert.ErrorIs(t, err, ErrVendorNotConfigured)
	assert.Zero(t, v.Calls())
}

func TestQuoteEnrichesWithSpread(t *testing.T) {
	v := newFakeVendor(map[string]float64{"EURUSD": 1.085, "BTCUSD": 64000})
	s, _ := newTestPriceService(v)
	ctx := context.Background()

	q, err := s.Quote(ctx, " eurusd ", "Forex")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", q.Symbol)
	assert.Equal(t, 1.085, q.Price)
	assert.InDelta(t, 1.08494575, q.Bid, 1e-9)
	assert.InDelta(t, 1.08505425, q.Ask, 1e-9)
	assert.InDelta(t, 0.0001085, q.Spread, 1e-9)
	assert.Zero(t, q.Change)

	q, err = s.Quote(ctx, "BTCUSD", "crypto")
	require.NoError(t, err)
	assert.InDelta(t, 63984, q.Bid, 1e-6)
	assert.InDelta(t, 64016, q.Ask, 1e-6)
}

func TestQuoteChangeAgainstPreviousPrice(t *testing.T) {
	v := newFakeVendor(map[string]float64{"AAPL": 200})
	s, clk := newTestPriceService(v)
	ctx := context.Background()

	_, err := s.Quote(ctx, "AAPL", "stock")
	require.NoError(t, err)

	v.SetPrice("AAPL", 210)
	clk.Advance(cache.DefaultQuoteTTL)
	q, err := s.Quote(ctx, "AAPL", "stock")
	require.NoError(t, err)
	assert.Equal(t, 10.0, q.Change)
	assert.Equal(t, 5.0, q.ChangePercent)
}

func TestQuoteServesCacheWithinTTL(t *testing.T) {
	v := newFakeVendor(map[string]float64{"EURUSD": 1.085})
	s, clk := newTestPriceService(v)
	ctx := context.Background()

	_, err := s.Quote(ctx, "EURUSD", "forex")
	require.NoError(t, err)
	clk.Advance(4999 * time.Millisecond)
	_, err = s.Quote(ctx, "EURUSD", "forex")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Calls())

	clk.Advance(2 * time.Millisecond)
	_, err = s.Quote(ctx, "EURUSD", "forex")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Calls())
}

func TestQuoteUnavailableIsCached(t *testing.T) {
	v := newFakeVendor(map[string]float64{})
	s, _ := newTestPriceService(v)
	ctx := context.Background()

	q, err := s.Quote(ctx, "XAUUSD", "commodity")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.True(t, q.Error)
	assert.Zero(t, q.Price)

	v.SetPrice("XAUUSD", 2300)
	q, err = s.Quote(ctx, "XAUUSD", "commodity")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.True(t, q.Error)
	assert.Equal(t, 1, v.Calls())
}

func TestWithSpreadBpsOverrides(t *testing.T) {
	v := newFakeVendor(map[string]float64{"AAPL": 100})
	s, _ := newTestPriceService(v, WithSpreadBps(map[string]float64{"stock": 100, "bogus": 7}))

	q, err := s.Quote(context.Background(), "AAPL", "stock")
	require.NoError(t, err)
	assert.Equal(t, 99.5, q.Bid)
	assert.Equal(t, 100.5, q.Ask)
	assert.Equal(t, 1.0, q.Spread)
}

func TestQuotesUsesBatchPath(t *testing.T) {
	v := newFakeVendor(map[string]float64{"EURUSD": 1.085, "BTCUSD": 64000})
	s, _ := newTestPriceService(v)

	quotes, err := s.Quotes(context.Background(), []models.SymbolRef{
		{Symbol: "EURUSD", Class: models.ClassForex},
		{Symbol: "BTCUSD", Class: models.ClassCrypto},
		{Symbol: "NOPE", Class: models.ClassStock},
	})
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.False(t, quotes[0].Error)
	assert.NotZero(t, quotes[1].Ask)
	assert.True(t, quotes[2].Error)
	assert.Equal(t, cache.StateError, s.Cache().State("NOPE"))
}

func TestQuotesFillsSymbolsMissingFromRecentBatch(t *testing.T) {
	v := newFakeVendor(map[string]float64{"EURUSD": 1.085, "ETHUSD": 3200})
	s, _ := newTestPriceService(v)
	ctx := context.Background()

	_, err := s.Quotes(ctx, []models.SymbolRef{{Symbol: "EURUSD", Class: models.ClassForex}})
	require.NoError(t, err)

	quotes, err := s.Quotes(ctx, []models.SymbolRef{
		{Symbol: "ETHUSD", Class: models.ClassCrypto},
		{Symbol: "EURUSD", Class: models.ClassForex},
		{Symbol: "ETHUSD", Class: models.ClassCrypto},
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "ETHUSD", quotes[0].Symbol)
	assert.Equal(t, 3200.0, quotes[0].Price)
	assert.Equal(t, "EURUSD", quotes[1].Symbol)
	assert.Equal(t, 2, v.Calls())
}
