package repository

import (
	"context"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	s := NewSQLStore(db, database.DriverSQLite)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(ctx))
	return s
}

func sampleAssets() []models.Asset {
	return []models.Asset{
		{Symbol: "EURUSD", Name: "Euro / US Dollar", Class: models.ClassForex, BaseCurrency: "EUR", QuoteCurrency: "USD", Precision: 5, LotSize: 100000, IsActive: true},
		{Symbol: "BTCUSD", Name: "Bitcoin", Class: models.ClassCrypto, BaseCurrency: "BTC", QuoteCurrency: "USD", Precision: 2, LotSize: 1, IsActive: true},
		{Symbol: "AAPL", Name: "Apple", Class: models.ClassStock, QuoteCurrency: "USD", Precision: 2, LotSize: 1, IsActive: false},
	}
}

func storeSuite(t *testing.T, s *SQLStore) {
	ctx := context.Background()

	require.NoError(t, s.Init(ctx), "init is idempotent")
	require.NoError(t, s.UpsertAssets(ctx, sampleAssets()))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "BTCUSD", active[0].Symbol)
	assert.Equal(t, "EURUSD", active[1].Symbol)
	assert.Equal(t, models.ClassForex, active[1].Class)
	assert.Equal(t, 5, active[1].Precision)
	assert.Equal(t, 100000.0, active[1].LotSize)

	got, err := s.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = s.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, domrepo.ErrAssetNotFound)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertPrices(ctx, []models.PriceUpdate{
		{Symbol: "EURUSD", Price: 1.085, UpdatedAt: at},
		{Symbol: "BTCUSD", Price: 64000, UpdatedAt: at},
	}))
	require.NoError(t, s.UpsertPrices(ctx, []models.PriceUpdate{
		{Symbol: "EURUSD", Price: 1.0861, UpdatedAt: at.Add(5 * time.Minute)},
	}))

	var price float64
	require.NoError(t, s.db.QueryRowContext(ctx,
		s.q(`SELECT price FROM asset_prices WHERE symbol = ?`), "EURUSD").Scan(&price))
	assert.Equal(t, 1.0861, price)

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset_prices`).Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, s.Health(ctx))
}

func TestSQLStoreSQLite(t *testing.T) {
	storeSuite(t, newSQLiteStore(t))
}

func TestSQLStoreEmpty(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	require.NoError(t, s.UpsertPrices(ctx, nil))
}
