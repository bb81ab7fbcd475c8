package usecase

import (
	"context"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	pkgcache "PriceGate/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets() []models.Asset {
	return []models.Asset{
		{Symbol: "EURUSD", Name: "Euro / US Dollar", Class: models.ClassForex, BaseCurrency: "EUR", QuoteCurrency: "USD", Precision: 5, LotSize: 100000, IsActive: true},
		{Symbol: "BTCUSD", Name: "Bitcoin", Class: models.ClassCrypto, BaseCurrency: "BTC", QuoteCurrency: "USD", Precision: 2, LotSize: 1, IsActive: true},
		{Symbol: "TSLA", Name: "Tesla", Class: models.ClassStock, QuoteCurrency: "USD", Precision: 2, LotSize: 1, IsActive: false},
	}
}

func newTestAssetService(t *testing.T, store *memStore) (*AssetService, *stepClock) {
	t.Helper()
	clk := &stepClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0), pkgcache.WithMemoryClock(clk.Now))
	t.Cleanup(func() { _ = mem.Close() })
	return NewAssetService(store, mem, time.Minute), clk
}

func TestActiveAssetsCachedForTTL(t *testing.T) {
	store := newMemStore(testAssets()...)
	s, clk := newTestAssetService(t, store)
	ctx := context.Background()

	assets, err := s.ActiveAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 2)

	_, err = s.ActiveAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)

	clk.Advance(time.Minute + time.Second)
	_, err = s.ActiveAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
}

func TestActiveAssetsStoreError(t *testing.T) {
	store := newMemStore()
	store.listErr = errStoreDown
	s, _ := newTestAssetService(t, store)

	_, err := s.ActiveAssets(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestLookup(t *testing.T) {
	store := newMemStore(testAssets()...)
	s, _ := newTestAssetService(t, store)
	ctx := context.Background()

	a, err := s.Lookup(ctx, " btcusd")
	require.NoError(t, err)
	assert.Equal(t, models.ClassCrypto, a.Class)

	// inactive assets fall through to the store
	a, err = s.Lookup(ctx, "TSLA")
	require.NoError(t, err)
	assert.False(t, a.IsActive)

	_, err = s.Lookup(ctx, "NOPE")
	assert.ErrorIs(t, err, domrepo.ErrAssetNotFound)
}

func TestSeedInvalidatesList(t *testing.T) {
	store := newMemStore(testAssets()...)
	s, _ := newTestAssetService(t, store)
	ctx := context.Background()

	assets, err := s.ActiveAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	require.NoError(t, s.Seed(ctx, []models.Asset{
		{Symbol: "XAUUSD", Name: "Gold", Class: models.ClassCommodity, QuoteCurrency: "USD", Precision: 2, LotSize: 100, IsActive: true},
	}))

	assets, err = s.ActiveAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 3)
	assert.Equal(t, 2, store.lists)
}
