package api

import (
	"context"
	"sync"
	"time"

	models "PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/usecase"
	pkgcache "PriceGate/pkg/cache"
	xlogger "PriceGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubVendor struct {
	mu         sync.Mutex
	configured bool
	prices     map[string]float64
}

func (v *stubVendor) FetchPrice(_ context.Context, symbol string, _ models.AssetClass) models.PriceQuote {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.prices[symbol]
	if !ok {
		return models.ErrorQuote(symbol, time.Now())
	}
	return models.PriceQuote{Symbol: symbol, Price: p, Timestamp: time.Now()}
}

func (v *stubVendor) FetchBatch(_ context.Context, assets []models.Asset) []models.PriceUpdate {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.PriceUpdate
	for _, a := range assets {
		if p, ok := v.prices[a.Symbol]; ok {
			out = append(out, models.PriceUpdate{Symbol: a.Symbol, Price: p, UpdatedAt: time.Now()})
		}
	}
	return out
}

func (v *stubVendor) Configured() bool { return v.configured }

type stubStore struct {
	assets    []models.Asset
	healthErr error
}

func (s *stubStore) Init(context.Context) error { return nil }

func (s *stubStore) ListActive(context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range s.assets {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) Get(_ context.Context, symbol string) (*models.Asset, error) {
	for _, a := range s.assets {
		if a.Symbol == symbol {
			return &a, nil
		}
	}
	return nil, domrepo.ErrAssetNotFound
}

func (s *stubStore) UpsertAssets(context.Context, []models.Asset) error       { return nil }
func (s *stubStore) UpsertPrices(context.Context, []models.PriceUpdate) error { return nil }
func (s *stubStore) Health(context.Context) error                             { return s.healthErr }
func (s *stubStore) Close() error                                             { return nil }

type fixture struct {
	vendor *stubVendor
	store  *stubStore
	prices *usecase.PriceService
	assets *usecase.AssetService
}

func newFixture() *fixture {
	vendor := &stubVendor{configured: true, prices: map[string]float64{
		"EURUSD": 1.085,
		"BTCUSD": 64000,
	}}
	store := &stubStore{assets: []models.Asset{
		{Symbol: "EURUSD", Name: "Euro / US Dollar", Class: models.ClassForex, Precision: 5, LotSize: 100000, IsActive: true},
		{Symbol: "BTCUSD", Name: "Bitcoin", Class: models.ClassCrypto, Precision: 2, LotSize: 1, IsActive: true},
	}}
	return &fixture{
		vendor: vendor,
		store:  store,
		prices: usecase.NewPriceService(vendor),
		assets: usecase.NewAssetService(store, pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0)), time.Minute),
	}
}

func newEcho(handlers ...interface{ RegisterRoutes(e *echo.Echo) }) *echo.Echo {
	e := echo.New()
	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
	return e
}

var nopLogger = xlogger.Nop()
