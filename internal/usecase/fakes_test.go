package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
)

type fakeVendor struct {
	mu         sync.Mutex
	configured bool
	prices     map[string]float64
	calls      int
	batches    [][]models.Asset
	now        time.Time
}

func newFakeVendor(prices map[string]float64) *fakeVendor {
	return &fakeVendor{configured: true, prices: prices, now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (v *fakeVendor) SetPrice(symbol string, p float64) {
	v.mu.Lock()
	v.prices[symbol] = p
	v.mu.Unlock()
}

func (v *fakeVendor) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func (v *fakeVendor) FetchPrice(_ context.Context, symbol string, _ models.AssetClass) models.PriceQuote {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	p, ok := v.prices[symbol]
	if !ok {
		return models.ErrorQuote(symbol, v.now)
	}
	return models.PriceQuote{Symbol: symbol, Price: p, Timestamp: v.now}
}

func (v *fakeVendor) FetchBatch(_ context.Context, assets []models.Asset) []models.PriceUpdate {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batches = append(v.batches, assets)
	out := make([]models.PriceUpdate, 0, len(assets))
	for _, a := range assets {
		if p, ok := v.prices[a.Symbol]; ok {
			out = append(out, models.PriceUpdate{Symbol: a.Symbol, Price: p, UpdatedAt: v.now})
		}
	}
	return out
}

func (v *fakeVendor) Configured() bool { return v.configured }

type memStore struct {
	mu       sync.Mutex
	assets   map[string]models.Asset
	prices   map[string]models.PriceUpdate
	lists    int
	listErr  error
	upsertEr error
}

func newMemStore(assets ...models.Asset) *memStore {
	s := &memStore{assets: make(map[string]models.Asset), prices: make(map[string]models.PriceUpdate)}
	for _, a := range assets {
		s.assets[a.Symbol] = a
	}
	return s
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) ListActive(context.Context) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, symbol string) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[symbol]
	if !ok {
		return nil, domrepo.ErrAssetNotFound
	}
	return &a, nil
}

func (s *memStore) UpsertAssets(_ context.Context, assets []models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assets {
		s.assets[a.Symbol] = a
	}
	return nil
}

func (s *memStore) UpsertPrices(_ context.Context, updates []models.PriceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertEr != nil {
		return s.upsertEr
	}
	for _, u := range updates {
		s.prices[u.Symbol] = u
	}
	return nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

type recordingSink struct {
	name string
	err  error
	got  [][]models.PriceUpdate
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) PublishPrices(_ context.Context, updates []models.PriceUpdate) error {
	s.got = append(s.got, updates)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

var errStoreDown = errors.New("store down")
