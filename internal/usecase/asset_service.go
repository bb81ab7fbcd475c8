package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	icache "PriceGate/internal/service/cache"
	pkgcache "PriceGate/pkg/cache"
)

const activeAssetsKey = "assets:active"

// AssetService serves asset reference data through a read-through cache.
type AssetService struct {
	store domrepo.AssetStore
	cache pkgcache.Service
	ttl   time.Duration
}

// NewAssetService caches the active asset list in c for ttl
// (icache.DefaultAssetListTTL when ttl is zero).
func NewAssetService(store domrepo.AssetStore, c pkgcache.Service, ttl time.Duration) *AssetService {
	if ttl <= 0 {
		ttl = icache.DefaultAssetListTTL
	}
	return &AssetService{store: store, cache: c, ttl: ttl}
}

// ActiveAssets returns the active assets, at most ttl old.
func (s *AssetService) ActiveAssets(ctx context.Context) ([]models.Asset, error) {
	assets, err := pkgcache.GetOrLoad(ctx, s.cache, activeAssetsKey, s.ttl, s.store.ListActive)
	if err != nil {
		return nil, fmt.Errorf("active assets: %w", err)
	}
	return assets, nil
}

// Lookup finds an asset by UI symbol, preferring the cached active list.
func (s *AssetService) Lookup(ctx context.Context, symbol string) (models.Asset, error) {
	symbol = models.NormalizeSymbol(symbol)
	if assets, err := s.ActiveAssets(ctx); err == nil {
		for _, a := range assets {
			if a.Symbol == symbol {
				return a, nil
			}
		}
	}

	a, err := s.store.Get(ctx, symbol)
	if err != nil {
		if errors.Is(err, domrepo.ErrAssetNotFound) {
			return models.Asset{}, err
		}
		return models.Asset{}, fmt.Errorf("lookup %s: %w", symbol, err)
	}
	return *a, nil
}

// Seed upserts assets and drops the cached list.
func (s *AssetService) Seed(ctx context.Context, assets []models.Asset) error {
	if err := s.store.UpsertAssets(ctx, assets); err != nil {
		return fmt.Errorf("seed assets: %w", err)
	}
	return s.Invalidate(ctx)
}

// Invalidate drops the cached active list.
func (s *AssetService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, activeAssetsKey)
}
