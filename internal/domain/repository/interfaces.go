package repository

import (
	"context"
	"errors"

	"PriceGate/internal/domain/models"
)

var (
	// ErrNoActiveAssets is returned when the backing store has no active assets to refresh.
	ErrNoActiveAssets = errors.New("no active assets")
	ErrAssetNotFound  = errors.New("asset not found")
)

// PriceVendor fetches prices from the external price API.
type PriceVendor interface {
	// FetchPrice never fails; failures come back as an error-flagged quote.
	FetchPrice(ctx context.Context, symbol string, class models.AssetClass) models.PriceQuote
	// FetchBatch drops symbols the vendor did not price and skips failed groups.
	FetchBatch(ctx context.Context, assets []models.Asset) []models.PriceUpdate
	Configured() bool
}

// AssetStore provides the asset reference data and the latest-price table.
type AssetStore interface {
	Init(ctx context.Context) error
	ListActive(ctx context.Context) ([]models.Asset, error)
	Get(ctx context.Context, symbol string) (*models.Asset, error)
	UpsertAssets(ctx context.Context, assets []models.Asset) error
	UpsertPrices(ctx context.Context, updates []models.PriceUpdate) error
	Health(ctx context.Context) error
	Close() error
}

// PriceSink receives refreshed prices after they are stored.
type PriceSink interface {
	Name() string
	PublishPrices(ctx context.Context, updates []models.PriceUpdate) error
	Close() error
}

type Metrics interface {
	RecordVendorRequest(op, result string)
	RecordCacheLookup(state string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordPricesUpserted(n int)
}
