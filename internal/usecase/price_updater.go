package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	applogger "PriceGate/pkg/logger"
	"PriceGate/pkg/metrics"
)

// PriceUpdater refreshes the latest-price table from the vendor.
type PriceUpdater struct {
	vendor  domrepo.PriceVendor
	store   domrepo.AssetStore
	sinks   []domrepo.PriceSink
	log     *applogger.Logger
	metrics domrepo.Metrics
}

func NewPriceUpdater(vendor domrepo.PriceVendor, store domrepo.AssetStore, sinks []domrepo.PriceSink, l *applogger.Logger, m domrepo.Metrics) *PriceUpdater {
	if l == nil {
		l = applogger.Nop()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &PriceUpdater{vendor: vendor, store: store, sinks: sinks, log: l, metrics: m}
}

// Run reads the active assets straight from the store, batch-fetches their
// prices, upserts the rows and fans them out to the sinks. It returns the
// number of prices written. Sink failures are logged only.
func (u *PriceUpdater) Run(ctx context.Context) (int, error) {
	if !u.vendor.Configured() {
		return 0, ErrVendorNotConfigured
	}
	start := time.Now()

	assets, err := u.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active assets: %w", err)
	}
	if len(assets) == 0 {
		return 0, domrepo.ErrNoActiveAssets
	}

	updates := u.vendor.FetchBatch(ctx, assets)
	if err := u.store.UpsertPrices(ctx, updates); err != nil {
		return 0, fmt.Errorf("upsert prices: %w", err)
	}

	u.publish(ctx, updates)

	u.metrics.RecordPricesUpserted(len(updates))
	u.metrics.RecordLatency("price_refresh", time.Since(start).Seconds())
	for _, up := range updates {
		u.metrics.RecordLastPrice(up.Symbol, up.Price)
	}

	u.log.Info("prices updated",
		applogger.Int("assets", len(assets)),
		applogger.Int("updated", len(updates)),
		applogger.Int("missing", len(assets)-len(updates)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return len(updates), nil
}

func (u *PriceUpdater) publish(ctx context.Context, updates []models.PriceUpdate) {
	if len(updates) == 0 {
		return
	}
	for _, sink := range u.sinks {
		if err := sink.PublishPrices(ctx, updates); err != nil {
			u.log.Warn("price sink failed",
				applogger.String("sink", sink.Name()),
				applogger.Int("updates", len(updates)),
				applogger.Error(err),
			)
		}
	}
}
