package usecase

import (
	"context"
	"strings"
	"sync"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/service/cache"
	applogger "PriceGate/pkg/logger"
	"PriceGate/pkg/metrics"

	"github.com/shopspring/decimal"
)

// DefaultSpreadBps is the quoted spread per asset class in basis points.
var DefaultSpreadBps = map[models.AssetClass]float64{
	models.ClassForex:     1,
	models.ClassCrypto:    5,
	models.ClassStock:     2,
	models.ClassCommodity: 3,
}

var (
	bpsDivisor     = decimal.NewFromInt(10_000)
	two            = decimal.NewFromInt(2)
	hundred        = decimal.NewFromInt(100)
	quoteDecimals  = int32(8)
	changeDecimals = int32(4)
)

// PriceService serves enriched quotes through the quote cache.
type PriceService struct {
	vendor  domrepo.PriceVendor
	cache   *cache.QuoteCache
	spread  map[models.AssetClass]decimal.Decimal
	log     *applogger.Logger
	metrics domrepo.Metrics

	mu   sync.Mutex
	prev map[string]decimal.Decimal
}

type PriceServiceOption func(*priceServiceConfig)

type priceServiceConfig struct {
	spreadBps map[models.AssetClass]float64
	cacheOpts []cache.QuoteCacheOption
	log       *applogger.Logger
	metrics   domrepo.Metrics
}

// WithSpreadBps overrides per-class spreads. Keys are asset class names;
// unknown classes are ignored.
func WithSpreadBps(bps map[string]float64) PriceServiceOption {
	return func(c *priceServiceConfig) {
		for k, v := range bps {
			if class, ok := models.ParseAssetClass(k); ok {
				c.spreadBps[class] = v
			}
		}
	}
}

// WithQuoteCache passes options to the underlying quote cache.
func WithQuoteCache(opts ...cache.QuoteCacheOption) PriceServiceOption {
	return func(c *priceServiceConfig) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

func WithPriceLogger(l *applogger.Logger) PriceServiceOption {
	return func(c *priceServiceConfig) {
		if l != nil {
			c.log = l
		}
	}
}

func WithPriceMetrics(m domrepo.Metrics) PriceServiceOption {
	return func(c *priceServiceConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

func NewPriceService(vendor domrepo.PriceVendor, opts ...PriceServiceOption) *PriceService {
	cfg := &priceServiceConfig{
		spreadBps: make(map[models.AssetClass]float64, len(DefaultSpreadBps)),
		log:       applogger.Nop(),
		metrics:   metrics.Nop{},
	}
	for k, v := range DefaultSpreadBps {
		cfg.spreadBps[k] = v
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &PriceService{
		vendor:  vendor,
		spread:  make(map[models.AssetClass]decimal.Decimal, len(cfg.spreadBps)),
		log:     cfg.log,
		metrics: cfg.metrics,
		prev:    make(map[string]decimal.Decimal),
	}
	for k, v := range cfg.spreadBps {
		s.spread[k] = decimal.NewFromFloat(v)
	}
	cacheOpts := append([]cache.QuoteCacheOption{cache.WithMetrics(cfg.metrics)}, cfg.cacheOpts...)
	s.cache = cache.NewQuoteCache(s.fetch, cacheOpts...)
	return s
}

// Quote returns the quote for a raw symbol and class as received from a client.
func (s *PriceService) Quote(ctx context.Context, symbol, class string) (models.PriceQuote, error) {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" || strings.TrimSpace(class) == "" {
		return models.PriceQuote{}, ErrMissingSymbol
	}
	c, ok := models.ParseAssetClass(class)
	if !ok {
		return models.PriceQuote{}, ErrUnknownAssetClass
	}
	if !s.vendor.Configured() {
		return models.PriceQuote{}, ErrVendorNotConfigured
	}

	q := s.cache.Get(ctx, sym, c)
	if q.Error {
		s.log.Debug("price unavailable", applogger.String("symbol", sym), applogger.String("class", string(c)))
		return q, ErrPriceUnavailable
	}
	return q, nil
}

// Quotes returns one quote per distinct ref through the cache's batch path.
// Symbols the batch path omits are read through Get. Error quotes are
// included and flagged.
func (s *PriceService) Quotes(ctx context.Context, refs []models.SymbolRef) ([]models.PriceQuote, error) {
	if !s.vendor.Configured() {
		return nil, ErrVendorNotConfigured
	}
	batch := s.cache.GetBatch(ctx, refs)
	got := make(map[string]models.PriceQuote, len(batch))
	for _, q := range batch {
		got[q.Symbol] = q
	}

	out := make([]models.PriceQuote, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		if _, dup := seen[r.Symbol]; dup {
			continue
		}
		seen[r.Symbol] = struct{}{}
		q, ok := got[r.Symbol]
		if !ok {
			q = s.cache.Get(ctx, r.Symbol, r.Class)
		}
		out = append(out, q)
	}
	return out, nil
}

// Cache exposes the quote cache for inspection.
func (s *PriceService) Cache() *cache.QuoteCache {
	return s.cache
}

func (s *PriceService) fetch(ctx context.Context, symbol string, class models.AssetClass) models.PriceQuote {
	q := s.vendor.FetchPrice(ctx, symbol, class)
	if q.Error {
		return q
	}
	return s.enrich(q, class)
}

// enrich derives bid/ask from the class spread and change from the previous
// successful price of the symbol.
func (s *PriceService) enrich(q models.PriceQuote, class models.AssetClass) models.PriceQuote {
	price := decimal.NewFromFloat(q.Price)

	half := price.Mul(s.spread[class]).Div(bpsDivisor).Div(two)
	bid := price.Sub(half).Round(quoteDecimals)
	ask := price.Add(half).Round(quoteDecimals)
	q.Bid, _ = bid.Float64()
	q.Ask, _ = ask.Float64()
	q.Spread, _ = ask.Sub(bid).Float64()

	s.mu.Lock()
	prev, seen := s.prev[q.Symbol]
	s.prev[q.Symbol] = price
	s.mu.Unlock()

	if seen && !prev.IsZero() {
		change := price.Sub(prev)
		q.Change, _ = change.Round(quoteDecimals).Float64()
		q.ChangePercent, _ = change.Div(prev).Mul(hundred).Round(changeDecimals).Float64()
	}

	s.metrics.RecordLastPrice(q.Symbol, q.Price)
	return q
}
