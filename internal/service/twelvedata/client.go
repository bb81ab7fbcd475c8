// Package twelvedata is the Twelve Data price vendor client.
package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/domain/repository"
	"PriceGate/internal/service/ratelimit"
	"PriceGate/internal/service/symbol"
	xhttp "PriceGate/pkg/http"
	"PriceGate/pkg/logger"
	"PriceGate/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.twelvedata.com"

	// BatchLimit is the most symbols the vendor accepts in one request.
	BatchLimit = 8

	limiterKey = "twelvedata"
)

var (
	ErrNotConfigured = errors.New("twelvedata: api key not configured")
	ErrRateLimited   = errors.New("twelvedata: rate limit exceeded")
)

var _ repository.PriceVendor = (*Client)(nil)

// Client fetches prices from the vendor. It never retries.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client

	limiter  *ratelimit.Limiter
	capacity float64
	refill   float64

	log     *logger.Logger
	metrics repository.Metrics
	now     func() time.Time
}

// Option configures Client.
type Option func(*Client)

// New creates a vendor client. An empty apiKey leaves the client unconfigured.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		log:     logger.Nop(),
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	return c
}

// WithBaseURL overrides the vendor base URL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for vendor calls.
func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps vendor calls at perMinute using l. Zero disables it.
func WithRateLimit(l *ratelimit.Limiter, perMinute int) Option {
	return func(c *Client) {
		c.limiter = l
		c.capacity, c.refill = ratelimit.PerMinute(perMinute)
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock overrides time.Now for quote timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// FetchPrice returns the current price for a UI symbol. Any failure is logged
// and reported as an error-flagged quote.
func (c *Client) FetchPrice(ctx context.Context, sym string, class models.AssetClass) models.PriceQuote {
	vendorSymbol := symbol.Map(sym, class)
	start := time.Now()

	price, err := c.fetchSingle(ctx, vendorSymbol)
	c.metrics.RecordLatency("vendor_price", time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordVendorRequest("price", "error")
		c.log.Warn("twelvedata: price fetch failed",
			logger.String("symbol", sym),
			logger.String("vendor_symbol", vendorSymbol),
			logger.Error(err),
		)
		return models.ErrorQuote(sym, c.now())
	}

	c.metrics.RecordVendorRequest("price", "ok")
	return models.PriceQuote{Symbol: sym, Price: price, Timestamp: c.now()}
}

func (c *Client) fetchSingle(ctx context.Context, vendorSymbol string) (float64, error) {
	body, err := c.get(ctx, []string{vendorSymbol})
	if err != nil {
		return 0, err
	}
	return decodeSingle(body, vendorSymbol)
}

// FetchBatch prices assets in groups of BatchLimit, one request per group,
// groups one after another. A failed group is logged and skipped; symbols the
// vendor did not price are dropped.
func (c *Client) FetchBatch(ctx context.Context, assets []models.Asset) []models.PriceUpdate {
	groups := Partition(assets, BatchLimit)
	out := make([]models.PriceUpdate, 0, len(assets))

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			c.log.Warn("twelvedata: batch cancelled",
				logger.Int("group", i+1),
				logger.Int("groups", len(groups)),
				logger.Error(err),
			)
			break
		}

		start := time.Now()
		updates, err := c.fetchGroup(ctx, group)
		c.metrics.RecordLatency("vendor_batch", time.Since(start).Seconds())
		if err != nil {
			c.metrics.RecordVendorRequest("batch", "error")
			c.log.Error("twelvedata: batch group failed",
				logger.Int("group", i+1),
				logger.Int("groups", len(groups)),
				logger.Int("symbols", len(group)),
				logger.Error(err),
			)
			continue
		}
		c.metrics.RecordVendorRequest("batch", "ok")
		out = append(out, updates...)
	}
	return out
}

func (c *Client) fetchGroup(ctx context.Context, group []models.Asset) ([]models.PriceUpdate, error) {
	refs := make([]models.SymbolRef, len(group))
	for i, a := range group {
		refs[i] = a.Ref()
	}
	vendorSymbols := symbol.MapAll(refs)

	body, err := c.get(ctx, vendorSymbols)
	if err != nil {
		return nil, err
	}
	prices, err := decodeBatch(body, vendorSymbols)
	if err != nil {
		return nil, err
	}

	now := c.now()
	updates := make([]models.PriceUpdate, 0, len(group))
	for i, a := range group {
		price, ok := prices[vendorSymbols[i]]
		if !ok {
			c.log.Debug("twelvedata: symbol missing from batch response",
				logger.String("symbol", a.Symbol),
				logger.String("vendor_symbol", vendorSymbols[i]),
			)
			continue
		}
		updates = append(updates, models.PriceUpdate{
			Symbol:       a.Symbol,
			VendorSymbol: vendorSymbols[i],
			Price:        price,
			UpdatedAt:    now,
		})
	}
	return updates, nil
}

func (c *Client) get(ctx context.Context, vendorSymbols []string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if c.limiter != nil && !c.limiter.Allow(limiterKey, c.capacity, c.refill) {
		return nil, ErrRateLimited
	}

	query := url.Values{}
	query.Set("symbol", strings.Join(vendorSymbols, ","))
	query.Set("apikey", c.apiKey)

	body, err := c.http.GetBytes(ctx, c.baseURL+"/price", query)
	if err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}
	return body, nil
}

// Partition splits assets into consecutive groups of at most size.
func Partition(assets []models.Asset, size int) [][]models.Asset {
	if size <= 0 || len(assets) == 0 {
		return nil
	}
	groups := make([][]models.Asset, 0, (len(assets)+size-1)/size)
	for start := 0; start < len(assets); start += size {
		end := min(start+size, len(assets))
		groups = append(groups, assets[start:end])
	}
	return groups
}
