// Package cache holds the short-lived quote cache that sits in front of the price vendor.
package cache

import (
	"context"
	"sync"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/domain/repository"
	"PriceGate/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQuoteTTL is how long a stored quote, including an error quote, is served.
	DefaultQuoteTTL = 5 * time.Second
	// DefaultAssetListTTL governs the separate asset metadata list cache.
	DefaultAssetListTTL = 5 * time.Minute
	// DefaultBatchParallelism bounds concurrent fetches during a batch refresh.
	DefaultBatchParallelism = 5
)

// State of a symbol in the cache.
type State int

const (
	StateAbsent State = iota
	StateFresh
	StateStale
	StateError
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "absent"
	}
}

// FetchFunc produces a quote for a UI symbol. It reports failure through an
// error-flagged quote rather than an error.
type FetchFunc func(ctx context.Context, symbol string, class models.AssetClass) models.PriceQuote

type quoteEntry struct {
	quote    models.PriceQuote
	storedAt time.Time
}

// QuoteCache serves quotes keyed by UI symbol for one TTL window. Concurrent
// misses for the same symbol each fetch; the last write wins.
type QuoteCache struct {
	fetch       FetchFunc
	ttl         time.Duration
	parallelism int
	now         func() time.Time
	metrics     repository.Metrics

	mu        sync.RWMutex
	entries   map[string]quoteEntry
	lastBatch time.Time
}

// QuoteCacheOption configures QuoteCache.
type QuoteCacheOption func(*QuoteCache)

func WithTTL(ttl time.Duration) QuoteCacheOption {
	return func(c *QuoteCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) QuoteCacheOption {
	return func(c *QuoteCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithParallelism sets how many fetches a batch refresh runs at once.
func WithParallelism(n int) QuoteCacheOption {
	return func(c *QuoteCache) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

func WithMetrics(m repository.Metrics) QuoteCacheOption {
	return func(c *QuoteCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewQuoteCache creates an empty cache backed by fetch.
func NewQuoteCache(fetch FetchFunc, opts ...QuoteCacheOption) *QuoteCache {
	c := &QuoteCache{
		fetch:       fetch,
		ttl:         DefaultQuoteTTL,
		parallelism: DefaultBatchParallelism,
		now:         time.Now,
		metrics:     metrics.Nop{},
		entries:     make(map[string]quoteEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *QuoteCache) TTL() time.Duration {
	return c.ttl
}

// State reports the current state of symbol.
func (c *QuoteCache) State(symbol string) State {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()
	return c.stateOf(e, ok, c.now())
}

func (c *QuoteCache) stateOf(e quoteEntry, ok bool, now time.Time) State {
	switch {
	case !ok:
		return StateAbsent
	case now.Sub(e.storedAt) >= c.ttl:
		return StateStale
	case e.quote.Error:
		return StateError
	default:
		return StateFresh
	}
}

// Get returns the cached quote for symbol while it is within the TTL, error
// quotes included. Absent or stale entries are fetched and overwritten.
func (c *QuoteCache) Get(ctx context.Context, symbol string, class models.AssetClass) models.PriceQuote {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	state := c.stateOf(e, ok, c.now())
	c.metrics.RecordCacheLookup(state.String())
	if state == StateFresh || state == StateError {
		return e.quote
	}
	return c.refresh(ctx, symbol, class)
}

// refresh stores the fetched quote unless the caller's context ended during the
// fetch; a cancelled caller must not leave an error quote for everyone else.
func (c *QuoteCache) refresh(ctx context.Context, symbol string, class models.AssetClass) models.PriceQuote {
	q := c.fetch(ctx, symbol, class)
	if ctx.Err() != nil {
		return q
	}
	c.mu.Lock()
	c.entries[symbol] = quoteEntry{quote: q, storedAt: c.now()}
	c.mu.Unlock()
	return q
}

// GetBatch returns quotes for refs. Within one TTL of the previous batch
// refresh it only reads the cache, so symbols not cached yet are omitted.
// Otherwise every distinct symbol is fetched, DefaultBatchParallelism at a time.
func (c *QuoteCache) GetBatch(ctx context.Context, refs []models.SymbolRef) []models.PriceQuote {
	start := c.now()

	c.mu.RLock()
	recent := !c.lastBatch.IsZero() && start.Sub(c.lastBatch) < c.ttl
	if recent {
		out := make([]models.PriceQuote, 0, len(refs))
		for _, r := range refs {
			e, ok := c.entries[r.Symbol]
			if ok && start.Sub(e.storedAt) < c.ttl {
				out = append(out, e.quote)
			}
		}
		c.mu.RUnlock()
		return out
	}
	c.mu.RUnlock()

	unique := dedupe(refs)
	out := make([]models.PriceQuote, len(unique))
	for lo := 0; lo < len(unique); lo += c.parallelism {
		hi := min(lo+c.parallelism, len(unique))
		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				out[i] = c.refresh(gctx, unique[i].Symbol, unique[i].Class)
				return nil
			})
		}
		_ = g.Wait()
	}

	c.mu.Lock()
	c.lastBatch = start
	c.mu.Unlock()
	return out
}

func dedupe(refs []models.SymbolRef) []models.SymbolRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]models.SymbolRef, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r)
	}
	return out
}
