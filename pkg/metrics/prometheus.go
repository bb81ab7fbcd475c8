package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pricegate"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	vendorRequests *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	pricesUpserted prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder whose collectors are registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		vendorRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vendor_requests_total",
				Help:      "Price vendor requests by operation and result",
			},
			[]string{"operation", "result"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_cache_lookups_total",
				Help:      "Quote cache lookups by entry state",
			},
			[]string{"state"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		pricesUpserted: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prices_upserted_total",
				Help:      "Rows written to the latest-price table",
			},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// RecordVendorRequest counts a call to the price vendor.
func (r *Recorder) RecordVendorRequest(op, result string) {
	r.vendorRequests.WithLabelValues(op, result).Inc()
}

// RecordCacheLookup counts a quote cache lookup by the state it found.
func (r *Recorder) RecordCacheLookup(state string) {
	r.cacheLookups.WithLabelValues(state).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordPricesUpserted(n int) {
	r.pricesUpserted.Add(float64(n))
}

// RecordHTTPRequest records one served request.
func (r *Recorder) RecordHTTPRequest(route, method string, status int, seconds float64) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordVendorRequest(string, string)             {}
func (Nop) RecordCacheLookup(string)                       {}
func (Nop) RecordLastPrice(string, float64)                {}
func (Nop) RecordLatency(string, float64)                  {}
func (Nop) RecordPricesUpserted(int)                       {}
func (Nop) RecordHTTPRequest(string, string, int, float64) {}
