package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraping pipeline.
type Metrics struct {
	Registry        *prometheus.Registry
	AttemptsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	ProductsTotal   prometheus.Counter
	BlockedTotal    prometheus.Counter
	EmptyPagesTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetch_attempts_total",
			Help: "Total fetch attempts issued against the target host.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetch_errors_total",
			Help: "Total fetch failures by error category.",
		},
		[]string{"category"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "End-to-end fetch latency including retries and backoff.",
			Buckets: prometheus.DefBuckets,
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_products_extracted_total",
			Help: "Total number of product records extracted.",
		},
	)
	blocked := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_blocked_pages_total",
			Help: "Total pages rejected as captcha or access-denied responses.",
		},
	)
	emptyPages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_empty_pages_total",
			Help: "Total pages where no candidate selector matched anything.",
		},
	)

	registry.MustRegister(attempts, errorsTotal, fetchDuration, products, blocked, emptyPages)

	return &Metrics{
		Registry:        registry,
		AttemptsTotal:   attempts,
		ErrorsTotal:     errorsTotal,
		FetchDuration:   fetchDuration,
		ProductsTotal:   products,
		BlockedTotal:    blocked,
		EmptyPagesTotal: emptyPages,
	}
}

// IncAttempt increments the attempts counter for an outcome label.
func (m *Metrics) IncAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the errors counter for a category label.
func (m *Metrics) IncError(category string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(category).Inc()
}

// ObserveFetchDuration records one fetch's total duration.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddProducts adds n to the extracted-products counter.
func (m *Metrics) AddProducts(n int) {
	if m == nil {
		return
	}
	m.ProductsTotal.Add(float64(n))
}

// IncBlocked increments the blocked-pages counter.
func (m *Metrics) IncBlocked() {
	if m == nil {
		return
	}
	m.BlockedTotal.Inc()
}

// IncEmptyPage increments the empty-pages counter.
func (m *Metrics) IncEmptyPage() {
	if m == nil {
		return
	}
	m.EmptyPagesTotal.Inc()
}
