// Package metrics defines the Prometheus metric collectors used across the
// indexing pipeline and search service, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the search engine.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocsSegmentedTotal   *prometheus.CounterVec
	PostingEventsTotal   prometheus.Counter
	BatchFlushesTotal    *prometheus.CounterVec
	BatchFlushSize       prometheus.Histogram
	BatchBufferLen       prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	SearchResultsCount   prometheus.Histogram
	StatsRefreshTotal    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocsSegmentedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segment_documents_total",
				Help: "Documents processed by the segmentation workers, by status (ok, error).",
			},
			[]string{"status"},
		),
		PostingEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posting_events_emitted_total",
				Help: "Posting events emitted onto the message channel.",
			},
		),
		BatchFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_batch_flushes_total",
				Help: "Posting batch flushes to the index store, by status (ok, empty, error).",
			},
			[]string{"status"},
		),
		BatchFlushSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_batch_flush_size",
				Help:    "Number of posting events per flushed batch.",
				Buckets: []float64{1, 5, 10, 25, 50},
			},
		),
		BatchBufferLen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_batch_buffer_length",
				Help: "Posting events currently buffered awaiting flush.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, empty, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		StatsRefreshTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_stats_refresh_total",
				Help: "Explicit corpus statistics cache invalidations.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocsSegmentedTotal,
		m.PostingEventsTotal,
		m.BatchFlushesTotal,
		m.BatchFlushSize,
		m.BatchBufferLen,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.StatsRefreshTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
