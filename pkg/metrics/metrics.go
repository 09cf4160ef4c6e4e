// Package metrics defines the Prometheus collectors for query evaluation,
// the corpus, the result cache and the HTTP layer, and exposes a handler
// for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes used as the result label of QueriesTotal.
const (
	ResultMatched = "matched"
	ResultEmpty   = "zero_result"
	ResultInvalid = "invalid"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryMatches         prometheus.Histogram
	TermCandidates       prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CorpusDocuments      prometheus.Gauge
	CorpusWords          prometheus.Gauge
	IndexKeys            prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
	EventsPublished      *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. Tests pass a
// fresh prometheus.NewRegistry(); services pass prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wosp_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wosp_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wosp_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wosp_queries_total",
				Help: "Queries by outcome (matched, zero_result, invalid, error, timeout).",
			},
			[]string{"result"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wosp_query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"cache_status"},
		),
		QueryMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wosp_query_matches",
				Help:    "Number of matches produced per query.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
			},
		),
		TermCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wosp_term_candidates",
				Help:    "Candidate spellings generated while expanding the terms of a query.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wosp_cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wosp_cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		CorpusDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wosp_corpus_documents",
				Help: "Number of documents (fields) loaded.",
			},
		),
		CorpusWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wosp_corpus_words",
				Help: "Number of words loaded.",
			},
		),
		IndexKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wosp_index_keys",
				Help: "Number of distinct reduced words in the trie.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wosp_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wosp_analytics_events_total",
				Help: "Query analytics events by delivery status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryMatches,
		m.TermCandidates,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CorpusDocuments,
		m.CorpusWords,
		m.IndexKeys,
		m.CircuitBreakerState,
		m.EventsPublished,
	)

	return m
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
