// Package metrics instruments the retrieval core with Prometheus
// collectors, grounded on the pack's metrics package conventions: a
// private registry, namespace/subsystem-tagged collectors, and a
// promhttp handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the search, rerank, embedding and build collectors. The
// build pipeline emits to the embedding and build collectors; the engine
// does not call ObserveSearch or ObserveRerank.
type Metrics struct {
	registry *prometheus.Registry

	searchRequestsTotal  *prometheus.CounterVec
	searchDuration       *prometheus.HistogramVec
	candidatePoolSize    prometheus.Histogram
	rerankDuration       prometheus.Histogram
	embeddingCallsTotal  *prometheus.CounterVec
	embeddingDuration    prometheus.Histogram

	buildDuration    prometheus.Histogram
	buildRecordsTotal *prometheus.CounterVec
	buildsTotal      *prometheus.CounterVec
	generationGauge  prometheus.Gauge
}

// New builds a Metrics instance with its own private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	searchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundlens",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total Search calls by outcome.",
		},
		[]string{"outcome"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundlens",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	candidatePoolSize := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fundlens",
			Subsystem: "search",
			Name:      "candidate_pool_size",
			Help:      "Size of the candidate pool handed to the reranker.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 400, 800},
		},
	)
	rerankDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fundlens",
			Subsystem: "search",
			Name:      "rerank_duration_seconds",
			Help:      "Time spent scoring the candidate pool.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	embeddingCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundlens",
			Subsystem: "embedding",
			Name:      "calls_total",
			Help:      "Total embedding provider calls by outcome.",
		},
		[]string{"outcome"},
	)
	embeddingDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fundlens",
			Subsystem: "embedding",
			Name:      "duration_seconds",
			Help:      "Embedding provider call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	buildDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fundlens",
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Index build duration in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)
	buildRecordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundlens",
			Subsystem: "build",
			Name:      "records_total",
			Help:      "Total corpus rows processed by outcome.",
		},
		[]string{"outcome"},
	)
	buildsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundlens",
			Subsystem: "build",
			Name:      "runs_total",
			Help:      "Total build runs by outcome.",
		},
		[]string{"outcome"},
	)
	generationGauge := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundlens",
			Subsystem: "build",
			Name:      "current_generation_timestamp",
			Help:      "Unix timestamp of the currently loaded generation.",
		},
	)

	registry.MustRegister(
		searchRequestsTotal,
		searchDuration,
		candidatePoolSize,
		rerankDuration,
		embeddingCallsTotal,
		embeddingDuration,
		buildDuration,
		buildRecordsTotal,
		buildsTotal,
		generationGauge,
	)

	return &Metrics{
		registry:             registry,
		searchRequestsTotal:  searchRequestsTotal,
		searchDuration:       searchDuration,
		candidatePoolSize:    candidatePoolSize,
		rerankDuration:       rerankDuration,
		embeddingCallsTotal:  embeddingCallsTotal,
		embeddingDuration:    embeddingDuration,
		buildDuration:        buildDuration,
		buildRecordsTotal:    buildRecordsTotal,
		buildsTotal:          buildsTotal,
		generationGauge:      generationGauge,
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one completed Search call.
func (m *Metrics) ObserveSearch(outcome string, duration time.Duration, poolSize int) {
	m.searchRequestsTotal.WithLabelValues(outcome).Inc()
	m.searchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.candidatePoolSize.Observe(float64(poolSize))
}

// ObserveRerank records the time spent scoring one candidate pool.
func (m *Metrics) ObserveRerank(duration time.Duration) {
	m.rerankDuration.Observe(duration.Seconds())
}

// ObserveEmbeddingCall records one embedding provider round trip.
func (m *Metrics) ObserveEmbeddingCall(outcome string, duration time.Duration) {
	m.embeddingCallsTotal.WithLabelValues(outcome).Inc()
	m.embeddingDuration.Observe(duration.Seconds())
}

// ObserveBuild records one completed index build.
func (m *Metrics) ObserveBuild(outcome string, duration time.Duration, accepted, rejected int, generationTimestamp int64) {
	m.buildsTotal.WithLabelValues(outcome).Inc()
	m.buildDuration.Observe(duration.Seconds())
	m.buildRecordsTotal.WithLabelValues("accepted").Add(float64(accepted))
	m.buildRecordsTotal.WithLabelValues("rejected").Add(float64(rejected))
	if outcome == "success" {
		m.generationGauge.Set(float64(generationTimestamp))
	}
}
