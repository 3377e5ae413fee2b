package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMETHEUS METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics holds the Prometheus collectors for the HTTP layer and the
// matching pipeline behind it.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	matchingRounds    prometheus.Counter
	matchesReturned   prometheus.Histogram
	candidatesSeen    prometheus.Histogram
	skippedCandidates prometheus.Counter
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomad_hub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nomad_hub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		matchingRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nomad_hub",
			Subsystem: "matching",
			Name:      "rounds_total",
			Help:      "Total matching rounds executed.",
		}),
		matchesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nomad_hub",
			Subsystem: "matching",
			Name:      "matches_returned",
			Help:      "Matches returned per round.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		candidatesSeen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nomad_hub",
			Subsystem: "matching",
			Name:      "candidates_scored",
			Help:      "Candidates scored per round.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		skippedCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nomad_hub",
			Subsystem: "matching",
			Name:      "candidates_skipped_total",
			Help:      "Candidates dropped for invalid data.",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.matchingRounds,
		m.matchesReturned,
		m.candidatesSeen,
		m.skippedCandidates,
	)

	return m
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveMatchingRound records the shape of one matching round.
func (m *Metrics) ObserveMatchingRound(candidates, matches, skipped int) {
	m.matchingRounds.Inc()
	m.candidatesSeen.Observe(float64(candidates))
	m.matchesReturned.Observe(float64(matches))
	m.skippedCandidates.Add(float64(skipped))
}
