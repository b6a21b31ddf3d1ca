package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry so tests and multiple servers
// in one process never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchResults  prometheus.Histogram
	searchDuration prometheus.Histogram
	coachRequests  *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	records        prometheus.Gauge
}

// NewMetrics registers the supplements collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplements",
			Name:      "search_requests_total",
			Help:      "Search requests by sort mode and evidence filter.",
		}, []string{"sort", "evidence"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supplements",
			Name:      "search_results",
			Help:      "Number of records returned per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supplements",
			Name:      "search_duration_seconds",
			Help:      "Time spent ranking a query.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		coachRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplements",
			Name:      "coach_requests_total",
			Help:      "Coaching text requests by outcome (ok or failure reason).",
		}, []string{"outcome"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplements",
			Name:      "dataset_reloads_total",
			Help:      "Dataset reload attempts by result.",
		}, []string{"result"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "supplements",
			Name:      "dataset_records",
			Help:      "Records in the currently served dataset.",
		}),
	}

	reg.MustRegister(m.searches, m.searchResults, m.searchDuration, m.coachRequests, m.reloads, m.records)
	return m
}

// ObserveSearch records one ranking invocation.
func (m *Metrics) ObserveSearch(sort, evidence string, results int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(sort, evidence).Inc()
	m.searchResults.Observe(float64(results))
	m.searchDuration.Observe(elapsed.Seconds())
}

// ObserveCoach records one coaching outcome.
func (m *Metrics) ObserveCoach(outcome string) {
	if m == nil {
		return
	}
	m.coachRequests.WithLabelValues(outcome).Inc()
}

// SetRecords records the size of the served dataset.
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.records.Set(float64(n))
}

// ObserveReload records one dataset reload attempt ("ok" or "error").
func (m *Metrics) ObserveReload(result string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
