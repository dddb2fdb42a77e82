package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	cacheTotal   *prometheus.CounterVec
	anomalies    *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// New registers the recorder's collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_price_fetch_total",
				Help: "Price source fetches by result",
			},
			[]string{"source", "result"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocklens_price_fetch_duration_seconds",
				Help:    "Duration of price source fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		cacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_bar_cache_requests_total",
				Help: "Bar cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		anomalies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocklens_anomalies_flagged_total",
				Help: "Anomalies flagged per detector",
			},
			[]string{"detector"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocklens_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}
}

// RecordFetch records one fetch attempt against a price source.
func (r *Recorder) RecordFetch(source string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchTotal.WithLabelValues(source, result).Inc()
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordCache records a bar cache hit or miss.
func (r *Recorder) RecordCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheTotal.WithLabelValues(outcome).Inc()
}

// RecordAnomalies adds n flagged points for a detector.
func (r *Recorder) RecordAnomalies(kind string, n int) {
	if n <= 0 {
		return
	}
	r.anomalies.WithLabelValues(kind).Add(float64(n))
}

// RecordBreakerState records the current breaker state.
func (r *Recorder) RecordBreakerState(name string, state int) {
	r.breakerState.WithLabelValues(name).Set(float64(state))
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordFetch(string, float64, error) {}
func (Noop) RecordCache(bool)                   {}
func (Noop) RecordAnomalies(string, int)        {}
func (Noop) RecordBreakerState(string, int)     {}
