package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalysisLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stocklens",
			Subsystem: "analysis",
			Name:      "latency_seconds",
			Help:      "Latency of analysis pipeline runs",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	AnalysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stocklens",
			Subsystem: "analysis",
			Name:      "errors_total",
			Help:      "Failed analysis runs by operation and failure kind",
		},
		[]string{"operation", "kind"},
	)
)

// Register adds the analysis collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalysisLatency, AnalysisErrors)
	})
}
