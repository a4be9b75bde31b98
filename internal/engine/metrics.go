package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the engine's tick loop (C12), in the same promauto style
// as internal/realtime.Metrics.
type Metrics struct {
	TickDuration    prometheus.Histogram
	RetriesExhausted prometheus.Counter
	PollErrors      *prometheus.CounterVec
	TargetsPending  prometheus.Gauge
}

// NewMetrics registers and returns a Metrics instance under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one full engine tick, including all retry iterations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		RetriesExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "retries_exhausted_total",
			Help:      "Total number of ticks where targets remained unresolved after the retry budget ran out.",
		}),
		PollErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "poll_errors_total",
			Help:      "Total number of poll errors, by poller mode.",
		}, []string{"mode"}),
		TargetsPending: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "targets_pending",
			Help:      "Number of targets still unresolved within the current tick.",
		}),
	}
}
