package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the broadcaster's runtime behavior: active subscriber
// count, events published and dropped, and broadcast latency.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	EventsPublished   prometheus.Counter
	EventsDropped     prometheus.Counter
	BroadcastDuration prometheus.Histogram
}

// NewMetrics registers and returns a Metrics instance under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections_active",
			Help:      "Current number of connected WebSocket subscribers.",
		}),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_published_total",
			Help:      "Total number of DocUpdate events published to the broadcaster.",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Total number of queued events dropped because a subscriber fell behind.",
		}),
		BroadcastDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "broadcast_duration_seconds",
			Help:      "Duration of one Publish fan-out across all subscribers.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),
	}
}
