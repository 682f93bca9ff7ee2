package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSessionMetrics() {
	r.SessionsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sessions_active",
			Help:      "Explorer sessions currently held in memory",
		},
	)

	r.SessionsCreated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_created_total",
			Help:      "Explorer sessions created",
		},
	)

	r.SessionsExpired = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_expired_total",
			Help:      "Explorer sessions evicted after the idle timeout",
		},
	)

	r.SessionEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_events_total",
			Help:      "Render directives published to session subscribers",
		},
		[]string{"kind"},
	)

	r.EventStreamsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "event_streams_active",
			Help:      "Open server-sent event streams",
		},
	)

	r.BusDroppedMessages = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "bus_dropped_messages",
			Help:      "Messages skipped because a subscriber buffer was full",
		},
	)
}
