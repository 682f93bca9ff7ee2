package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initChatMetrics() {
	r.ChatStreamsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chat_streams_total",
			Help:      "Assistant chat streams by provider and status",
		},
		[]string{"provider", "status"},
	)

	r.ChatStreamDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "chat_stream_duration_seconds",
			Help:      "Duration of assistant chat streams",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	r.ChatDeltasTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chat_deltas_total",
			Help:      "Text deltas streamed to chat clients",
		},
		[]string{"provider"},
	)
}
