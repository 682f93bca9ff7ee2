package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the loaded graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_edges",
			Help:      "Edges in the loaded graph",
		},
	)

	r.GraphDanglingEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_dangling_edges",
			Help:      "Edges referencing a node missing from the payload",
		},
	)

	r.GraphDuplicateNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_duplicate_nodes",
			Help:      "Node records dropped because their id was already loaded",
		},
	)

	r.SourceLoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_loads_total",
			Help:      "Graph payload loads by source scheme and status",
		},
		[]string{"scheme", "status"},
	)

	r.SourceLoadDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "source_load_duration_seconds",
			Help:      "Time to load and decode a graph payload",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"scheme"},
	)

	r.GraphReloadTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_loaded_timestamp_seconds",
			Help:      "Unix time of the last successful graph load",
		},
	)
}

func (r *Registry) initResolverMetrics() {
	r.ResolvesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resolves_total",
			Help:      "Visibility resolutions performed",
		},
	)

	r.ResolveDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent resolving visibility",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	r.FocusRounds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "focus_rounds",
			Help:      "Containment rounds that added nodes during framework focus",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		},
	)

	r.SearchMatches = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_matches",
			Help:      "Nodes matched per search query",
			Buckets:   []float64{0, 1, 5, 10, 30, 100, 1000},
		},
	)

	r.InteractionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "interactions_total",
			Help:      "Interaction transitions by kind",
		},
		[]string{"kind"},
	)

	r.NavigationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "navigations_total",
			Help:      "Navigate-to-node requests by origin and outcome",
		},
		[]string{"origin", "status"},
	)
}
