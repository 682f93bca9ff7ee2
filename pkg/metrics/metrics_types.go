package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "grc_explorer"

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec
	RateLimitedTotal      prometheus.Counter
	AuthFailuresTotal     prometheus.Counter

	// Graph Metrics
	GraphNodesTotal      prometheus.Gauge
	GraphEdgesTotal      prometheus.Gauge
	GraphDanglingEdges   prometheus.Gauge
	GraphDuplicateNodes  prometheus.Gauge
	SourceLoadsTotal     *prometheus.CounterVec
	SourceLoadDuration   *prometheus.HistogramVec
	GraphReloadTimestamp prometheus.Gauge

	// Resolver Metrics
	ResolvesTotal     prometheus.Counter
	ResolveDuration   prometheus.Histogram
	FocusRounds       prometheus.Histogram
	SearchMatches     prometheus.Histogram
	InteractionsTotal *prometheus.CounterVec
	NavigationsTotal  *prometheus.CounterVec

	// Session Metrics
	SessionsActive     prometheus.Gauge
	SessionsCreated    prometheus.Counter
	SessionsExpired    prometheus.Counter
	SessionEventsTotal *prometheus.CounterVec
	EventStreamsActive prometheus.Gauge
	BusDroppedMessages prometheus.Gauge

	// Chat Metrics
	ChatStreamsTotal   *prometheus.CounterVec
	ChatStreamDuration *prometheus.HistogramVec
	ChatDeltasTotal    *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	r.initHTTPMetrics()
	r.initGraphMetrics()
	r.initResolverMetrics()
	r.initSessionMetrics()
	r.initChatMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
