package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks the start of a request
func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight marks the end of a request
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordGraph publishes the size of a freshly loaded graph
func (r *Registry) RecordGraph(nodes, edges, dangling, duplicates int) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
	r.GraphDanglingEdges.Set(float64(dangling))
	r.GraphDuplicateNodes.Set(float64(duplicates))
	r.GraphReloadTimestamp.SetToCurrentTime()
}

// RecordSourceLoad records a payload load attempt
func (r *Registry) RecordSourceLoad(scheme string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.SourceLoadsTotal.WithLabelValues(scheme, status).Inc()
	r.SourceLoadDuration.WithLabelValues(scheme).Observe(duration.Seconds())
}

// RecordResolve records one visibility resolution
func (r *Registry) RecordResolve(duration time.Duration, focusRounds int, focused bool) {
	r.ResolvesTotal.Inc()
	r.ResolveDuration.Observe(duration.Seconds())
	if focused {
		r.FocusRounds.Observe(float64(focusRounds))
	}
}

// RecordInteraction counts a selection or search transition
func (r *Registry) RecordInteraction(kind string) {
	r.InteractionsTotal.WithLabelValues(kind).Inc()
}

// RecordSearch records the size of a search match set
func (r *Registry) RecordSearch(matches int) {
	r.InteractionsTotal.WithLabelValues("search").Inc()
	r.SearchMatches.Observe(float64(matches))
}

// RecordNavigation records a navigate-to-node request
func (r *Registry) RecordNavigation(origin string, ok bool) {
	r.NavigationsTotal.WithLabelValues(origin, strconv.FormatBool(ok)).Inc()
}

// RecordChatStream records a finished assistant stream
func (r *Registry) RecordChatStream(provider string, err error, deltas int, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.ChatStreamsTotal.WithLabelValues(provider, status).Inc()
	r.ChatStreamDuration.WithLabelValues(provider).Observe(duration.Seconds())
	r.ChatDeltasTotal.WithLabelValues(provider).Add(float64(deltas))
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// Handler serves the registry in the Prometheus exposition format. System
// gauges are refreshed on every scrape.
func (r *Registry) Handler() http.Handler {
	inner := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.UpdateSystemMetrics()
		inner.ServeHTTP(w, req)
	})
}
