package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsRecorder is an interface for recording HTTP metrics
type MetricsRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	RecordResponseSize(method, path string, size float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// RouteFunc names the route of a request for metric labels. Returning the
// raw path would give every session id its own series.
type RouteFunc func(*http.Request) string

// Metrics creates middleware that tracks HTTP request metrics.
func Metrics(recorder MetricsRecorder, route RouteFunc) Middleware {
	if route == nil {
		route = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			path := route(r)
			recorder.RecordHTTPRequest(r.Method, path, strconv.Itoa(sw.statusCode), time.Since(start))
			recorder.RecordResponseSize(r.Method, path, float64(sw.bytesWritten))
		})
	}
}
