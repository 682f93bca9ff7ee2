// Package middleware provides HTTP middleware components for the explorer API.
//
// The middleware package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - logging.go: Request logging middleware
//   - cors.go: Cross-Origin Resource Sharing (CORS) middleware
//   - security_headers.go: Security headers middleware
//   - body_limit.go: Request body size limiting middleware
//   - request_id.go: Request ID generation and tracking middleware
//   - ratelimit.go: Per-client rate limiting middleware
//   - auth.go: Bearer token authentication middleware
//   - metrics.go: HTTP metrics collection middleware
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
// and is composed with Chain:
//
//	handler := middleware.Chain(mux,
//		middleware.PanicRecovery(logger),
//		middleware.RequestID(),
//		middleware.Logging(logger),
//		middleware.CORS(middleware.DefaultCORSConfig()),
//	)
package middleware

import "net/http"

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
