package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// Logging creates middleware that logs HTTP requests with timing information.
// Server errors log at WARN, everything else at DEBUG.
func Logging(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", sw.statusCode),
				logging.Int("bytes", sw.bytesWritten),
				logging.Latency(time.Since(start)),
			}
			if id := GetRequestID(r); id != "" {
				fields = append(fields, logging.RequestID(id))
			}
			if sw.statusCode >= http.StatusInternalServerError {
				logger.Warn("request failed", fields...)
				return
			}
			logger.Debug("request", fields...)
		})
	}
}
