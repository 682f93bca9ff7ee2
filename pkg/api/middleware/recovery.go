package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// PanicRecovery turns a handler panic into a 500 and an ERROR log line
// carrying the stack. http.ErrAbortHandler is re-raised so net/http can
// drop the connection quietly, which streaming handlers rely on.
func PanicRecovery(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				id := GetRequestID(r)
				logger.Error("handler panicked",
					logging.String("method", r.Method),
					logging.Path(r.URL.Path),
					logging.RequestID(id),
					logging.String("panic", fmt.Sprint(v)),
					logging.String("stack", string(debug.Stack())))

				msg := "Internal server error"
				if id != "" {
					msg += " (request " + id + ")"
				}
				http.Error(w, msg, http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
