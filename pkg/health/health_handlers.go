package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the checks of probe. Degraded answers 200 only when
// degradedOK is set; unhealthy always answers 503.
func (hc *HealthChecker) Handler(probe Probe, degradedOK bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := hc.Run(probe)

		code := http.StatusOK
		switch {
		case resp.Status == StatusUnhealthy:
			code = http.StatusServiceUnavailable
		case resp.Status == StatusDegraded && !degradedOK:
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
}
