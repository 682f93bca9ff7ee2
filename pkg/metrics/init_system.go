package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process gauges, refreshed by UpdateSystemMetrics on every scrape.
func (r *Registry) initSystemMetrics() {
	gauge := func(name, help string) prometheus.Gauge {
		return promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      help,
		})
	}

	r.UptimeSeconds = gauge("uptime_seconds", "Seconds since the explorer process started")
	r.GoRoutines = gauge("goroutines", "Live goroutines, including one per open event stream")
	r.MemoryAllocBytes = gauge("memory_alloc_bytes", "Heap bytes in use by the loaded graph and sessions")
	r.MemorySysBytes = gauge("memory_sys_bytes", "Bytes obtained from the OS")
}
