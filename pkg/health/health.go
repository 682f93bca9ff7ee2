// Package health reports whether the explorer has a graph loaded and its
// collaborators are reachable.
package health

import (
	"time"
)

// NewHealthChecker creates a checker reporting version
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version, startTime: time.Now()}
}

// Register adds a check to every probe in probes. Registering a name again
// replaces the earlier check.
func (hc *HealthChecker) Register(name string, probes Probe, fn CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for i := range hc.checks {
		if hc.checks[i].name == name {
			hc.checks[i] = registration{name: name, probes: probes, fn: fn}
			return
		}
	}
	hc.checks = append(hc.checks, registration{name: name, probes: probes, fn: fn})
}

// Run performs the checks registered for probe. The worst status wins.
func (hc *HealthChecker) Run(probe Probe) Response {
	hc.mu.RLock()
	selected := make([]registration, 0, len(hc.checks))
	for _, c := range hc.checks {
		if c.probes&probe != 0 {
			selected = append(selected, c)
		}
	}
	hc.mu.RUnlock()

	resp := Response{
		Status:    StatusHealthy,
		Version:   hc.version,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(selected)),
		Uptime:    time.Since(hc.startTime),
	}
	for _, c := range selected {
		start := time.Now()
		check := c.fn()
		if check.Name == "" {
			check.Name = c.name
		}
		check.LastChecked = start
		check.Duration = time.Since(start)
		resp.Checks[c.name] = check

		if check.Status.rank() > resp.Status.rank() {
			resp.Status = check.Status
		}
	}
	return resp
}
