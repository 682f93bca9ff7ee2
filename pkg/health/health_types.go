package health

import (
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses from best to worst
func (s Status) rank() int {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	default:
		return 0
	}
}

// Probe selects the endpoints a check runs for. A check may serve several.
type Probe uint8

const (
	// ProbeStatus is the full /health report
	ProbeStatus Probe = 1 << iota
	// ProbeReady gates traffic: no graph, no traffic
	ProbeReady
	// ProbeLive only fails when the process must be restarted
	ProbeLive
)

// Check is the result of one component check
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ns"`
}

// CheckFunc performs a check
type CheckFunc func() Check

type registration struct {
	name   string
	probes Probe
	fn     CheckFunc
}

// HealthChecker runs the registered checks for a probe
type HealthChecker struct {
	mu        sync.RWMutex
	checks    []registration
	version   string
	startTime time.Time
}

// Response is the body of every health endpoint
type Response struct {
	Status    Status           `json:"status"`
	Version   string           `json:"version,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    time.Duration    `json:"uptime_ns"`
}

// GraphState describes the loaded graph snapshot
type GraphState struct {
	Nodes    int
	Edges    int
	Dangling int
	Version  uint64
	LoadedAt time.Time
}
