package health

import (
	"context"
	"time"
)

// GraphCheck reports on the loaded graph. No snapshot is unhealthy; an empty
// graph is degraded.
func GraphCheck(state func() (GraphState, bool)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "graph",
			Details: make(map[string]any),
		}

		s, ok := state()
		if !ok {
			check.Status = StatusUnhealthy
			check.Message = "No graph loaded"
			return check
		}

		check.Details["nodes"] = s.Nodes
		check.Details["edges"] = s.Edges
		check.Details["dangling_edges"] = s.Dangling
		check.Details["version"] = s.Version
		check.Details["loaded_at"] = s.LoadedAt

		if s.Nodes == 0 {
			check.Status = StatusDegraded
			check.Message = "Graph is empty"
		} else {
			check.Status = StatusHealthy
			check.Message = "Graph loaded"
		}
		return check
	}
}

// PingCheck creates a health check for a remote dependency such as the graph
// source database
func PingCheck(name string, timeout time.Duration, ping func(context.Context) error) CheckFunc {
	return func() Check {
		check := Check{Name: name}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}
		return check
	}
}

// CapacityCheck reports how full a bounded resource is. Above 90% it is
// degraded; at the limit it is unhealthy.
func CapacityCheck(name string, used func() int, limit int) CheckFunc {
	return func() Check {
		check := Check{
			Name:    name,
			Details: make(map[string]any),
		}

		n := used()
		check.Details["used"] = n
		check.Details["limit"] = limit

		if limit <= 0 {
			check.Status = StatusHealthy
			check.Message = "Unbounded"
			return check
		}

		usagePercent := float64(n) / float64(limit) * 100
		check.Details["usage_percent"] = usagePercent

		switch {
		case n >= limit:
			check.Status = StatusUnhealthy
			check.Message = "At capacity"
		case usagePercent > 90:
			check.Status = StatusDegraded
			check.Message = "Near capacity"
		default:
			check.Status = StatusHealthy
			check.Message = "Capacity available"
		}
		return check
	}
}

// MemoryCheck reports heap usage against memory obtained from the OS
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys)*100 > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
