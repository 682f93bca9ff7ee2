package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker("1.2.3")

	resp := hc.Run(ProbeStatus)
	if resp.Status != StatusHealthy {
		t.Errorf("no checks = %s, want healthy", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q", resp.Version)
	}
	if hc.startTime.IsZero() {
		t.Error("start time not set")
	}
}

func TestRegisterDefaultsName(t *testing.T) {
	hc := NewHealthChecker("")

	called := false
	hc.Register("test", ProbeStatus, func() Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	resp := hc.Run(ProbeStatus)
	if !called {
		t.Error("registered check was not called")
	}
	check, exists := resp.Checks["test"]
	if !exists {
		t.Fatal("check result not in response")
	}
	if check.Name != "test" {
		t.Errorf("check name defaults to its key, got %q", check.Name)
	}
}

func TestRegisterReplaces(t *testing.T) {
	hc := NewHealthChecker("")
	hc.Register("graph", ProbeStatus, func() Check { return Check{Status: StatusUnhealthy} })
	hc.Register("graph", ProbeStatus, func() Check { return Check{Status: StatusHealthy} })

	resp := hc.Run(ProbeStatus)
	if len(resp.Checks) != 1 || resp.Status != StatusHealthy {
		t.Errorf("replaced check = %+v", resp)
	}
}

func TestProbesSelectChecks(t *testing.T) {
	hc := NewHealthChecker("")

	var ran []string
	record := func(name string) CheckFunc {
		return func() Check { ran = append(ran, name); return Check{Status: StatusHealthy} }
	}
	hc.Register("graph", ProbeStatus|ProbeReady, record("graph"))
	hc.Register("memory", ProbeStatus|ProbeLive, record("memory"))
	hc.Register("sessions", ProbeStatus, record("sessions"))

	tests := []struct {
		probe Probe
		want  []string
	}{
		{ProbeStatus, []string{"graph", "memory", "sessions"}},
		{ProbeReady, []string{"graph"}},
		{ProbeLive, []string{"memory"}},
	}
	for _, tt := range tests {
		ran = nil
		hc.Run(tt.probe)
		if len(ran) != len(tt.want) {
			t.Fatalf("probe %d ran %v, want %v", tt.probe, ran, tt.want)
		}
		for i := range ran {
			if ran[i] != tt.want[i] {
				t.Errorf("probe %d ran %v, want %v", tt.probe, ran, tt.want)
			}
		}
	}
}

func TestWorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("")
			for i, s := range tt.statuses {
				status := s
				hc.Register(string(rune('a'+i)), ProbeStatus, func() Check { return Check{Status: status} })
			}
			if got := hc.Run(ProbeStatus).Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGraphCheck(t *testing.T) {
	missing := GraphCheck(func() (GraphState, bool) { return GraphState{}, false })()
	if missing.Status != StatusUnhealthy {
		t.Errorf("no graph = %s, want unhealthy", missing.Status)
	}

	empty := GraphCheck(func() (GraphState, bool) { return GraphState{Version: 1}, true })()
	if empty.Status != StatusDegraded {
		t.Errorf("empty graph = %s, want degraded", empty.Status)
	}

	loaded := GraphCheck(func() (GraphState, bool) {
		return GraphState{Nodes: 120, Edges: 300, Dangling: 2, Version: 3, LoadedAt: time.Now()}, true
	})()
	if loaded.Status != StatusHealthy {
		t.Errorf("loaded graph = %s, want healthy", loaded.Status)
	}
	if loaded.Details["dangling_edges"] != 2 {
		t.Errorf("dangling detail = %v", loaded.Details["dangling_edges"])
	}
}

func TestPingCheck(t *testing.T) {
	ok := PingCheck("postgres", time.Second, func(context.Context) error { return nil })()
	if ok.Status != StatusHealthy || ok.Name != "postgres" {
		t.Errorf("ok ping = %+v", ok)
	}

	failed := PingCheck("postgres", time.Second, func(context.Context) error { return errors.New("connection refused") })()
	if failed.Status != StatusUnhealthy || failed.Message != "connection refused" {
		t.Errorf("failed ping = %+v", failed)
	}

	slow := PingCheck("neo4j", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})()
	if slow.Status != StatusUnhealthy {
		t.Errorf("timed out ping = %s, want unhealthy", slow.Status)
	}
}

func TestCapacityCheck(t *testing.T) {
	tests := []struct {
		used, limit int
		want        Status
	}{
		{10, 100, StatusHealthy},
		{95, 100, StatusDegraded},
		{100, 100, StatusUnhealthy},
		{5000, 0, StatusHealthy},
	}
	for _, tt := range tests {
		used := tt.used
		got := CapacityCheck("sessions", func() int { return used }, tt.limit)()
		if got.Status != tt.want {
			t.Errorf("%d/%d = %s, want %s", tt.used, tt.limit, got.Status, tt.want)
		}
	}
}

func TestMemoryCheck(t *testing.T) {
	if got := MemoryCheck(func() (uint64, uint64) { return 95, 100 })(); got.Status != StatusDegraded {
		t.Errorf("high usage = %s", got.Status)
	}
	if got := MemoryCheck(func() (uint64, uint64) { return 0, 0 })(); got.Status != StatusHealthy {
		t.Errorf("zero sys = %s", got.Status)
	}
}

func TestHandlers(t *testing.T) {
	hc := NewHealthChecker("dev")
	hc.Register("graph", ProbeStatus|ProbeReady, func() Check { return Check{Status: StatusDegraded} })
	hc.Register("memory", ProbeLive, func() Check { return Check{Status: StatusHealthy} })

	tests := []struct {
		name    string
		handler http.Handler
		want    int
	}{
		{"health tolerates degraded", hc.Handler(ProbeStatus, true), http.StatusOK},
		{"readiness rejects degraded", hc.Handler(ProbeReady, false), http.StatusServiceUnavailable},
		{"liveness", hc.Handler(ProbeLive, false), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			var resp Response
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Version != "dev" {
				t.Errorf("version = %q", resp.Version)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Error("missing JSON content type")
			}
		})
	}
}
