package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	if r.HTTPRequestsTotal == nil || r.ResolvesTotal == nil || r.SessionsActive == nil || r.ChatStreamsTotal == nil {
		t.Fatal("metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/graph", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/graph", "200", 50*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/chat", "503", 5*time.Millisecond)

	if v := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("GET", "/api/graph", "200")); v != 2 {
		t.Errorf("Counter value = %v, want 2", v)
	}
}

func TestRecordGraphAndSourceLoad(t *testing.T) {
	r := NewRegistry()

	r.RecordGraph(120, 300, 2, 1)
	r.RecordSourceLoad("file", nil, 20*time.Millisecond)
	r.RecordSourceLoad("s3", errors.New("denied"), time.Second)

	if v := gaugeValue(t, r.GraphEdgesTotal); v != 300 {
		t.Errorf("GraphEdgesTotal = %v, want 300", v)
	}
	if v := gaugeValue(t, r.GraphDanglingEdges); v != 2 {
		t.Errorf("GraphDanglingEdges = %v, want 2", v)
	}
	if v := counterValue(t, r.SourceLoadsTotal.WithLabelValues("s3", "error")); v != 1 {
		t.Errorf("s3 error loads = %v, want 1", v)
	}
	if v := gaugeValue(t, r.GraphReloadTimestamp); v == 0 {
		t.Error("reload timestamp not set")
	}
}

func TestRecordResolveAndInteractions(t *testing.T) {
	r := NewRegistry()

	r.RecordResolve(time.Millisecond, 3, true)
	r.RecordResolve(time.Millisecond, 0, false)
	r.RecordSearch(31)
	r.RecordInteraction("select_node")
	r.RecordNavigation("chat", true)

	if v := counterValue(t, r.ResolvesTotal); v != 2 {
		t.Errorf("ResolvesTotal = %v, want 2", v)
	}
	if v := counterValue(t, r.InteractionsTotal.WithLabelValues("search")); v != 1 {
		t.Errorf("search interactions = %v, want 1", v)
	}
	if v := counterValue(t, r.NavigationsTotal.WithLabelValues("chat", "true")); v != 1 {
		t.Errorf("navigations = %v, want 1", v)
	}
}

func TestRecordChatStream(t *testing.T) {
	r := NewRegistry()

	r.RecordChatStream("anthropic", nil, 12, 2*time.Second)

	if v := counterValue(t, r.ChatDeltasTotal.WithLabelValues("anthropic")); v != 12 {
		t.Errorf("ChatDeltasTotal = %v, want 12", v)
	}
	if v := counterValue(t, r.ChatStreamsTotal.WithLabelValues("anthropic", "success")); v != 1 {
		t.Errorf("ChatStreamsTotal = %v, want 1", v)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.SessionsActive.Set(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{"grc_explorer_sessions_active 3", "grc_explorer_goroutines", "grc_explorer_uptime_seconds"} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
