package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// decodeLines parses every JSON line written by a logger
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLevelRoundTrip(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{" INFO ", InfoLevel},
		{"Warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			if back := fromZapLevel(got.zapLevel()); back != got {
				t.Errorf("zap level round trip %v -> %v", got, back)
			}
		})
	}
}

func TestDomainFields(t *testing.T) {
	if f := NodeID("NIST-AC-2"); f.Key != "node_id" || f.Value != "NIST-AC-2" {
		t.Errorf("NodeID() = %+v", f)
	}
	if f := SessionID("s1"); f.Key != "session_id" {
		t.Errorf("SessionID() = %+v", f)
	}
	if f := Duration("timeout", 5*time.Second); f.Value != "5s" {
		t.Errorf("Duration() = %+v", f)
	}
	if f := Error(nil); f.Value != nil {
		t.Errorf("Error(nil) = %+v", f)
	}
	if f := Error(errors.New("boom")); f.Value != "boom" {
		t.Errorf("Error() = %+v", f)
	}
}

func TestZapLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(&buf, DebugLevel)

	logger.Info("graph loaded", Count(42), Source("file:///tmp/graph.json"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["msg"] != "graph loaded" || e["level"] != "INFO" {
		t.Errorf("unexpected entry %v", e)
	}
	if e["count"] != float64(42) || e["source"] != "file:///tmp/graph.json" {
		t.Errorf("fields missing: %v", e)
	}
	if _, ok := e["time"]; !ok {
		t.Error("time key missing")
	}
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(&buf, WarnLevel)

	logger.Debug("skip")
	logger.Info("skip")
	logger.Warn("keep")
	logger.Error("keep")

	if n := len(decodeLines(t, &buf)); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
}

func TestZapLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(&buf, InfoLevel)
	child := logger.With(Component("session"), SessionID("abc"))

	child.Debug("hidden")
	logger.SetLevel(DebugLevel)
	child.Debug("shown")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["component"] != "session" || entries[0]["session_id"] != "abc" {
		t.Errorf("preset fields missing: %v", entries[0])
	}
	if child.GetLevel() != DebugLevel {
		t.Errorf("child level = %v, want DEBUG", child.GetLevel())
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(&buf, DebugLevel)

	op := StartTimer(logger, "resolve", Operation("resolve"))
	op.End(Count(3))
	op.EndError(errors.New("failed"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "DEBUG" || entries[0]["count"] != float64(3) {
		t.Errorf("End entry = %v", entries[0])
	}
	if _, ok := entries[0]["latency"]; !ok {
		t.Error("latency missing")
	}
	if entries[1]["level"] != "ERROR" || entries[1]["error"] != "failed" {
		t.Errorf("EndError entry = %v", entries[1])
	}
}

func TestDefaultLoggerReplaceable(t *testing.T) {
	prev := DefaultLogger()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(NewZapLogger(&buf, DebugLevel))
	Debug("d")
	Info("i")
	Warn("w")
	ErrorLog("e")
	With(String("k", "v")).Info("child")

	entries := decodeLines(t, &buf)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[4]["k"] != "v" {
		t.Errorf("With() field missing: %v", entries[4])
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("nothing")
	if l.With(String("a", "b")) == nil {
		t.Error("With() returned nil")
	}
}
