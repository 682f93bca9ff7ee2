package chat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Event types of the chat stream
const (
	EventDelta = "delta"
	EventDone  = "done"
	EventError = "error"
)

// Event is one server-sent chat event
type Event struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// EventWriter writes chat events as "data: <json>\n\n" lines and flushes
// after each one when the writer supports it
type EventWriter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewEventWriter wraps w
func NewEventWriter(w io.Writer) *EventWriter {
	ew := &EventWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		ew.flusher = f
	}
	return ew
}

// Write sends one event
func (ew *EventWriter) Write(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ew.mu.Lock()
	defer ew.mu.Unlock()
	if _, err := fmt.Fprintf(ew.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if ew.flusher != nil {
		ew.flusher.Flush()
	}
	return nil
}

// Delta sends a text chunk
func (ew *EventWriter) Delta(text string) error { return ew.Write(Event{Type: EventDelta, Text: text}) }

// Done ends the stream
func (ew *EventWriter) Done() error { return ew.Write(Event{Type: EventDone}) }

// Error reports a failure and ends the stream
func (ew *EventWriter) Error(msg string) error { return ew.Write(Event{Type: EventError, Text: msg}) }

// ReadEvents parses a chat stream and calls fn for every event until a done
// or error event, the end of input or an error from fn
func ReadEvents(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			return fmt.Errorf("decode chat event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
		if ev.Type == EventDone || ev.Type == EventError {
			return nil
		}
	}
	return sc.Err()
}
