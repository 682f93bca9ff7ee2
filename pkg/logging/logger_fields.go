package logging

import "time"

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration is logged in its String form ("1.5s") rather than nanoseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Error logs err under "error"; a nil error yields a null value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Keys shared by every package, so log queries can join on them.

func Component(name string) Field { return String("component", name) }
func NodeID(id string) Field      { return String("node_id", id) }
func Framework(id string) Field   { return String("framework", id) }
func SessionID(id string) Field   { return String("session_id", id) }
func RequestID(id string) Field   { return String("request_id", id) }
func Source(uri string) Field     { return String("source", uri) }
func Query(q string) Field        { return String("query", q) }
func Operation(op string) Field   { return String("operation", op) }
func Path(p string) Field         { return String("path", p) }
func Count(n int) Field           { return Int("count", n) }
func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

// GraphVersion is the snapshot counter bumped on every successful reload.
func GraphVersion(v uint64) Field { return Uint64("graph_version", v) }
