package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/validation"
)

// Snapshot is one loaded version of the graph
type Snapshot struct {
	Graph    *graph.Graph
	Payload  *graph.Payload
	Bytes    []byte
	Version  uint64
	LoadedAt time.Time
}

// Cache holds the current graph snapshot of a source. Reload swaps it
// atomically; readers keep the snapshot they obtained.
type Cache struct {
	src     Source
	logger  logging.Logger
	metrics *metrics.Registry

	mu       sync.RWMutex
	current  *Snapshot
	version  uint64
	onReload []func(*Snapshot)
}

// NewCache creates an empty cache over src. Call Reload before use.
func NewCache(src Source, logger logging.Logger, reg *metrics.Registry) *Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Cache{
		src:     src,
		logger:  logger.With(logging.Component("source"), logging.Source(src.String())),
		metrics: reg,
	}
}

// Source returns the underlying source
func (c *Cache) Source() Source { return c.src }

// OnReload registers fn to run after every successful reload
func (c *Cache) OnReload(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

// Current returns the current snapshot, or nil before the first load
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Graph returns the current graph, or nil before the first load
func (c *Cache) Graph() *graph.Graph {
	if s := c.Current(); s != nil {
		return s.Graph
	}
	return nil
}

// Reload loads the source and replaces the snapshot. Record-level problems
// are logged and tolerated; the previous snapshot stays on failure.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	timer := logging.StartTimer(c.logger, "graph load")
	start := time.Now()

	p, err := c.src.Load(ctx)
	if c.metrics != nil {
		c.metrics.RecordSourceLoad(Scheme(c.src.String()), err, time.Since(start))
	}
	if err != nil {
		timer.EndError(err)
		return nil, err
	}

	report := validation.CheckPayload(p)
	if !report.OK() {
		c.logger.Warn("payload has invalid records",
			logging.Count(len(report.Invalid)), logging.Error(report.Err()))
	}

	data, err := json.Marshal(p)
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	g := graph.FromPayload(p)
	if g.DanglingCount() > 0 {
		c.logger.Warn("graph has dangling edges; they stay hidden",
			logging.Int("dangling", g.DanglingCount()))
	}
	if g.Duplicates() > 0 {
		c.logger.Warn("duplicate node ids dropped", logging.Int("duplicates", g.Duplicates()))
	}
	if c.metrics != nil {
		c.metrics.RecordGraph(g.NodeCount(), g.EdgeCount(), g.DanglingCount(), g.Duplicates())
	}

	c.mu.Lock()
	c.version++
	snap := &Snapshot{Graph: g, Payload: p, Bytes: data, Version: c.version, LoadedAt: time.Now()}
	c.current = snap
	hooks := append([]func(*Snapshot){}, c.onReload...)
	c.mu.Unlock()

	timer.EndWithLevel(logging.InfoLevel, "graph loaded",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()),
		logging.GraphVersion(snap.Version))

	for _, fn := range hooks {
		fn(snap)
	}
	return snap, nil
}

// Close closes the source
func (c *Cache) Close() error {
	return c.src.Close()
}
