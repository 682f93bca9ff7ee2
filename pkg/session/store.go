package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
)

var (
	// ErrStoreFull is returned when the session cap is reached
	ErrStoreFull = errors.New("too many sessions")
	// ErrNotFound is returned for unknown or expired session ids
	ErrNotFound = errors.New("session not found")
)

// StoreOptions configures a Store
type StoreOptions struct {
	Max        int
	IdleTTL    time.Duration
	Defaults   *filter.State
	FocusDepth int
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

// RendererFactory builds the renderer of a new session
type RendererFactory func(id string) render.Renderer

// Store holds the live sessions. New sessions are built over the current
// graph; existing sessions keep the graph they were created with.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pending  int // slots reserved by Create calls still building a session
	g        *graph.Graph
	opts     StoreOptions
	onEvict  []func(id string)
	logger   logging.Logger
	now      func() time.Time
}

// NewStore creates an empty store over g
func NewStore(g *graph.Graph, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	opts.Logger = logger
	return &Store{
		sessions: make(map[string]*Session),
		g:        g,
		opts:     opts,
		logger:   logger.With(logging.Component("sessions")),
		now:      time.Now,
	}
}

// SetGraph installs the graph used by sessions created from now on
func (st *Store) SetGraph(g *graph.Graph) {
	st.mu.Lock()
	st.g = g
	st.mu.Unlock()
}

// Graph returns the current graph
func (st *Store) Graph() *graph.Graph {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.g
}

// OnEvict registers fn to run after a session is deleted or expires
func (st *Store) OnEvict(fn func(id string)) {
	st.mu.Lock()
	st.onEvict = append(st.onEvict, fn)
	st.mu.Unlock()
}

// full reports whether live and reserved sessions reach the cap. Callers
// hold st.mu.
func (st *Store) full() bool {
	return st.opts.Max > 0 && len(st.sessions)+st.pending >= st.opts.Max
}

// Create starts a session. newRenderer may be nil.
func (st *Store) Create(newRenderer RendererFactory, onSelect func(string, interaction.Selection)) (*Session, error) {
	st.mu.Lock()
	if st.full() {
		st.mu.Unlock()
		if len(st.Sweep()) == 0 {
			return nil, ErrStoreFull
		}
		st.mu.Lock()
		if st.full() {
			st.mu.Unlock()
			return nil, ErrStoreFull
		}
	}
	st.pending++
	g := st.g
	st.mu.Unlock()

	id := uuid.NewString()
	var renderer render.Renderer
	if newRenderer != nil {
		renderer = newRenderer(id)
	}
	opts := Options{
		ID:         id,
		Defaults:   st.opts.Defaults,
		FocusDepth: st.opts.FocusDepth,
		Logger:     st.opts.Logger,
		Metrics:    st.opts.Metrics,
	}
	if onSelect != nil {
		opts.OnSelect = func(sel interaction.Selection) { onSelect(id, sel) }
	}
	s := New(g, renderer, opts)

	st.mu.Lock()
	st.pending--
	st.sessions[id] = s
	count := len(st.sessions)
	st.mu.Unlock()

	if st.opts.Metrics != nil {
		st.opts.Metrics.SessionsCreated.Inc()
		st.opts.Metrics.SessionsActive.Set(float64(count))
	}
	st.logger.Info("session created", logging.SessionID(id), logging.Count(count))
	return s, nil
}

// Get returns a live session
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete ends a session
func (st *Store) Delete(id string) error {
	if !st.remove(id) {
		return ErrNotFound
	}
	st.logger.Info("session deleted", logging.SessionID(id))
	return nil
}

func (st *Store) remove(id string) bool {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	count := len(st.sessions)
	hooks := st.onEvict
	st.mu.Unlock()
	if !ok {
		return false
	}
	if st.opts.Metrics != nil {
		st.opts.Metrics.SessionsActive.Set(float64(count))
	}
	for _, fn := range hooks {
		fn(id)
	}
	return true
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Max returns the session cap; 0 means unbounded
func (st *Store) Max() int { return st.opts.Max }

// IDs returns the live session ids, oldest first
func (st *Store) IDs() []string {
	st.mu.RLock()
	list := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		list = append(list, s)
	}
	st.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Created().Before(list[j].Created()) })
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID()
	}
	return ids
}

// Sweep removes sessions idle for longer than the idle TTL and returns their
// ids. A zero TTL disables expiry.
func (st *Store) Sweep() []string {
	if st.opts.IdleTTL <= 0 {
		return nil
	}
	cutoff := st.now().Add(-st.opts.IdleTTL)

	st.mu.RLock()
	var idle []string
	for id, s := range st.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	st.mu.RUnlock()

	var expired []string
	for _, id := range idle {
		if st.remove(id) {
			expired = append(expired, id)
		}
	}
	if len(expired) > 0 {
		if st.opts.Metrics != nil {
			st.opts.Metrics.SessionsExpired.Add(float64(len(expired)))
		}
		st.logger.Info("idle sessions expired", logging.Count(len(expired)))
	}
	return expired
}

// Run sweeps idle sessions until ctx is done
func (st *Store) Run(ctx context.Context) error {
	if st.opts.IdleTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := st.opts.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st.Sweep()
		}
	}
}
