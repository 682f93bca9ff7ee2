// Package session owns the per-analyst explorer state: the filter controller,
// the interaction machine, the committed visibility result and the renderer
// that draws them.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

// Options configures a new session
type Options struct {
	// ID overrides the generated session id
	ID string
	// Defaults is the initial and reset filter state; nil means
	// filter.Default()
	Defaults   *filter.State
	FocusDepth int
	Logger     logging.Logger
	Metrics    *metrics.Registry
	// OnSelect is called after every selection change, under the session lock
	OnSelect func(interaction.Selection)
}

// Session serializes every event it receives: one event is processed to
// completion, including its render calls, before the next one starts.
type Session struct {
	mu sync.Mutex

	id       string
	g        *graph.Graph
	filters  *filter.Controller
	machine  *interaction.Machine
	vis      *visibility.Result
	renderer render.Renderer
	resolve  visibility.Options

	seq      uint64
	onSelect func(interaction.Selection)
	logger   logging.Logger
	metrics  *metrics.Registry

	created    time.Time
	lastActive time.Time
}

// New creates a session over g, resolves the default filters and renders the
// first frame. A nil renderer discards output.
func New(g *graph.Graph, renderer render.Renderer, opts Options) *Session {
	if renderer == nil {
		renderer = render.Nop{}
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	defaults := filter.Default()
	if opts.Defaults != nil {
		defaults = opts.Defaults.Clone()
	}

	now := time.Now()
	s := &Session{
		id:         id,
		g:          g,
		filters:    filter.NewControllerWithDefaults(g.UsedPredicates(), defaults),
		renderer:   renderer,
		resolve:    visibility.Options{FocusDepth: opts.FocusDepth},
		onSelect:   opts.OnSelect,
		logger:     logger.With(logging.Component("session"), logging.SessionID(id)),
		metrics:    opts.Metrics,
		created:    now,
		lastActive: now,
	}
	s.machine = interaction.NewMachine(g, interaction.ProviderFunc(func() *visibility.Result { return s.vis }))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recompute()
	s.render()
	s.renderer.RunLayout(render.LayoutFor(s.filters.State().Layout))
	return s
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Graph returns the shared read-only graph
func (s *Session) Graph() *graph.Graph { return s.g }

// Created returns the creation time
func (s *Session) Created() time.Time { return s.created }

// LastActive returns the time of the last event
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// touch must be called with mu held
func (s *Session) touch() {
	s.lastActive = time.Now()
}

// recompute resolves visibility for the current filter state. It must be
// called with mu held.
func (s *Session) recompute() {
	start := time.Now()
	state := s.filters.State()
	s.vis = visibility.Resolve(s.g, state, s.resolve)

	rounds := 0
	if s.vis.Scope != nil {
		rounds = s.vis.Scope.Rounds
	}
	if s.metrics != nil {
		s.metrics.RecordResolve(time.Since(start), rounds, s.vis.Focus != "")
	}
	s.logger.Debug("visibility resolved",
		logging.Int("visible_nodes", s.vis.VisibleNodes),
		logging.Int("visible_edges", s.vis.VisibleEdges),
		logging.String("focus", s.vis.Focus),
		logging.Latency(time.Since(start)))
}

// compose builds the frame for the committed state. It must be called with
// mu held.
func (s *Session) compose() render.Frame {
	f := render.Compose(s.g, s.filters.State(), s.vis, s.machine)
	f.Seq = s.seq
	f.Query = s.machine.Query()
	f.Selection = s.machine.Selection()
	return f
}

// render sends a new frame to the renderer. It must be called with mu held.
func (s *Session) render() {
	s.seq++
	s.renderer.Render(s.compose())
}

// Frame returns the frame for the committed state without rendering it
func (s *Session) Frame() render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compose()
}

// Visibility returns the committed visibility result. The result is shared
// and must not be modified.
func (s *Session) Visibility() *visibility.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vis
}

// Counts returns the visible node and edge counts
func (s *Session) Counts() (nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vis.VisibleNodes, s.vis.VisibleEdges
}

// Filters returns a copy of the filter state
func (s *Session) Filters() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.State()
}

// SelectedNodeID returns the selected node id, if a node is selected
func (s *Session) SelectedNodeID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.SelectedNodeID()
}

// Selection returns the current selection
func (s *Session) Selection() interaction.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Selection()
}

// Query returns the normalized search query and its matches
func (s *Session) Query() (string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Query(), s.machine.Matches()
}
