// Package visibility decides which nodes and edges of the graph are hidden,
// visible or faded for a given filter state.
package visibility

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// Status is the visibility of a single element
type Status uint8

const (
	Hidden Status = iota
	Visible
	Faded
)

func (s Status) String() string {
	switch s {
	case Visible:
		return "visible"
	case Faded:
		return "faded"
	default:
		return "hidden"
	}
}

// Shown reports whether the element is rendered at all
func (s Status) Shown() bool { return s != Hidden }

// Options tunes the resolver
type Options struct {
	FocusDepth int
}

// DefaultOptions returns the default resolver options
func DefaultOptions() Options {
	return Options{FocusDepth: DefaultFocusDepth}
}

// Result is the visibility of every element plus the displayed counts
type Result struct {
	Nodes        map[string]Status
	Edges        map[string]Status
	VisibleNodes int
	VisibleEdges int

	// Focus is the framework id the focus step applied to, empty when the
	// focus was unset or did not name a Framework node
	Focus string
	Scope *Scope
}

// NodeStatus returns the status of a node; unknown ids are hidden
func (r *Result) NodeStatus(id string) Status {
	if r == nil {
		return Hidden
	}
	return r.Nodes[id]
}

// EdgeStatus returns the status of an edge; unknown ids are hidden
func (r *Result) EdgeStatus(id string) Status {
	if r == nil {
		return Hidden
	}
	return r.Edges[id]
}

// Resolve computes the visibility of every element of g under state. It is
// pure: the same inputs always yield an equal result.
func Resolve(g *graph.Graph, state filter.State, opts Options) *Result {
	r := &Result{
		Nodes: make(map[string]Status, g.NodeCount()),
		Edges: make(map[string]Status, g.EdgeCount()),
	}

	// kind gate
	for _, n := range g.Nodes() {
		if state.KindOn(n.Kind) {
			r.Nodes[n.ID] = Visible
		} else {
			r.Nodes[n.ID] = Hidden
		}
	}

	// predicate gate; dangling edges and edges with a hidden endpoint stay hidden
	for _, e := range g.Edges() {
		status := Hidden
		if state.PredicateOn(e.Predicate) && !g.Dangling(e) &&
			r.Nodes[e.Source].Shown() && r.Nodes[e.Target].Shown() {
			status = Visible
		}
		r.Edges[e.ID] = status
	}

	if state.Focused() {
		if fw, ok := g.Node(state.FocusedFramework); ok && fw.Kind == graph.KindFramework {
			depth := opts.FocusDepth
			if depth <= 0 {
				depth = DefaultFocusDepth
			}
			r.applyFocus(g, fw.ID, depth)
		}
	}

	if !state.ShowOrphans {
		r.suppressOrphans(g)
	}

	for _, s := range r.Nodes {
		if s == Visible {
			r.VisibleNodes++
		}
	}
	for _, s := range r.Edges {
		if s == Visible {
			r.VisibleEdges++
		}
	}
	return r
}

func (r *Result) applyFocus(g *graph.Graph, focusID string, depth int) {
	candidate := func(e *graph.Edge) bool { return r.Edges[e.ID].Shown() }
	scope := ScopeOf(g, focusID, candidate, depth)
	if scope == nil {
		return
	}
	r.Focus = focusID
	r.Scope = scope

	for id, s := range r.Nodes {
		if s == Visible && !scope.HasNode(id) {
			r.Nodes[id] = Faded
		}
	}
	for id, s := range r.Edges {
		if s == Visible && !scope.HasEdge(id) {
			r.Edges[id] = Faded
		}
	}
}

func (r *Result) suppressOrphans(g *graph.Graph) {
	for _, n := range g.Nodes() {
		if !r.Nodes[n.ID].Shown() {
			continue
		}
		connected := false
		for _, e := range g.IncidentEdges(n.ID) {
			if r.Edges[e.ID].Shown() {
				connected = true
				break
			}
		}
		if !connected {
			r.Nodes[n.ID] = Hidden
		}
	}
}
