package visibility

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// DefaultFocusDepth bounds the containment expansion of a focused framework.
// Framework → family → control → enhancement nesting never goes deeper.
const DefaultFocusDepth = 4

// Scope is the in-scope element set of a focused framework
type Scope struct {
	Focus  string
	Nodes  map[string]bool
	Edges  map[string]bool
	ByHop  map[int][]string // round → node ids first reached in that round
	Rounds int              // containment rounds that added at least one node
}

func newScope(focus string) *Scope {
	return &Scope{
		Focus: focus,
		Nodes: map[string]bool{focus: true},
		Edges: make(map[string]bool),
		ByHop: make(map[int][]string),
	}
}

// HasNode reports whether id is in scope
func (s *Scope) HasNode(id string) bool { return s != nil && s.Nodes[id] }

// HasEdge reports whether id is in scope
func (s *Scope) HasEdge(id string) bool { return s != nil && s.Edges[id] }

// EdgeFilter decides whether an edge may take part in a traversal
type EdgeFilter func(e *graph.Edge) bool

// ScopeOf expands the focus node breadth-first along CONTAINS edges in either
// direction for at most depth rounds, then adds the cross-reference context of
// every in-scope Control: its candidate incident edges of any predicate and
// their other endpoints. Only edges accepted by candidate propagate. Returns
// nil when focusID is not a loaded node.
func ScopeOf(g *graph.Graph, focusID string, candidate EdgeFilter, depth int) *Scope {
	if !g.HasNode(focusID) {
		return nil
	}
	if candidate == nil {
		candidate = func(*graph.Edge) bool { return true }
	}
	if depth < 0 {
		depth = 0
	}

	scope := newScope(focusID)
	frontier := []string{focusID}

	for round := 1; round <= depth; round++ {
		var roundEdges []string
		var next []string
		seen := make(map[string]bool)

		for _, nodeID := range frontier {
			for _, e := range g.IncidentEdges(nodeID) {
				if e.Predicate != graph.PredicateContains || e.SelfLoop() || !candidate(e) {
					continue
				}
				roundEdges = append(roundEdges, e.ID)
				other := e.Other(nodeID)
				if scope.Nodes[other] || seen[other] {
					continue
				}
				seen[other] = true
				next = append(next, other)
			}
		}

		if len(next) == 0 {
			break
		}
		for _, id := range roundEdges {
			scope.Edges[id] = true
		}
		for _, id := range next {
			scope.Nodes[id] = true
		}
		scope.ByHop[round] = next
		scope.Rounds = round
		frontier = next
	}

	var controls []string
	for id := range scope.Nodes {
		if n, ok := g.Node(id); ok && n.Kind == graph.KindControl {
			controls = append(controls, id)
		}
	}
	for _, id := range controls {
		for _, e := range g.IncidentEdges(id) {
			if !candidate(e) {
				continue
			}
			scope.Edges[e.ID] = true
			scope.Nodes[e.Source] = true
			scope.Nodes[e.Target] = true
		}
	}

	return scope
}
