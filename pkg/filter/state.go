// Package filter holds the user-controlled filter state and its single owner.
package filter

import (
	"sort"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// DefaultPredicates are the relationship kinds shown when a session starts
var DefaultPredicates = []graph.Predicate{graph.PredicateContains, graph.PredicateMapsTo}

// State is the set of filter inputs read by the visibility resolver. ShowLabels
// and Layout are pass-throughs for the renderer.
type State struct {
	Predicates       map[graph.Predicate]bool
	Kinds            map[graph.NodeKind]bool
	FocusedFramework string
	ShowOrphans      bool
	ShowLabels       bool
	Layout           Layout
}

// Default returns the initial filter state
func Default() State {
	s := State{
		Predicates:  make(map[graph.Predicate]bool, len(DefaultPredicates)),
		Kinds:       make(map[graph.NodeKind]bool, len(graph.AllKinds)),
		ShowOrphans: false,
		ShowLabels:  true,
		Layout:      LayoutCose,
	}
	for _, p := range DefaultPredicates {
		s.Predicates[p] = true
	}
	for _, k := range graph.AllKinds {
		s.Kinds[k] = true
	}
	return s
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	c := s
	c.Predicates = make(map[graph.Predicate]bool, len(s.Predicates))
	for p, on := range s.Predicates {
		if on {
			c.Predicates[p] = true
		}
	}
	c.Kinds = make(map[graph.NodeKind]bool, len(s.Kinds))
	for k, on := range s.Kinds {
		if on {
			c.Kinds[k] = true
		}
	}
	return c
}

// PredicateOn reports whether edges of predicate p pass the predicate gate
func (s State) PredicateOn(p graph.Predicate) bool { return s.Predicates[p] }

// KindOn reports whether nodes of kind k pass the kind gate
func (s State) KindOn(k graph.NodeKind) bool { return s.Kinds[k] }

// Focused reports whether a framework focus is requested
func (s State) Focused() bool { return s.FocusedFramework != "" }

// ActivePredicates returns the enabled predicates in display order
func (s State) ActivePredicates() []graph.Predicate {
	result := make([]graph.Predicate, 0, len(s.Predicates))
	for p, on := range s.Predicates {
		if on {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := result[i].Rank(), result[j].Rank()
		if ri != rj {
			return ri < rj
		}
		return result[i] < result[j]
	})
	return result
}

// ActiveKinds returns the enabled kinds in sidebar order
func (s State) ActiveKinds() []graph.NodeKind {
	var result []graph.NodeKind
	for _, k := range graph.AllKinds {
		if s.Kinds[k] {
			result = append(result, k)
		}
	}
	return result
}
