package session

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
)

// FrameworkEntry is one option of the focus selector
type FrameworkEntry struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Focused bool   `json:"focused"`
}

// PredicateEntry is one predicate checkbox
type PredicateEntry struct {
	Predicate graph.Predicate `json:"predicate"`
	Count     int             `json:"count"`
	Active    bool            `json:"active"`
	Color     string          `json:"color"`
}

// KindEntry is one node kind checkbox
type KindEntry struct {
	Kind   graph.NodeKind `json:"kind"`
	Count  int            `json:"count"`
	Active bool           `json:"active"`
	Color  string         `json:"color"`
}

// Sidebar is everything the filter controls display
type Sidebar struct {
	Frameworks   []FrameworkEntry `json:"frameworks"`
	Predicates   []PredicateEntry `json:"predicates"`
	Kinds        []KindEntry      `json:"kinds"`
	Layout       filter.Layout    `json:"layout"`
	Layouts      []filter.Layout  `json:"layouts"`
	ShowLabels   bool             `json:"show_labels"`
	ShowOrphans  bool             `json:"show_orphans"`
	VisibleNodes int              `json:"visible_nodes"`
	VisibleEdges int              `json:"visible_edges"`
	TotalNodes   int              `json:"total_nodes"`
	TotalEdges   int              `json:"total_edges"`
}

// Sidebar returns the filter controls for the current state
func (s *Session) Sidebar() Sidebar {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.filters.State()
	stats := s.g.Stats()
	sb := Sidebar{
		Layout:       state.Layout,
		Layouts:      append([]filter.Layout(nil), filter.Layouts...),
		ShowLabels:   state.ShowLabels,
		ShowOrphans:  state.ShowOrphans,
		VisibleNodes: s.vis.VisibleNodes,
		VisibleEdges: s.vis.VisibleEdges,
		TotalNodes:   s.g.NodeCount(),
		TotalEdges:   s.g.EdgeCount(),
	}

	for _, fw := range s.g.Frameworks() {
		sb.Frameworks = append(sb.Frameworks, FrameworkEntry{
			ID:      fw.ID,
			Label:   fw.Label,
			Focused: fw.ID == state.FocusedFramework,
		})
	}
	for _, p := range s.g.UsedPredicates() {
		sb.Predicates = append(sb.Predicates, PredicateEntry{
			Predicate: p,
			Count:     stats.EdgePredicates[string(p)],
			Active:    state.PredicateOn(p),
			Color:     render.StyleOfPredicate(p).Color,
		})
	}
	for _, k := range graph.AllKinds {
		sb.Kinds = append(sb.Kinds, KindEntry{
			Kind:   k,
			Count:  stats.NodeTypes[string(k)],
			Active: state.KindOn(k),
			Color:  render.StyleOfKind(k).Color,
		})
	}
	return sb
}
