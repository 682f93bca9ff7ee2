// Package interaction tracks selection and search state and derives the
// dimmed, highlighted, neighbor and selected overlays.
package interaction

import (
	"strings"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

const (
	// MinQueryLength is the shortest query that triggers a search
	MinQueryLength = 2
	// SearchFocusLimit is the largest match set that still dims the rest
	SearchFocusLimit = 30
)

// VisibilityProvider returns the committed visibility result
type VisibilityProvider interface {
	Visibility() *visibility.Result
}

// ProviderFunc adapts a function to VisibilityProvider
type ProviderFunc func() *visibility.Result

// Visibility calls f
func (f ProviderFunc) Visibility() *visibility.Result { return f() }

// SelectionKind says what the selection axis points at
type SelectionKind string

const (
	SelectionNone SelectionKind = ""
	SelectionNode SelectionKind = "node"
	SelectionEdge SelectionKind = "edge"
)

// Selection is the current value of the selection axis
type Selection struct {
	Kind SelectionKind `json:"kind,omitempty"`
	ID   string        `json:"id,omitempty"`
}

// Empty reports whether nothing is selected
func (s Selection) Empty() bool { return s.Kind == SelectionNone }

// Effect describes what a transition asks of the outside world
type Effect struct {
	Changed          bool
	SelectionChanged bool
	Selection        Selection
	Viewport         *ViewportRequest
}

type dimLayer uint8

const (
	dimNone dimLayer = iota
	dimSelection
	dimSearch
)

// elementSet is a set of node and edge ids
type elementSet struct {
	nodes map[string]bool
	edges map[string]bool
}

func newElementSet() elementSet {
	return elementSet{nodes: make(map[string]bool), edges: make(map[string]bool)}
}

// Machine is the interaction state of one session. It is not safe for
// concurrent use.
type Machine struct {
	g          *graph.Graph
	visibility VisibilityProvider

	selection    Selection
	neighborhood elementSet

	query      string
	searching  bool
	matches    []string
	matchSet   map[string]bool
	searchDim  bool
	searchKeep elementSet

	dimOwner dimLayer
}

// NewMachine creates an idle machine reading visibility from provider
func NewMachine(g *graph.Graph, provider VisibilityProvider) *Machine {
	return &Machine{g: g, visibility: provider}
}

// Selection returns the current selection
func (m *Machine) Selection() Selection { return m.selection }

// SelectedNodeID returns the selected node id, if a node is selected
func (m *Machine) SelectedNodeID() (string, bool) {
	if m.selection.Kind != SelectionNode {
		return "", false
	}
	return m.selection.ID, true
}

// Query returns the last normalized search query
func (m *Machine) Query() string { return m.query }

// Matches returns the current search matches in payload order
func (m *Machine) Matches() []string {
	return append([]string(nil), m.matches...)
}

// Searching reports whether a search overlay is applied
func (m *Machine) Searching() bool { return m.searching }

// neighborhoodOf collects ids, the non-hidden incident edges of ids and the
// other endpoints of those edges
func (m *Machine) neighborhoodOf(ids ...string) elementSet {
	vis := m.visibility.Visibility()
	set := newElementSet()
	for _, id := range ids {
		set.nodes[id] = true
		for _, e := range m.g.IncidentEdges(id) {
			if !vis.EdgeStatus(e.ID).Shown() {
				continue
			}
			set.edges[e.ID] = true
			set.nodes[e.Other(id)] = true
		}
	}
	return set
}

// SelectNode selects a node and dims everything outside its neighborhood.
// Unknown ids are ignored.
func (m *Machine) SelectNode(id string) Effect {
	if !m.g.HasNode(id) {
		return Effect{Selection: m.selection}
	}
	prev := m.selection
	m.selection = Selection{Kind: SelectionNode, ID: id}
	m.neighborhood = m.neighborhoodOf(id)
	m.dimOwner = dimSelection
	return Effect{
		Changed:          true,
		SelectionChanged: prev != m.selection,
		Selection:        m.selection,
	}
}

// SelectEdge selects a single edge. Node selection overlays are dropped.
func (m *Machine) SelectEdge(id string) Effect {
	if _, ok := m.g.Edge(id); !ok {
		return Effect{Selection: m.selection}
	}
	prev := m.selection
	m.selection = Selection{Kind: SelectionEdge, ID: id}
	m.neighborhood = elementSet{}
	if m.dimOwner == dimSelection {
		m.dimOwner = dimNone
	}
	return Effect{
		Changed:          true,
		SelectionChanged: prev != m.selection,
		Selection:        m.selection,
	}
}

// ClearSelection drops the selection and every overlay. The query text is
// kept so the search box still shows it.
func (m *Machine) ClearSelection() Effect {
	prev := m.selection
	changed := !prev.Empty() || m.searching
	m.selection = Selection{}
	m.neighborhood = elementSet{}
	m.clearSearchOverlay()
	m.dimOwner = dimNone
	return Effect{
		Changed:          changed,
		SelectionChanged: !prev.Empty(),
		Selection:        m.selection,
	}
}

// Reset returns the machine to idle and forgets the query
func (m *Machine) Reset() Effect {
	effect := m.ClearSelection()
	effect.Changed = effect.Changed || m.query != ""
	m.query = ""
	return effect
}

func (m *Machine) clearSearchOverlay() {
	m.searching = false
	m.matches = nil
	m.matchSet = nil
	m.searchDim = false
	m.searchKeep = elementSet{}
}

// NormalizeQuery trims and lowercases a raw query
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MatchNodes returns the ids of every node whose id or label contains the
// normalized query
func MatchNodes(g *graph.Graph, query string) []string {
	var matches []string
	for _, n := range g.Nodes() {
		if strings.Contains(strings.ToLower(n.ID), query) || strings.Contains(strings.ToLower(n.Label), query) {
			matches = append(matches, n.ID)
		}
	}
	return matches
}

// Search highlights every node matching raw. Small match sets also dim the
// rest of the graph and move the viewport onto the matches.
func (m *Machine) Search(raw string) Effect {
	q := NormalizeQuery(raw)
	m.query = q
	m.clearSearchOverlay()
	m.dimOwner = dimNone
	if m.selection.Kind == SelectionNode {
		m.dimOwner = dimSelection
	}

	effect := Effect{Changed: true, Selection: m.selection}
	if len(q) < MinQueryLength {
		return effect
	}

	m.searching = true
	m.dimOwner = dimSearch
	m.matches = MatchNodes(m.g, q)
	m.matchSet = make(map[string]bool, len(m.matches))
	for _, id := range m.matches {
		m.matchSet[id] = true
	}

	// an empty or too broad match set highlights only and dims nothing
	n := len(m.matches)
	if n == 0 || n > SearchFocusLimit {
		return effect
	}
	m.searchDim = true
	m.searchKeep = m.neighborhoodOf(m.matches...)
	if n == 1 {
		effect.Viewport = CenterOn(m.matches[0])
	} else {
		effect.Viewport = FitTo(m.Matches(), MatchPadding)
	}
	return effect
}

// NodeFlags returns the overlay flags of a node
func (m *Machine) NodeFlags(id string) Flag {
	var f Flag
	switch m.dimOwner {
	case dimSelection:
		if !m.neighborhood.nodes[id] {
			f |= Dimmed
		}
	case dimSearch:
		if m.searchDim && !m.searchKeep.nodes[id] {
			f |= Dimmed
		}
	}
	if m.matchSet[id] {
		f |= Highlighted
	}
	if m.selection.Kind == SelectionNode {
		if m.selection.ID == id {
			f |= Selected
		} else if m.neighborhood.nodes[id] {
			f |= Neighbor
		}
	}
	return f
}

// EdgeFlags returns the overlay flags of an edge
func (m *Machine) EdgeFlags(id string) Flag {
	var f Flag
	switch m.dimOwner {
	case dimSelection:
		if !m.neighborhood.edges[id] {
			f |= Dimmed
		}
	case dimSearch:
		if m.searchDim && !m.searchKeep.edges[id] {
			f |= Dimmed
		}
	}
	if m.selection.Kind == SelectionEdge && m.selection.ID == id {
		f |= Selected
	}
	return f
}
