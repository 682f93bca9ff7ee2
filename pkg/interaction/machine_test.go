package interaction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph/graphtest"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

// committed holds the visibility result a test session would have committed
type committed struct {
	result *visibility.Result
}

func (c *committed) Visibility() *visibility.Result { return c.result }

func newTestMachine(t *testing.T, g *graph.Graph, state filter.State) (*Machine, *committed) {
	t.Helper()
	c := &committed{result: visibility.Resolve(g, state, visibility.DefaultOptions())}
	return NewMachine(g, c), c
}

func allPredicates() filter.State {
	s := filter.Default()
	for _, p := range graph.PredicateOrder {
		s.Predicates[p] = true
	}
	return s
}

// starGraph builds a hub control mapped to n numbered controls plus one
// unrelated family
func starGraph(n int) *graph.Graph {
	b := graphtest.New().
		LabeledNode("HUB", graph.KindControl, "Hub").
		LabeledNode("FAM", graph.KindControlFamily, "Family").
		Node("OTHER", graph.KindControl).
		Edge("FAM", "OTHER", graph.PredicateContains)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("AC-%02d", i)
		b.LabeledNode(id, graph.KindControl, "Access "+id).Edge("HUB", id, graph.PredicateMapsTo)
	}
	return b.Build()
}

func TestSelectNodeMarksNeighborhood(t *testing.T) {
	g := graphtest.Scenario()
	m, _ := newTestMachine(t, g, allPredicates())

	effect := m.SelectNode("CF1")
	require.True(t, effect.SelectionChanged)
	assert.Equal(t, Selection{Kind: SelectionNode, ID: "CF1"}, effect.Selection)

	assert.Equal(t, Selected, m.NodeFlags("CF1"))
	for _, id := range []string{"F1", "C1", "C2"} {
		assert.Equal(t, Neighbor, m.NodeFlags(id), "node %s", id)
	}
	for _, e := range g.IncidentEdges("CF1") {
		assert.Equal(t, graph.PredicateContains, e.Predicate)
		assert.False(t, m.EdgeFlags(e.ID).Has(Dimmed), "incident edge %s", e.ID)
	}
	assert.Len(t, g.IncidentEdges("CF1"), 3)

	mapping := graphtest.EdgeID("C1", "C2", graph.PredicateMapsTo)
	_, ok := g.Edge(mapping)
	require.True(t, ok)
	assert.Equal(t, Dimmed, m.EdgeFlags(mapping), "edge outside the neighborhood")

	id, selected := m.SelectedNodeID()
	assert.True(t, selected)
	assert.Equal(t, "CF1", id)
}

func TestSelectNodeSkipsHiddenEdges(t *testing.T) {
	g := graphtest.Scenario()
	s := filter.Default()
	s.Predicates = map[graph.Predicate]bool{graph.PredicateMapsTo: true}
	m, _ := newTestMachine(t, g, s)

	m.SelectNode("C1")

	assert.Equal(t, Neighbor, m.NodeFlags("C2"))
	assert.True(t, m.NodeFlags("CF1").Has(Dimmed), "CF1 is only reachable through a hidden edge")
}

func TestSelectUnknownIsNoop(t *testing.T) {
	m, _ := newTestMachine(t, graphtest.Scenario(), allPredicates())

	assert.False(t, m.SelectNode("NOPE").Changed)
	assert.False(t, m.SelectEdge("NOPE").Changed)
	assert.True(t, m.Selection().Empty())
	assert.Zero(t, m.NodeFlags("F1"))
}

func TestSelectEdgeDropsNodeOverlay(t *testing.T) {
	g := graphtest.Scenario()
	m, _ := newTestMachine(t, g, allPredicates())
	mapsTo := graphtest.EdgeID("C1", "C2", graph.PredicateMapsTo)

	m.SelectNode("F1")
	m.SelectEdge(mapsTo)

	assert.Equal(t, Selected, m.EdgeFlags(mapsTo))
	for _, n := range g.Nodes() {
		assert.Zero(t, m.NodeFlags(n.ID), "node %s", n.ID)
	}
	_, ok := m.SelectedNodeID()
	assert.False(t, ok)
}

func TestClearSelectionRemovesEveryTag(t *testing.T) {
	g := starGraph(3)
	m, _ := newTestMachine(t, g, allPredicates())

	m.Search("access")
	m.SelectNode("HUB")
	effect := m.ClearSelection()

	assert.True(t, effect.SelectionChanged)
	assert.True(t, m.Selection().Empty())
	assert.False(t, m.Searching())
	assert.Equal(t, "access", m.Query())
	for _, n := range g.Nodes() {
		assert.Zero(t, m.NodeFlags(n.ID), "node %s", n.ID)
	}
	for _, e := range g.Edges() {
		assert.Zero(t, m.EdgeFlags(e.ID), "edge %s", e.ID)
	}
}

func TestSearchShortQueryClearsOverlayOnly(t *testing.T) {
	g := starGraph(3)
	m, _ := newTestMachine(t, g, allPredicates())

	m.SelectNode("AC-00")
	m.Search("ac-01")
	require.True(t, m.NodeFlags("AC-01").Has(Highlighted))

	effect := m.Search(" a ")
	assert.Nil(t, effect.Viewport)
	assert.False(t, m.Searching())
	assert.Equal(t, Selection{Kind: SelectionNode, ID: "AC-00"}, m.Selection())
	assert.Equal(t, Selected, m.NodeFlags("AC-00"))
	assert.True(t, m.NodeFlags("FAM").Has(Dimmed), "node-selection dimming comes back")
}

func TestSearchSingleMatchCenters(t *testing.T) {
	g := starGraph(3)
	m, _ := newTestMachine(t, g, allPredicates())

	effect := m.Search("  AC-01 ")

	require.NotNil(t, effect.Viewport)
	assert.Equal(t, ViewportCenter, effect.Viewport.Action)
	assert.Equal(t, []string{"AC-01"}, effect.Viewport.IDs)
	assert.Equal(t, CenterZoom, effect.Viewport.Zoom)

	assert.Equal(t, Highlighted, m.NodeFlags("AC-01"))
	assert.Zero(t, m.NodeFlags("HUB"), "other endpoint of a visible incident edge")
	assert.Zero(t, m.EdgeFlags(graphtest.EdgeID("HUB", "AC-01", graph.PredicateMapsTo)))
	assert.Equal(t, Dimmed, m.NodeFlags("AC-02"))
	assert.Equal(t, Dimmed, m.EdgeFlags(graphtest.EdgeID("HUB", "AC-02", graph.PredicateMapsTo)))
}

func TestSearchFitsSmallMatchSets(t *testing.T) {
	m, _ := newTestMachine(t, starGraph(30), allPredicates())

	effect := m.Search("access")

	require.NotNil(t, effect.Viewport)
	assert.Equal(t, ViewportFit, effect.Viewport.Action)
	assert.Len(t, effect.Viewport.IDs, 30)
	assert.Equal(t, MatchPadding, effect.Viewport.Padding)
	assert.Equal(t, Dimmed, m.NodeFlags("OTHER"))
}

func TestSearchBroadMatchSetHighlightsWithoutDimming(t *testing.T) {
	g := starGraph(31)
	m, _ := newTestMachine(t, g, allPredicates())

	effect := m.Search("access")

	assert.Nil(t, effect.Viewport)
	assert.Len(t, m.Matches(), 31)
	for _, id := range m.Matches() {
		assert.Equal(t, Highlighted, m.NodeFlags(id))
	}
	for _, n := range g.Nodes() {
		assert.False(t, m.NodeFlags(n.ID).Has(Dimmed), "node %s", n.ID)
	}
	for _, e := range g.Edges() {
		assert.False(t, m.EdgeFlags(e.ID).Has(Dimmed), "edge %s", e.ID)
	}
}

func TestSearchNoMatches(t *testing.T) {
	m, _ := newTestMachine(t, starGraph(2), allPredicates())

	effect := m.Search("zz")

	assert.Nil(t, effect.Viewport)
	assert.True(t, m.Searching())
	assert.Empty(t, m.Matches())
	assert.Zero(t, m.NodeFlags("HUB"))
}

func TestSearchMatchesHiddenNodes(t *testing.T) {
	g := starGraph(2)
	s := allPredicates()
	delete(s.Kinds, graph.KindControlFamily)
	m, _ := newTestMachine(t, g, s)

	m.Search("family")

	assert.Equal(t, []string{"FAM"}, m.Matches())
}

func TestLatestDimmingTransitionWins(t *testing.T) {
	g := starGraph(3)
	m, _ := newTestMachine(t, g, allPredicates())

	m.Search("ac-02")
	assert.Equal(t, Dimmed, m.NodeFlags("AC-00"))

	m.SelectNode("AC-00")
	assert.Equal(t, Selected, m.NodeFlags("AC-00"))
	assert.Equal(t, Highlighted|Dimmed, m.NodeFlags("AC-02"), "selection owns dimming, search keeps highlight")
}

func TestTransitionsReadCommittedVisibility(t *testing.T) {
	g := graphtest.Scenario()
	m, c := newTestMachine(t, g, filter.Default())

	narrowed := filter.Default()
	narrowed.Predicates = map[graph.Predicate]bool{graph.PredicateContains: true}
	c.result = visibility.Resolve(g, narrowed, visibility.DefaultOptions())

	m.SelectNode("C1")

	assert.True(t, m.NodeFlags("C2").Has(Dimmed), "MAPS_TO is hidden in the committed result")
	assert.Equal(t, Neighbor, m.NodeFlags("CF1"))
}

func TestResetForgetsQuery(t *testing.T) {
	m, _ := newTestMachine(t, starGraph(2), allPredicates())
	m.Search("hub")

	assert.True(t, m.Reset().Changed)
	assert.Empty(t, m.Query())
	assert.False(t, m.Reset().Changed)
}
