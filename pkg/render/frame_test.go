package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph/graphtest"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

type fixedOverlays map[string]interaction.Flag

func (o fixedOverlays) NodeFlags(id string) interaction.Flag { return o[id] }
func (o fixedOverlays) EdgeFlags(id string) interaction.Flag { return o[id] }

func TestComposeFocusedFrame(t *testing.T) {
	g := graphtest.New().
		Node("F1", graph.KindFramework).
		Node("F2", graph.KindFramework).
		Node("A", graph.KindControl).
		Node("B", graph.KindControl).
		Edge("F1", "A", graph.PredicateContains).
		Edge("F2", "B", graph.PredicateContains).
		Build()
	state := filter.Default()
	state.FocusedFramework = "F1"
	vis := visibility.Resolve(g, state, visibility.DefaultOptions())
	overlays := fixedOverlays{"A": interaction.Selected, "B": interaction.Dimmed}

	f := Compose(g, state, vis, overlays)

	assert.Equal(t, 2, f.VisibleNodes)
	assert.Equal(t, 4, f.TotalNodes)
	assert.Equal(t, "F1", f.Focus)
	assert.Equal(t, "cose", f.Layout)

	a, ok := f.Node("A")
	require.True(t, ok)
	assert.Equal(t, "selected", a.Paint)
	assert.Equal(t, []string{"Control", "selected"}, a.Classes)
	assert.Equal(t, Border{Color: "#f472b6", Width: 3}, a.Border)
	assert.Equal(t, "ellipse", a.Style.Shape)

	b, _ := f.Node("B")
	assert.Equal(t, "faded", b.Paint, "faded dominates dimmed")
	assert.Equal(t, 0.08, b.Opacity)
	assert.Equal(t, []string{"Control", "faded", "dimmed"}, b.Classes)

	e, ok := f.Edge(graphtest.EdgeID("F2", "B", graph.PredicateContains))
	require.True(t, ok)
	assert.Equal(t, []string{"COMPLIANCE", "pred-CONTAINS", "faded"}, e.Classes)
	assert.Equal(t, 0.02, e.Opacity)
	assert.Equal(t, "solid", e.Style.LineStyle)
}

func TestComposeHiddenElements(t *testing.T) {
	g := graphtest.Scenario()
	state := filter.Default()
	state.Kinds = map[graph.NodeKind]bool{}
	vis := visibility.Resolve(g, state, visibility.DefaultOptions())

	overlays := fixedOverlays{
		"C1": interaction.Highlighted | interaction.Neighbor,
		"C2": interaction.Dimmed,
		graphtest.EdgeID("C1", "C2", graph.PredicateMapsTo): interaction.Dimmed,
	}

	f := Compose(g, state, vis, overlays)

	for _, n := range f.Nodes {
		assert.False(t, n.Shown)
		assert.Equal(t, "hidden", n.Paint)
		assert.Zero(t, n.Opacity)
		assert.Equal(t, []string{n.Kind}, n.Classes, "node %s", n.ID)
	}
	for _, e := range f.Edges {
		assert.False(t, e.Shown)
		assert.NotContains(t, e.Classes, "dimmed", "edge %s", e.ID)
	}
}

func TestStylesFallBack(t *testing.T) {
	assert.Equal(t, 40, StyleOfKind(graph.KindFramework).Size)
	assert.Equal(t, defaultNodeStyle, StyleOfKind("Person"))
	assert.Equal(t, "dashed", StyleOfPredicate(graph.PredicateMapsTo).LineStyle)
	assert.Equal(t, defaultEdgeStyle, StyleOfPredicate("RELATED"))
	assert.Equal(t, 3, EdgeWidth(interaction.PaintSelected))
}

func TestRecorderAndFanout(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	var r Renderer = Fanout{a, b, Nop{}}

	r.Render(Frame{Seq: 1})
	r.Render(Frame{Seq: 2})
	r.Viewport(*interaction.FitAll())
	r.RunLayout(LayoutFor(filter.LayoutCircle))

	for _, rec := range []*Recorder{a, b} {
		last, ok := rec.Last()
		require.True(t, ok)
		assert.Equal(t, uint64(2), last.Seq)
		assert.Equal(t, 2, rec.Frames())
		assert.Equal(t, interaction.ResetPadding, rec.Viewports()[0].Padding)
		assert.Equal(t, "circle", rec.Layouts()[0].Name)
	}
}
