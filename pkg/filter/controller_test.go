package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

func TestDefaultState(t *testing.T) {
	s := Default()

	assert.Equal(t, []graph.Predicate{graph.PredicateContains, graph.PredicateMapsTo}, s.ActivePredicates())
	assert.Equal(t, graph.AllKinds, s.ActiveKinds())
	assert.False(t, s.Focused())
	assert.False(t, s.ShowOrphans)
	assert.True(t, s.ShowLabels)
	assert.Equal(t, LayoutCose, s.Layout)
}

func TestCloneIsIndependent(t *testing.T) {
	s := Default()
	c := s.Clone()
	c.Predicates[graph.PredicateSupersedes] = true
	delete(c.Kinds, graph.KindControl)

	assert.False(t, s.PredicateOn(graph.PredicateSupersedes))
	assert.True(t, s.KindOn(graph.KindControl))
}

func TestTogglePredicate(t *testing.T) {
	c := NewController(nil)

	change := c.TogglePredicate(graph.PredicateMapsTo)
	assert.True(t, change.Predicates)
	assert.True(t, change.NeedsResolve())
	assert.False(t, c.State().PredicateOn(graph.PredicateMapsTo))

	c.TogglePredicate(graph.PredicateMapsTo)
	assert.True(t, c.State().PredicateOn(graph.PredicateMapsTo))

	assert.False(t, c.SetPredicate(graph.PredicateContains, true).Any())
}

func TestSetAllPredicatesUsesAvailable(t *testing.T) {
	available := []graph.Predicate{graph.PredicateContains, graph.PredicateSupersedes}
	c := NewController(available)

	change := c.SetAllPredicates(true)
	require.True(t, change.Predicates)
	assert.Equal(t, available, c.State().ActivePredicates())

	assert.False(t, c.SetAllPredicates(true).Any())

	c.SetAllPredicates(false)
	assert.Empty(t, c.State().ActivePredicates())
}

func TestSetAllKinds(t *testing.T) {
	c := NewController(nil)

	assert.False(t, c.SetAllKinds(true).Any())
	assert.True(t, c.SetAllKinds(false).Kinds)
	assert.Empty(t, c.State().ActiveKinds())

	c.ToggleKind(graph.KindControl)
	assert.Equal(t, []graph.NodeKind{graph.KindControl}, c.State().ActiveKinds())
}

func TestPassThroughChangesDoNotResolve(t *testing.T) {
	c := NewController(nil)

	labels := c.SetShowLabels(false)
	assert.True(t, labels.Labels)
	assert.False(t, labels.NeedsResolve())

	layout, err := c.SetLayout("circle")
	require.NoError(t, err)
	assert.True(t, layout.Layout)
	assert.False(t, layout.NeedsResolve())
	assert.Equal(t, LayoutCircle, c.State().Layout)
}

func TestSetLayoutRejectsUnknown(t *testing.T) {
	c := NewController(nil)

	change, err := c.SetLayout("dagre")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLayout))
	assert.False(t, change.Any())
	assert.Equal(t, LayoutCose, c.State().Layout)
}

func TestFocusAndOrphans(t *testing.T) {
	c := NewController(nil)

	assert.True(t, c.SetFocusedFramework("NIST").Focus)
	assert.False(t, c.SetFocusedFramework("NIST").Any())
	assert.True(t, c.SetShowOrphans(true).Orphans)
	assert.Equal(t, "NIST", c.State().FocusedFramework)
}

func TestReset(t *testing.T) {
	c := NewController(nil)
	c.SetFocusedFramework("NIST")
	c.ToggleKind(graph.KindBaseline)
	_, _ = c.SetLayout("concentric")

	change := c.Reset()
	assert.True(t, change.Focus)
	assert.True(t, change.Kinds)
	assert.True(t, change.Layout)
	assert.False(t, change.Predicates)
	assert.Equal(t, Default(), c.State())

	assert.False(t, c.Reset().Any())
}

func TestLayoutOptions(t *testing.T) {
	cose := LayoutCose.Options()
	assert.Equal(t, false, cose["animate"])
	assert.Equal(t, 20000, cose["nodeRepulsion"])

	bf := LayoutBreadthfirst.Options()
	assert.Equal(t, true, bf["directed"])
	assert.Equal(t, 0.8, bf["spacingFactor"])
	assert.Equal(t, 500, bf["animationDuration"])

	assert.Equal(t, 4, LayoutConcentric.Options()["levelWidth"])
	assert.Equal(t, "circle", LayoutCircle.Options()["name"])
}

func TestCustomDefaults(t *testing.T) {
	def := Default()
	def.Predicates = map[graph.Predicate]bool{graph.PredicateContains: true}
	def.Layout = LayoutCircle

	c := NewControllerWithDefaults(nil, def)
	assert.Equal(t, []graph.Predicate{graph.PredicateContains}, c.State().ActivePredicates())

	c.TogglePredicate(graph.PredicateMapsTo)
	_, err := c.SetLayout("concentric")
	require.NoError(t, err)

	change := c.Reset()
	assert.True(t, change.Predicates)
	assert.True(t, change.Layout)
	assert.Equal(t, def, c.State())

	def.Predicates[graph.PredicateRequiresEvidence] = true
	assert.False(t, c.State().PredicateOn(graph.PredicateRequiresEvidence), "defaults are copied")
}
