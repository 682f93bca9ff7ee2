package visibility

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// randomGraph builds a graph from seed with a sprinkling of dangling edges,
// self-loops and unknown predicates
func randomGraph(seed int64) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	nodeCount := 1 + rng.Intn(40)

	nodes := make([]graph.Node, 0, nodeCount)
	for i := 0; i < nodeCount; i++ {
		kind := graph.AllKinds[rng.Intn(len(graph.AllKinds))]
		nodes = append(nodes, graph.Node{ID: fmt.Sprintf("N%d", i), Kind: kind, Label: fmt.Sprintf("node %d", i)})
	}

	predicates := append(append([]graph.Predicate(nil), graph.PredicateOrder...), "RELATED")
	edgeCount := rng.Intn(nodeCount * 3)
	edges := make([]graph.Edge, 0, edgeCount)
	for i := 0; i < edgeCount; i++ {
		src := fmt.Sprintf("N%d", rng.Intn(nodeCount))
		dst := fmt.Sprintf("N%d", rng.Intn(nodeCount+2))
		p := graph.PredicateContains
		if rng.Intn(3) > 0 {
			p = predicates[rng.Intn(len(predicates))]
		}
		edges = append(edges, graph.Edge{Source: src, Target: dst, Predicate: p, Confidence: 1})
	}
	return graph.New(nodes, edges, nil)
}

// stateFromMasks derives a filter state from bit masks over the predicate and
// kind enumerations
func stateFromMasks(g *graph.Graph, predMask, kindMask uint16, focus int, orphans bool) filter.State {
	s := filter.Default()
	s.Predicates = make(map[graph.Predicate]bool)
	for i, p := range graph.PredicateOrder {
		if predMask&(1<<i) != 0 {
			s.Predicates[p] = true
		}
	}
	s.Kinds = make(map[graph.NodeKind]bool)
	for i, k := range graph.AllKinds {
		if kindMask&(1<<i) != 0 {
			s.Kinds[k] = true
		}
	}
	if fws := g.Frameworks(); len(fws) > 0 && focus >= 0 {
		s.FocusedFramework = fws[focus%len(fws)].ID
	}
	s.ShowOrphans = orphans
	return s
}

func TestResolverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("empty predicate set shows no edges", prop.ForAll(
		func(seed int64, kindMask uint16, focus int, orphans bool) bool {
			g := randomGraph(seed)
			r := Resolve(g, stateFromMasks(g, 0, kindMask, focus, orphans), DefaultOptions())
			return r.VisibleEdges == 0
		},
		gen.Int64(), gen.UInt16(), gen.IntRange(-1, 5), gen.Bool(),
	))

	properties.Property("empty kind set shows nothing", prop.ForAll(
		func(seed int64, predMask uint16, focus int, orphans bool) bool {
			g := randomGraph(seed)
			r := Resolve(g, stateFromMasks(g, predMask, 0, focus, orphans), DefaultOptions())
			return r.VisibleNodes == 0 && r.VisibleEdges == 0
		},
		gen.Int64(), gen.UInt16(), gen.IntRange(-1, 5), gen.Bool(),
	))

	properties.Property("resolve is idempotent", prop.ForAll(
		func(seed int64, predMask, kindMask uint16, focus int, orphans bool) bool {
			g := randomGraph(seed)
			s := stateFromMasks(g, predMask, kindMask, focus, orphans)
			return cmp.Equal(Resolve(g, s, DefaultOptions()), Resolve(g, s, DefaultOptions()))
		},
		gen.Int64(), gen.UInt16(), gen.UInt16(), gen.IntRange(-1, 5), gen.Bool(),
	))

	properties.Property("shown edges have shown endpoints", prop.ForAll(
		func(seed int64, predMask, kindMask uint16, focus int, orphans bool) bool {
			g := randomGraph(seed)
			r := Resolve(g, stateFromMasks(g, predMask, kindMask, focus, orphans), DefaultOptions())
			for _, e := range g.Edges() {
				if r.EdgeStatus(e.ID).Shown() &&
					(!r.NodeStatus(e.Source).Shown() || !r.NodeStatus(e.Target).Shown()) {
					return false
				}
				if g.Dangling(e) && r.EdgeStatus(e.ID) != Hidden {
					return false
				}
			}
			return true
		},
		gen.Int64(), gen.UInt16(), gen.UInt16(), gen.IntRange(-1, 5), gen.Bool(),
	))

	properties.Property("no shown orphans when orphans are suppressed", prop.ForAll(
		func(seed int64, predMask, kindMask uint16, focus int) bool {
			g := randomGraph(seed)
			r := Resolve(g, stateFromMasks(g, predMask, kindMask, focus, false), DefaultOptions())
			for _, n := range g.Nodes() {
				if !r.NodeStatus(n.ID).Shown() {
					continue
				}
				connected := false
				for _, e := range g.IncidentEdges(n.ID) {
					connected = connected || r.EdgeStatus(e.ID).Shown()
				}
				if !connected {
					return false
				}
			}
			return true
		},
		gen.Int64(), gen.UInt16(), gen.UInt16(), gen.IntRange(-1, 5),
	))

	properties.Property("counts match exactly-visible elements", prop.ForAll(
		func(seed int64, predMask, kindMask uint16, focus int, orphans bool) bool {
			g := randomGraph(seed)
			r := Resolve(g, stateFromMasks(g, predMask, kindMask, focus, orphans), DefaultOptions())
			nodes, edges := 0, 0
			for _, n := range g.Nodes() {
				if r.NodeStatus(n.ID) == Visible {
					nodes++
				}
			}
			for _, e := range g.Edges() {
				if r.EdgeStatus(e.ID) == Visible {
					edges++
				}
			}
			return nodes == r.VisibleNodes && edges == r.VisibleEdges
		},
		gen.Int64(), gen.UInt16(), gen.UInt16(), gen.IntRange(-1, 5), gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestScopeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("traversal is bounded and never revisits", prop.ForAll(
		func(seed int64, depth int) bool {
			g := randomGraph(seed)
			for _, n := range g.Nodes() {
				scope := ScopeOf(g, n.ID, nil, depth)
				if scope == nil || scope.Rounds > depth {
					return false
				}
				seen := map[string]bool{n.ID: true}
				for round := 1; round <= scope.Rounds; round++ {
					for _, id := range scope.ByHop[round] {
						if seen[id] {
							return false
						}
						seen[id] = true
					}
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
