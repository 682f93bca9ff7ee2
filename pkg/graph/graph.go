package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the immutable in-memory knowledge graph. It is built once by the
// loader and shared read-only by every session.
type Graph struct {
	nodes     []*Node
	edges     []*Edge
	nodeIndex map[string]int
	edgeIndex map[string]int

	// incident maps every endpoint id (including ids with no node) to the
	// positions of the edges touching it, in payload order
	incident map[string][]int

	stats      Stats
	duplicates int
	dangling   int
}

// New builds a graph from loader output. Edges without an ID receive
// "e<index>". Duplicate node ids keep their first occurrence.
func New(nodes []Node, edges []Edge, stats *Stats) *Graph {
	g := &Graph{
		nodes:     make([]*Node, 0, len(nodes)),
		edges:     make([]*Edge, 0, len(edges)),
		nodeIndex: make(map[string]int, len(nodes)),
		edgeIndex: make(map[string]int, len(edges)),
		incident:  make(map[string][]int),
	}

	for i := range nodes {
		n := nodes[i]
		if _, exists := g.nodeIndex[n.ID]; exists {
			g.duplicates++
			continue
		}
		g.nodeIndex[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, &n)
	}

	for i := range edges {
		e := edges[i]
		if e.ID == "" {
			e.ID = fmt.Sprintf("e%d", i)
		}
		if _, exists := g.edgeIndex[e.ID]; exists {
			e.ID = fmt.Sprintf("%s#%d", e.ID, i)
		}
		pos := len(g.edges)
		g.edgeIndex[e.ID] = pos
		g.edges = append(g.edges, &e)

		g.incident[e.Source] = append(g.incident[e.Source], pos)
		if !e.SelfLoop() {
			g.incident[e.Target] = append(g.incident[e.Target], pos)
		}
		if g.Dangling(&e) {
			g.dangling++
		}
	}

	if stats != nil && (len(stats.NodeTypes) > 0 || len(stats.EdgePredicates) > 0) {
		g.stats = *stats
	} else {
		g.stats = ComputeStats(g.nodes, g.edges)
	}

	return g
}

// ComputeStats counts nodes per kind and edges per predicate
func ComputeStats(nodes []*Node, edges []*Edge) Stats {
	s := Stats{
		NodeTypes:      make(map[string]int),
		EdgePredicates: make(map[string]int),
	}
	for _, n := range nodes {
		s.NodeTypes[string(n.Kind)]++
	}
	for _, e := range edges {
		s.EdgePredicates[string(e.Predicate)]++
	}
	return s
}

// Node looks up a node by id
func (g *Graph) Node(id string) (*Node, bool) {
	pos, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return g.nodes[pos], true
}

// Edge looks up an edge by id
func (g *Graph) Edge(id string) (*Edge, bool) {
	pos, ok := g.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return g.edges[pos], true
}

// HasNode reports whether id names a loaded node
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Nodes returns every node in payload order. Callers must not modify the slice.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns every edge in payload order. Callers must not modify the slice.
func (g *Graph) Edges() []*Edge { return g.edges }

// NodeCount returns the number of distinct nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, dangling ones included
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Stats returns the per-kind and per-predicate totals
func (g *Graph) Stats() Stats { return g.stats }

// Duplicates returns how many node records were dropped as duplicates
func (g *Graph) Duplicates() int { return g.duplicates }

// DanglingCount returns how many edges reference a missing node
func (g *Graph) DanglingCount() int { return g.dangling }

// Dangling reports whether either endpoint of e is not a loaded node
func (g *Graph) Dangling(e *Edge) bool {
	return !g.HasNode(e.Source) || !g.HasNode(e.Target)
}

// IncidentEdges returns the edges touching nodeID in payload order. A
// self-loop appears once.
func (g *Graph) IncidentEdges(nodeID string) []*Edge {
	positions := g.incident[nodeID]
	if len(positions) == 0 {
		return nil
	}
	result := make([]*Edge, len(positions))
	for i, pos := range positions {
		result[i] = g.edges[pos]
	}
	return result
}

// Frameworks returns the Framework nodes sorted by label
func (g *Graph) Frameworks() []*Node {
	var result []*Node
	for _, n := range g.nodes {
		if n.Kind == KindFramework {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return strings.ToLower(result[i].Label) < strings.ToLower(result[j].Label)
	})
	return result
}

// UsedPredicates returns the predicates present in the stats, in display order
func (g *Graph) UsedPredicates() []Predicate {
	var result []Predicate
	for _, p := range PredicateOrder {
		if g.stats.EdgePredicates[string(p)] > 0 {
			result = append(result, p)
		}
	}
	var extra []Predicate
	for name, count := range g.stats.EdgePredicates {
		p := Predicate(name)
		if count > 0 && !p.Valid() {
			extra = append(extra, p)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(result, extra...)
}
