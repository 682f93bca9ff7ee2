// Package graphtest builds small knowledge graphs for tests.
package graphtest

import (
	"fmt"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// Builder accumulates nodes and edges in insertion order
type Builder struct {
	nodes []graph.Node
	edges []graph.Edge
}

// New returns an empty builder
func New() *Builder {
	return &Builder{}
}

// Node adds a node whose label equals its id
func (b *Builder) Node(id string, kind graph.NodeKind) *Builder {
	return b.LabeledNode(id, kind, id)
}

// LabeledNode adds a node with an explicit label
func (b *Builder) LabeledNode(id string, kind graph.NodeKind, label string) *Builder {
	b.nodes = append(b.nodes, graph.Node{ID: id, Kind: kind, Label: label})
	return b
}

// Edge adds an edge with id "<source>-<predicate>-<target>"
func (b *Builder) Edge(source, target string, p graph.Predicate) *Builder {
	b.edges = append(b.edges, graph.Edge{
		ID:         EdgeID(source, target, p),
		Source:     source,
		Target:     target,
		Predicate:  p,
		Plane:      planeFor(p),
		Confidence: graph.DefaultConfidence,
	})
	return b
}

// Build returns the immutable graph
func (b *Builder) Build() *graph.Graph {
	return graph.New(b.nodes, b.edges, nil)
}

// EdgeID is the id the builder assigns to an edge
func EdgeID(source, target string, p graph.Predicate) string {
	return fmt.Sprintf("%s-%s-%s", source, p, target)
}

func planeFor(p graph.Predicate) graph.Plane {
	switch p {
	case graph.PredicateMapsTo:
		return graph.PlaneMapping
	case graph.PredicateResponsibilityOf:
		return graph.PlaneResponsibility
	case graph.PredicateRequiresEvidence, graph.PredicateDocumentedIn:
		return graph.PlaneEvidence
	default:
		return graph.PlaneCompliance
	}
}

// Scenario returns F1 -CONTAINS-> CF1 -CONTAINS-> {C1, C2} and C1 -MAPS_TO-> C2
func Scenario() *graph.Graph {
	return New().
		Node("F1", graph.KindFramework).
		Node("CF1", graph.KindControlFamily).
		Node("C1", graph.KindControl).
		Node("C2", graph.KindControl).
		Edge("F1", "CF1", graph.PredicateContains).
		Edge("CF1", "C1", graph.PredicateContains).
		Edge("CF1", "C2", graph.PredicateContains).
		Edge("C1", "C2", graph.PredicateMapsTo).
		Build()
}
