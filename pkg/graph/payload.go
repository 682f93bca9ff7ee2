package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// DefaultConfidence applies to edges that do not carry a confidence score
const DefaultConfidence = 1.0

// Payload is the wire form served by the data source: flat node and edge
// arrays plus schema sections and stats.
type Payload struct {
	Nodes      []NodeRecord   `json:"nodes" validate:"dive"`
	Edges      []EdgeRecord   `json:"edges" validate:"dive"`
	Planes     map[string]any `json:"planes,omitempty"`
	Predicates map[string]any `json:"predicates,omitempty"`
	Scoring    map[string]any `json:"scoring,omitempty"`
	Stats      Stats          `json:"stats"`
}

// NodeRecord is a node as it appears in the payload
type NodeRecord struct {
	ID    string         `json:"id" validate:"required,max=256"`
	Type  string         `json:"type" validate:"required,nodekind"`
	Label string         `json:"label"`
	Props map[string]any `json:"props,omitempty"`
}

// EdgeRecord is an edge as it appears in the payload
type EdgeRecord struct {
	ID         string            `json:"id,omitempty"`
	Source     string            `json:"source" validate:"required"`
	Target     string            `json:"target" validate:"required"`
	Predicate  string            `json:"predicate" validate:"required,predicate"`
	Plane      string            `json:"plane"`
	Confidence *float64          `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// DecodePayload reads a JSON payload
func DecodePayload(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode graph payload: %w", err)
	}
	return &p, nil
}

// FromPayload builds the immutable graph from a decoded payload
func FromPayload(p *Payload) *Graph {
	nodes := make([]Node, 0, len(p.Nodes))
	for _, rec := range p.Nodes {
		nodes = append(nodes, Node{
			ID:    rec.ID,
			Kind:  NodeKind(rec.Type),
			Label: rec.Label,
			Props: rec.Props,
		})
	}

	edges := make([]Edge, 0, len(p.Edges))
	for _, rec := range p.Edges {
		confidence := DefaultConfidence
		if rec.Confidence != nil {
			confidence = *rec.Confidence
		}
		edges = append(edges, Edge{
			ID:         rec.ID,
			Source:     rec.Source,
			Target:     rec.Target,
			Predicate:  Predicate(rec.Predicate),
			Plane:      Plane(rec.Plane),
			Confidence: confidence,
			Meta:       rec.Meta,
		})
	}

	return New(nodes, edges, &p.Stats)
}

// Payload converts the graph back to its wire form. Stats are the graph's
// stats; schema sections are left empty.
func (g *Graph) Payload() *Payload {
	p := &Payload{
		Nodes: make([]NodeRecord, 0, len(g.nodes)),
		Edges: make([]EdgeRecord, 0, len(g.edges)),
		Stats: g.stats,
	}
	for _, n := range g.nodes {
		p.Nodes = append(p.Nodes, NodeRecord{
			ID:    n.ID,
			Type:  string(n.Kind),
			Label: n.Label,
			Props: n.Props,
		})
	}
	for _, e := range g.edges {
		confidence := e.Confidence
		p.Edges = append(p.Edges, EdgeRecord{
			ID:         e.ID,
			Source:     e.Source,
			Target:     e.Target,
			Predicate:  string(e.Predicate),
			Plane:      string(e.Plane),
			Confidence: &confidence,
			Meta:       e.Meta,
		})
	}
	return p
}
