package session

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

// Edge directions relative to the inspected node
const (
	DirectionOut = "out"
	DirectionIn  = "in"
)

// Attribute is one displayed node property
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Link is one connection of the inspected node
type Link struct {
	EdgeID             string  `json:"edge_id"`
	OtherID            string  `json:"other_id"`
	Direction          string  `json:"direction"`
	Confidence         float64 `json:"confidence"`
	Coverage           string  `json:"coverage,omitempty"`
	ResponsibilityType string  `json:"responsibility_type,omitempty"`
}

// Arrow returns the display arrow for the link direction
func (l Link) Arrow() string {
	if l.Direction == DirectionOut {
		return "→"
	}
	return "←"
}

// LinkGroup collects the links of one predicate
type LinkGroup struct {
	Predicate graph.Predicate `json:"predicate"`
	Color     string          `json:"color"`
	Links     []Link          `json:"links"`
}

// NodeDetail is the detail panel content for a node
type NodeDetail struct {
	ID         string         `json:"id"`
	Kind       graph.NodeKind `json:"kind"`
	Label      string         `json:"label"`
	Color      string         `json:"color"`
	Attributes []Attribute    `json:"attributes"`
	Groups     []LinkGroup    `json:"groups"`
}

// EdgeDetail is the detail panel content for an edge
type EdgeDetail struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Predicate  graph.Predicate   `json:"predicate"`
	Plane      graph.Plane       `json:"plane"`
	Confidence float64           `json:"confidence"`
	Meta       map[string]string `json:"meta,omitempty"`
	Color      string            `json:"color"`
}

// Detail is the detail panel content for the current selection
type Detail struct {
	Selection interaction.Selection `json:"selection"`
	Node      *NodeDetail           `json:"node,omitempty"`
	Edge      *EdgeDetail           `json:"edge,omitempty"`
}

// Detail describes the current selection. It returns graph.ErrNodeNotFound
// when nothing is selected.
func (s *Session) Detail() (Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.machine.Selection()
	d := Detail{Selection: sel}
	switch sel.Kind {
	case interaction.SelectionNode:
		n, err := describeNode(s.g, s.vis, sel.ID)
		if err != nil {
			return d, err
		}
		d.Node = n
	case interaction.SelectionEdge:
		e, err := describeEdge(s.g, sel.ID)
		if err != nil {
			return d, err
		}
		d.Edge = e
	default:
		return d, fmt.Errorf("nothing selected: %w", graph.ErrNodeNotFound)
	}
	return d, nil
}

// NodeDetail describes any node against the committed visibility
func (s *Session) NodeDetail(id string) (*NodeDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return describeNode(s.g, s.vis, id)
}

// EdgeDetail describes any edge
func (s *Session) EdgeDetail(id string) (*EdgeDetail, error) {
	return describeEdge(s.g, id)
}

func describeNode(g *graph.Graph, vis *visibility.Result, id string) (*NodeDetail, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, graph.ErrNodeNotFound)
	}

	d := &NodeDetail{
		ID:         n.ID,
		Kind:       n.Kind,
		Label:      n.Label,
		Color:      render.StyleOfKind(n.Kind).Color,
		Attributes: attributes(n.Props),
	}

	byPredicate := make(map[graph.Predicate][]Link)
	for _, e := range g.IncidentEdges(id) {
		if !vis.EdgeStatus(e.ID).Shown() {
			continue
		}
		dir := DirectionIn
		if e.Source == id {
			dir = DirectionOut
		}
		byPredicate[e.Predicate] = append(byPredicate[e.Predicate], Link{
			EdgeID:             e.ID,
			OtherID:            e.Other(id),
			Direction:          dir,
			Confidence:         e.Confidence,
			Coverage:           e.Meta["coverage"],
			ResponsibilityType: e.Meta["responsibility_type"],
		})
	}

	preds := make([]graph.Predicate, 0, len(byPredicate))
	for p := range byPredicate {
		preds = append(preds, p)
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Rank() != preds[j].Rank() {
			return preds[i].Rank() < preds[j].Rank()
		}
		return preds[i] < preds[j]
	})
	for _, p := range preds {
		d.Groups = append(d.Groups, LinkGroup{
			Predicate: p,
			Color:     render.StyleOfPredicate(p).Color,
			Links:     byPredicate[p],
		})
	}
	return d, nil
}

func describeEdge(g *graph.Graph, id string) (*EdgeDetail, error) {
	e, ok := g.Edge(id)
	if !ok {
		return nil, fmt.Errorf("edge %q: %w", id, graph.ErrEdgeNotFound)
	}
	return &EdgeDetail{
		ID:         e.ID,
		Source:     e.Source,
		Target:     e.Target,
		Predicate:  e.Predicate,
		Plane:      e.Plane,
		Confidence: e.Confidence,
		Meta:       e.Meta,
		Color:      render.StyleOfPredicate(e.Predicate).Color,
	}, nil
}

// attributes renders node properties sorted by key. Non-string values are
// shown as JSON.
func attributes(props map[string]any) []Attribute {
	keys := make([]string, 0, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := props[k].(type) {
		case string:
			value = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				value = fmt.Sprint(v)
			} else {
				value = string(raw)
			}
		}
		attrs = append(attrs, Attribute{Key: k, Value: value})
	}
	return attrs
}
