package render

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
)

// NodeStyle is the kind-derived appearance of a node
type NodeStyle struct {
	Color string `json:"color"`
	Shape string `json:"shape"`
	Size  int    `json:"size"`
}

// EdgeStyle is the predicate-derived appearance of an edge
type EdgeStyle struct {
	Color     string `json:"color"`
	LineStyle string `json:"line_style"`
}

// Border is the emphasis ring drawn around a node
type Border struct {
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
}

var nodeStyles = map[graph.NodeKind]NodeStyle{
	graph.KindFramework:     {Color: "#3b82f6", Shape: "diamond", Size: 40},
	graph.KindControlFamily: {Color: "#8b5cf6", Shape: "round-rectangle", Size: 28},
	graph.KindControl:       {Color: "#10b981", Shape: "ellipse", Size: 16},
	graph.KindBaseline:      {Color: "#f59e0b", Shape: "pentagon", Size: 26},
	graph.KindServiceModel:  {Color: "#ef4444", Shape: "hexagon", Size: 28},
	graph.KindEvidenceType:  {Color: "#06b6d4", Shape: "rectangle", Size: 22},
	graph.KindDocumentType:  {Color: "#6b7280", Shape: "rectangle", Size: 22},
}

var edgeStyles = map[graph.Predicate]EdgeStyle{
	graph.PredicateContains:         {Color: "#6b7280", LineStyle: "solid"},
	graph.PredicateAssignedTo:       {Color: "#f59e0b", LineStyle: "solid"},
	graph.PredicateMapsTo:           {Color: "#3b82f6", LineStyle: "dashed"},
	graph.PredicateRequiresEvidence: {Color: "#06b6d4", LineStyle: "dotted"},
	graph.PredicateResponsibilityOf: {Color: "#ef4444", LineStyle: "solid"},
	graph.PredicateDocumentedIn:     {Color: "#a78bfa", LineStyle: "dotted"},
	graph.PredicateInheritsFrom:     {Color: "#f97316", LineStyle: "solid"},
	graph.PredicatePartOf:           {Color: "#6b7280", LineStyle: "solid"},
	graph.PredicateSupersedes:       {Color: "#64748b", LineStyle: "dashed"},
}

var (
	defaultNodeStyle = NodeStyle{Color: "#6b7280", Shape: "ellipse", Size: 20}
	defaultEdgeStyle = EdgeStyle{Color: "#6b7280", LineStyle: "solid"}
)

// StyleOfKind returns the style for nodes of kind k
func StyleOfKind(k graph.NodeKind) NodeStyle {
	if s, ok := nodeStyles[k]; ok {
		return s
	}
	return defaultNodeStyle
}

// StyleOfPredicate returns the style for edges of predicate p
func StyleOfPredicate(p graph.Predicate) EdgeStyle {
	if s, ok := edgeStyles[p]; ok {
		return s
	}
	return defaultEdgeStyle
}

// BorderFor returns the emphasis ring for a node paint
func BorderFor(p interaction.Paint) Border {
	switch p {
	case interaction.PaintSelected:
		return Border{Color: "#f472b6", Width: 3}
	case interaction.PaintHighlighted:
		return Border{Color: "#fbbf24", Width: 3}
	case interaction.PaintNeighbor:
		return Border{Color: "#fbbf24", Width: 2}
	default:
		return Border{}
	}
}

// EdgeWidth returns the stroke width for an edge paint
func EdgeWidth(p interaction.Paint) int {
	if p == interaction.PaintSelected {
		return 3
	}
	return 1
}
