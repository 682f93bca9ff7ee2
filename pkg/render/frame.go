// Package render describes what the rendering engine must draw and defines
// the interface the engine implements.
package render

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/visibility"
)

// NodeView is everything the renderer needs to draw one node
type NodeView struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Label   string    `json:"label"`
	Shown   bool      `json:"shown"`
	Classes []string  `json:"classes"`
	Paint   string    `json:"paint"`
	Opacity float64   `json:"opacity"`
	Style   NodeStyle `json:"style"`
	Border  Border    `json:"border"`
}

// EdgeView is everything the renderer needs to draw one edge
type EdgeView struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	Predicate  string    `json:"predicate"`
	Plane      string    `json:"plane,omitempty"`
	Confidence float64   `json:"confidence"`
	Shown      bool      `json:"shown"`
	Classes    []string  `json:"classes"`
	Paint      string    `json:"paint"`
	Opacity    float64   `json:"opacity"`
	Width      int       `json:"width"`
	Style      EdgeStyle `json:"style"`
}

// Frame is a complete render directive for one committed state
type Frame struct {
	Seq          uint64                `json:"seq"`
	Nodes        []NodeView            `json:"nodes"`
	Edges        []EdgeView            `json:"edges"`
	VisibleNodes int                   `json:"visible_nodes"`
	VisibleEdges int                   `json:"visible_edges"`
	TotalNodes   int                   `json:"total_nodes"`
	TotalEdges   int                   `json:"total_edges"`
	ShowLabels   bool                  `json:"show_labels"`
	Layout       string                `json:"layout"`
	Focus        string                `json:"focus,omitempty"`
	Query        string                `json:"query,omitempty"`
	Selection    interaction.Selection `json:"selection"`
}

// Node returns the view of node id
func (f Frame) Node(id string) (NodeView, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Edge returns the view of edge id
func (f Frame) Edge(id string) (EdgeView, bool) {
	for _, e := range f.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return EdgeView{}, false
}

// LayoutRequest asks the renderer to run a layout algorithm
type LayoutRequest struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options"`
}

// LayoutFor builds the request for a layout
func LayoutFor(l filter.Layout) LayoutRequest {
	return LayoutRequest{Name: string(l), Options: l.Options()}
}

// Overlays supplies the interaction flags of elements
type Overlays interface {
	NodeFlags(id string) interaction.Flag
	EdgeFlags(id string) interaction.Flag
}

// Compose builds the frame for a committed visibility result and the current
// interaction overlays
func Compose(g *graph.Graph, state filter.State, vis *visibility.Result, overlays Overlays) Frame {
	f := Frame{
		Nodes:        make([]NodeView, 0, g.NodeCount()),
		Edges:        make([]EdgeView, 0, g.EdgeCount()),
		VisibleNodes: vis.VisibleNodes,
		VisibleEdges: vis.VisibleEdges,
		TotalNodes:   g.NodeCount(),
		TotalEdges:   g.EdgeCount(),
		ShowLabels:   state.ShowLabels,
		Layout:       string(state.Layout),
		Focus:        vis.Focus,
	}

	for _, n := range g.Nodes() {
		status := vis.NodeStatus(n.ID)
		flags := overlays.NodeFlags(n.ID)
		paint := interaction.ResolvePaint(status, flags)
		f.Nodes = append(f.Nodes, NodeView{
			ID:      n.ID,
			Kind:    string(n.Kind),
			Label:   n.Label,
			Shown:   status.Shown(),
			Classes: nodeClasses(n, status, flags),
			Paint:   paint.String(),
			Opacity: paint.NodeOpacity(),
			Style:   StyleOfKind(n.Kind),
			Border:  BorderFor(paint),
		})
	}

	for _, e := range g.Edges() {
		status := vis.EdgeStatus(e.ID)
		flags := overlays.EdgeFlags(e.ID)
		paint := interaction.ResolvePaint(status, flags)
		f.Edges = append(f.Edges, EdgeView{
			ID:         e.ID,
			Source:     e.Source,
			Target:     e.Target,
			Predicate:  string(e.Predicate),
			Plane:      string(e.Plane),
			Confidence: e.Confidence,
			Shown:      status.Shown(),
			Classes:    edgeClasses(e, status, flags),
			Paint:      paint.String(),
			Opacity:    paint.EdgeOpacity(),
			Width:      EdgeWidth(paint),
			Style:      StyleOfPredicate(e.Predicate),
		})
	}

	return f
}

func nodeClasses(n *graph.Node, status visibility.Status, flags interaction.Flag) []string {
	classes := []string{string(n.Kind)}
	return withOverlayClasses(classes, status, flags)
}

func edgeClasses(e *graph.Edge, status visibility.Status, flags interaction.Flag) []string {
	var classes []string
	if e.Plane != "" {
		classes = append(classes, string(e.Plane))
	}
	classes = append(classes, "pred-"+string(e.Predicate))
	return withOverlayClasses(classes, status, flags)
}

// withOverlayClasses appends the faded tag and the interaction tags. Hidden
// elements carry neither.
func withOverlayClasses(classes []string, status visibility.Status, flags interaction.Flag) []string {
	if !status.Shown() {
		return classes
	}
	if status == visibility.Faded {
		classes = append(classes, "faded")
	}
	return append(classes, flags.Classes()...)
}
