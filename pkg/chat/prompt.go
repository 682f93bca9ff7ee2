package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

type compactNode struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

type compactEdge struct {
	S     string `json:"s"`
	O     string `json:"o"`
	P     string `json:"p"`
	Plane string `json:"plane"`
}

const instructions = `## Instructions

- When referencing node IDs, always use the exact ID from the graph (e.g., NIST-AC-2, SOC2-CC6.1). Users can click these to navigate the graph.
- Be concise and factual. Ground every answer in the graph data above.
- If asked about cross-framework mappings, trace through MAPS_TO edges.
- If asked about baselines (e.g., "FedRAMP Moderate controls"), use ASSIGNED_TO edges.
- If asked about evidence requirements, use REQUIRES_EVIDENCE edges.
- If asked about responsibility/shared responsibility, use RESPONSIBILITY_OF edges.
- If asked where controls are documented, use DOCUMENTED_IN edges.
- If a question cannot be answered from the graph, say so clearly.
- Format responses in markdown. Use bullet lists and tables when helpful.`

// SystemPrompt describes the schema and every node and edge of the graph in
// compact form. schema may be nil; the predicate and plane lists then come
// from the graph itself.
func SystemPrompt(g *graph.Graph, schema *graph.Payload) string {
	kinds := make([]string, 0, len(graph.AllKinds))
	for _, k := range graph.AllKinds {
		kinds = append(kinds, string(k))
	}

	var predicates []string
	planes := map[string]string{}
	if schema != nil {
		predicates = sortedKeys(schema.Predicates)
		for name, v := range schema.Planes {
			desc := ""
			if m, ok := v.(map[string]any); ok {
				desc, _ = m["description"].(string)
			}
			planes[name] = desc
		}
	}
	if len(predicates) == 0 {
		for _, p := range g.UsedPredicates() {
			predicates = append(predicates, string(p))
		}
	}
	if len(planes) == 0 {
		for _, e := range g.Edges() {
			if e.Plane != "" {
				planes[string(e.Plane)] = ""
			}
		}
	}

	nodes := make([]compactNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, compactNode{ID: n.ID, Type: string(n.Kind), Label: n.Label})
	}
	edges := make([]compactEdge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		edges = append(edges, compactEdge{S: e.Source, O: e.Target, P: string(e.Predicate), Plane: string(e.Plane)})
	}

	var b strings.Builder
	b.WriteString("You are the GRC Knowledge Graph assistant. You answer questions about governance, risk, and compliance (GRC) frameworks, controls, mappings, baselines, evidence requirements, and responsibility models, all based on the knowledge graph loaded in this viewer.\n\n")
	b.WriteString("## Graph Schema\n\n")
	fmt.Fprintf(&b, "Node types: %s\n", mustJSON(kinds))
	fmt.Fprintf(&b, "Predicates: %s\n", mustJSON(predicates))
	fmt.Fprintf(&b, "Planes: %s\n\n", mustJSON(planes))
	fmt.Fprintf(&b, "## Graph Data (%d nodes, %d edges)\n\n", g.NodeCount(), g.EdgeCount())
	fmt.Fprintf(&b, "Nodes:\n%s\n\n", mustJSON(nodes))
	fmt.Fprintf(&b, "Edges:\n%s\n\n", mustJSON(edges))
	b.WriteString(instructions)
	return b.String()
}

// WithSelection appends the selected node context to a system prompt
func WithSelection(system, nodeID string) string {
	if nodeID == "" {
		return system
	}
	return system + fmt.Sprintf("\n\n## Currently Selected Node\nThe user has selected node **%s** in the graph viewer. Use this context when relevant.", nodeID)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mustJSON marshals values that cannot fail to encode
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
