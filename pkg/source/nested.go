package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// Files of a graph directory
const (
	NodesFile  = "nodes.json"
	EdgesFile  = "edges.json"
	SchemaFile = "schema.json"
)

// planeNames maps edges.json plane keys to plane names. Other keys are
// upper-cased.
var planeNames = map[string]graph.Plane{
	"plane_compliance":     graph.PlaneCompliance,
	"plane_mapping":        graph.PlaneMapping,
	"plane_responsibility": graph.PlaneResponsibility,
	"plane_evidence":       graph.PlaneEvidence,
}

// PlaneName returns the plane for an edges.json plane key
func PlaneName(key string) graph.Plane {
	if p, ok := planeNames[key]; ok {
		return p
	}
	return graph.Plane(strings.ToUpper(key))
}

// node sections of nodes.json in payload order. Grouped sections hold an
// object of lists, the others a plain list.
var nodeSections = []struct {
	key     string
	grouped bool
}{
	{"frameworks", false},
	{"control_families", true},
	{"controls", true},
	{"baselines", false},
	{"service_models", false},
	{"evidence_types", false},
	{"document_types", false},
}

// LoadDir flattens a graph directory into a payload. schema.json is optional.
func LoadDir(dir string) (*graph.Payload, error) {
	nodesRaw, err := os.ReadFile(filepath.Join(dir, NodesFile))
	if err != nil {
		return nil, err
	}
	edgesRaw, err := os.ReadFile(filepath.Join(dir, EdgesFile))
	if err != nil {
		return nil, err
	}

	nodes, err := FlattenNodes(nodesRaw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NodesFile, err)
	}
	edges, err := FlattenEdges(edgesRaw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EdgesFile, err)
	}

	p := &graph.Payload{Nodes: nodes, Edges: edges}
	schemaRaw, err := os.ReadFile(filepath.Join(dir, SchemaFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		var schema struct {
			Planes     map[string]any `json:"planes"`
			Predicates map[string]any `json:"predicates"`
			Scoring    map[string]any `json:"scoring"`
		}
		if err := json.Unmarshal(schemaRaw, &schema); err != nil {
			return nil, fmt.Errorf("%s: %w", SchemaFile, err)
		}
		p.Planes, p.Predicates, p.Scoring = schema.Planes, schema.Predicates, schema.Scoring
	}

	p.Stats = payloadStats(p)
	return p, nil
}

func payloadStats(p *graph.Payload) graph.Stats {
	s := graph.Stats{NodeTypes: make(map[string]int), EdgePredicates: make(map[string]int)}
	for _, n := range p.Nodes {
		s.NodeTypes[n.Type]++
	}
	for _, e := range p.Edges {
		s.EdgePredicates[e.Predicate]++
	}
	return s
}

// nestedNode is a node entry of nodes.json: id, type and label plus any other
// attributes, which become props
type nestedNode map[string]any

func (n nestedNode) record() (graph.NodeRecord, error) {
	id, _ := n["id"].(string)
	if id == "" {
		return graph.NodeRecord{}, errors.New("node without id")
	}
	rec := graph.NodeRecord{ID: id}
	rec.Type, _ = n["type"].(string)
	rec.Label, _ = n["label"].(string)
	for k, v := range n {
		switch k {
		case "id", "type", "label":
			continue
		}
		if rec.Props == nil {
			rec.Props = make(map[string]any)
		}
		rec.Props[k] = v
	}
	return rec, nil
}

// FlattenNodes converts nested nodes.json content into node records. Grouped
// sections are visited in file order; non-list groups are skipped.
func FlattenNodes(raw []byte) ([]graph.NodeRecord, error) {
	top, err := orderedObject(raw)
	if err != nil {
		return nil, err
	}
	sections := make(map[string]json.RawMessage, len(top))
	for _, f := range top {
		sections[f.key] = f.value
	}

	var out []graph.NodeRecord
	appendList := func(raw json.RawMessage) error {
		var list []nestedNode
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		for _, n := range list {
			rec, err := n.record()
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	}

	for _, sec := range nodeSections {
		raw, ok := sections[sec.key]
		if !ok {
			continue
		}
		if !sec.grouped {
			if err := appendList(raw); err != nil {
				return nil, fmt.Errorf("%s: %w", sec.key, err)
			}
			continue
		}
		groups, err := orderedObject(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sec.key, err)
		}
		for _, g := range groups {
			if !isArray(g.value) {
				continue
			}
			if err := appendList(g.value); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", sec.key, g.key, err)
			}
		}
	}
	return out, nil
}

// nestedEdge is an edge entry of edges.json
type nestedEdge struct {
	S          string            `json:"s"`
	O          string            `json:"o"`
	P          string            `json:"p"`
	Confidence *float64          `json:"confidence"`
	Meta       map[string]string `json:"meta"`
}

// FlattenEdges converts nested edges.json content (planes of sections of edge
// lists) into edge records. Keys starting with "_" and values of the wrong
// shape are skipped. Missing confidence defaults to 1.0.
func FlattenEdges(raw []byte) ([]graph.EdgeRecord, error) {
	planes, err := orderedObject(raw)
	if err != nil {
		return nil, err
	}

	var out []graph.EdgeRecord
	for _, plane := range planes {
		if strings.HasPrefix(plane.key, "_") || !isObject(plane.value) {
			continue
		}
		planeName := PlaneName(plane.key)
		sections, err := orderedObject(plane.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", plane.key, err)
		}
		for _, sec := range sections {
			if strings.HasPrefix(sec.key, "_") || !isArray(sec.value) {
				continue
			}
			var list []nestedEdge
			if err := json.Unmarshal(sec.value, &list); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", plane.key, sec.key, err)
			}
			for _, e := range list {
				confidence := graph.DefaultConfidence
				if e.Confidence != nil {
					confidence = *e.Confidence
				}
				meta := e.Meta
				if meta == nil {
					meta = map[string]string{}
				}
				out = append(out, graph.EdgeRecord{
					Source:     e.S,
					Target:     e.O,
					Predicate:  e.P,
					Plane:      string(planeName),
					Confidence: &confidence,
					Meta:       meta,
				})
			}
		}
	}
	return out, nil
}

type field struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object into its members in document order
func orderedObject(raw []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		fields = append(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
