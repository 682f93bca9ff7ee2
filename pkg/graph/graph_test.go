package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func sampleGraph() *Graph {
	nodes := []Node{
		{ID: "NIST", Kind: KindFramework, Label: "NIST 800-53"},
		{ID: "ISO", Kind: KindFramework, Label: "ISO 27001"},
		{ID: "NIST-AC", Kind: KindControlFamily, Label: "Access Control"},
		{ID: "NIST-AC-2", Kind: KindControl, Label: "Account Management"},
		{ID: "NIST-AC-2", Kind: KindControl, Label: "duplicate"},
	}
	edges := []Edge{
		{Source: "NIST", Target: "NIST-AC", Predicate: PredicateContains},
		{Source: "NIST-AC", Target: "NIST-AC-2", Predicate: PredicateContains},
		{Source: "NIST-AC-2", Target: "GHOST", Predicate: PredicateMapsTo},
		{Source: "NIST-AC-2", Target: "NIST-AC-2", Predicate: PredicateSupersedes},
	}
	return New(nodes, edges, nil)
}

func TestNewAssignsEdgeIDs(t *testing.T) {
	g := sampleGraph()

	for i, e := range g.Edges() {
		want := "e" + string(rune('0'+i))
		if e.ID != want {
			t.Errorf("edge %d id = %q, want %q", i, e.ID, want)
		}
	}
	if _, ok := g.Edge("e2"); !ok {
		t.Error("Edge(e2) not found")
	}
}

func TestNewKeepsFirstDuplicate(t *testing.T) {
	g := sampleGraph()

	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount() = %d, want 4", g.NodeCount())
	}
	if g.Duplicates() != 1 {
		t.Errorf("Duplicates() = %d, want 1", g.Duplicates())
	}
	n, _ := g.Node("NIST-AC-2")
	if n.Label != "Account Management" {
		t.Errorf("duplicate replaced first node: label %q", n.Label)
	}
}

func TestDanglingEdges(t *testing.T) {
	g := sampleGraph()

	e, _ := g.Edge("e2")
	if !g.Dangling(e) {
		t.Error("edge to GHOST should be dangling")
	}
	if g.DanglingCount() != 1 {
		t.Errorf("DanglingCount() = %d, want 1", g.DanglingCount())
	}
	if got := len(g.IncidentEdges("GHOST")); got != 1 {
		t.Errorf("IncidentEdges(GHOST) = %d edges, want 1", got)
	}
}

func TestIncidentEdgesSelfLoopOnce(t *testing.T) {
	g := sampleGraph()

	incident := g.IncidentEdges("NIST-AC-2")
	if len(incident) != 3 {
		t.Fatalf("IncidentEdges(NIST-AC-2) = %d edges, want 3", len(incident))
	}
	if !incident[2].SelfLoop() {
		t.Error("last incident edge should be the self-loop")
	}
	if other := incident[0].Other("NIST-AC-2"); other != "NIST-AC" {
		t.Errorf("Other() = %q, want NIST-AC", other)
	}
}

func TestFrameworksSortedByLabel(t *testing.T) {
	g := sampleGraph()

	fws := g.Frameworks()
	if len(fws) != 2 || fws[0].ID != "ISO" || fws[1].ID != "NIST" {
		t.Errorf("Frameworks() order wrong: %v", fws)
	}
}

func TestComputedStats(t *testing.T) {
	g := sampleGraph()

	stats := g.Stats()
	if stats.NodeTypes["Framework"] != 2 {
		t.Errorf("NodeTypes[Framework] = %d, want 2", stats.NodeTypes["Framework"])
	}
	if stats.EdgePredicates["CONTAINS"] != 2 {
		t.Errorf("EdgePredicates[CONTAINS] = %d, want 2", stats.EdgePredicates["CONTAINS"])
	}

	used := g.UsedPredicates()
	want := []Predicate{PredicateContains, PredicateMapsTo, PredicateSupersedes}
	if len(used) != len(want) {
		t.Fatalf("UsedPredicates() = %v, want %v", used, want)
	}
	for i := range want {
		if used[i] != want[i] {
			t.Errorf("UsedPredicates()[%d] = %s, want %s", i, used[i], want[i])
		}
	}
}

func TestPredicateRank(t *testing.T) {
	if PredicateContains.Rank() != 0 || PredicateMapsTo.Rank() != 1 {
		t.Error("unexpected rank for CONTAINS/MAPS_TO")
	}
	if Predicate("RELATED").Rank() != unrankedPredicate || Predicate("RELATED").Valid() {
		t.Error("unknown predicate should be unranked and invalid")
	}
	if !KindControl.Valid() || NodeKind("Person").Valid() {
		t.Error("NodeKind.Valid() wrong")
	}
}

func TestPayloadDefaultsConfidence(t *testing.T) {
	raw := `{
		"nodes": [{"id": "A", "type": "Control", "label": "a"}, {"id": "B", "type": "Control", "label": "b"}],
		"edges": [
			{"source": "A", "target": "B", "predicate": "MAPS_TO", "plane": "MAPPING"},
			{"source": "B", "target": "A", "predicate": "MAPS_TO", "plane": "MAPPING", "confidence": 0.4, "meta": {"coverage": "partial"}}
		],
		"stats": {"node_types": {"Control": 2}, "edge_predicates": {"MAPS_TO": 2}}
	}`

	p, err := DecodePayload(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	g := FromPayload(p)

	e0, _ := g.Edge("e0")
	e1, _ := g.Edge("e1")
	if e0.Confidence != DefaultConfidence {
		t.Errorf("missing confidence = %v, want %v", e0.Confidence, DefaultConfidence)
	}
	if e1.Confidence != 0.4 || e1.Meta["coverage"] != "partial" {
		t.Errorf("edge e1 = %+v", e1)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(g.Payload()); err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	if !strings.Contains(buf.String(), `"node_types":{"Control":2}`) {
		t.Errorf("stats not preserved: %s", buf.String())
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, err := DecodePayload(strings.NewReader("{not json"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("error %v should wrap *json.SyntaxError", err)
	}
}
