package graphql

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph/graphtest"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

func testGraph() *graph.Graph {
	return graphtest.New().
		LabeledNode("F1", graph.KindFramework, "Zeta Framework").
		LabeledNode("F2", graph.KindFramework, "Alpha Framework").
		LabeledNode("CF1", graph.KindControlFamily, "Access Control").
		LabeledNode("C1", graph.KindControl, "Account Management").
		LabeledNode("C2", graph.KindControl, "Access Enforcement").
		Node("C3", graph.KindControl).
		Edge("F1", "CF1", graph.PredicateContains).
		Edge("CF1", "C1", graph.PredicateContains).
		Edge("CF1", "C2", graph.PredicateContains).
		Edge("F2", "C3", graph.PredicateContains).
		Edge("C3", "C1", graph.PredicateMapsTo).
		Build()
}

func newTestHandler(t *testing.T) (*Handler, *session.Store) {
	t.Helper()
	store := session.NewStore(testGraph(), session.StoreOptions{})
	schema, err := NewSchema(&Backend{Sessions: store})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return NewHandler(schema, 0, nil), store
}

// run executes query and decodes its data into out
func run(t *testing.T, h *Handler, query string, vars map[string]any, out any) []Error {
	t.Helper()
	result := h.Execute(context.Background(), Request{Query: query, Variables: vars})
	var errs []Error
	for _, e := range result.Errors {
		errs = append(errs, Error{Message: e.Message})
	}
	if out != nil && result.Data != nil {
		data, err := json.Marshal(result.Data)
		if err != nil {
			t.Fatalf("marshal data: %v", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return errs
}

type nodeResult struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	Properties string `json:"properties"`
	Degree     int    `json:"degree"`
	Edges      []struct {
		Predicate  string `json:"predicate"`
		Source     string `json:"source"`
		TargetNode struct {
			ID string `json:"id"`
		} `json:"targetNode"`
	} `json:"edges"`
}

func TestNodeQuery(t *testing.T) {
	h, _ := newTestHandler(t)

	var data struct {
		Node *nodeResult `json:"node"`
	}
	errs := run(t, h, `{ node(id: "C1") { id kind label properties degree edges(direction: "in") { predicate source targetNode { id } } } }`, nil, &data)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if data.Node == nil {
		t.Fatal("node C1 not returned")
	}
	if data.Node.Kind != "Control" || data.Node.Label != "Account Management" {
		t.Errorf("node = %+v", data.Node)
	}
	if data.Node.Properties != "{}" {
		t.Errorf("properties = %q, want {}", data.Node.Properties)
	}
	if data.Node.Degree != 2 {
		t.Errorf("degree = %d, want 2", data.Node.Degree)
	}
	if len(data.Node.Edges) != 2 {
		t.Fatalf("incoming edges = %d, want 2", len(data.Node.Edges))
	}
	if data.Node.Edges[0].Predicate != "CONTAINS" || data.Node.Edges[1].Predicate != "MAPS_TO" {
		t.Errorf("edges not in predicate order: %+v", data.Node.Edges)
	}
	for _, e := range data.Node.Edges {
		if e.TargetNode.ID != "C1" {
			t.Errorf("incoming edge target = %s, want C1", e.TargetNode.ID)
		}
	}

	data.Node = nil
	run(t, h, `{ node(id: "NOPE") { id } }`, nil, &data)
	if data.Node != nil {
		t.Errorf("unknown node returned %+v", data.Node)
	}
}

func TestListQueries(t *testing.T) {
	h, _ := newTestHandler(t)

	var data struct {
		Controls   []nodeResult `json:"controls"`
		Frameworks []nodeResult `json:"frameworks"`
		Short      []nodeResult `json:"short"`
		Access     []nodeResult `json:"access"`
		Stats      struct {
			Nodes      int      `json:"nodes"`
			Edges      int      `json:"edges"`
			Predicates []string `json:"predicates"`
		} `json:"stats"`
	}
	query := `{
		controls: nodes(kind: "Control", limit: 2) { id }
		frameworks { id label }
		short: search(query: "a") { id }
		access: search(query: "  ACCESS ") { id }
		stats { nodes edges predicates }
	}`
	if errs := run(t, h, query, nil, &data); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(data.Controls) != 2 || data.Controls[0].ID != "C1" {
		t.Errorf("controls = %+v", data.Controls)
	}
	if len(data.Frameworks) != 2 || data.Frameworks[0].ID != "F2" {
		t.Errorf("frameworks not sorted by label: %+v", data.Frameworks)
	}
	if len(data.Short) != 0 {
		t.Errorf("one-character search returned %d nodes", len(data.Short))
	}
	ids := make([]string, 0, len(data.Access))
	for _, n := range data.Access {
		ids = append(ids, n.ID)
	}
	if strings.Join(ids, ",") != "CF1,C2" {
		t.Errorf("search access = %v, want [CF1 C2]", ids)
	}
	if data.Stats.Nodes != 6 || data.Stats.Edges != 5 {
		t.Errorf("stats = %+v", data.Stats)
	}
}

func TestSessionQueriesAndMutations(t *testing.T) {
	h, store := newTestHandler(t)
	s, err := store.Create(nil, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	vars := map[string]any{"s": s.ID()}

	var nav struct {
		Navigate bool `json:"navigate"`
		Missing  bool `json:"missing"`
	}
	errs := run(t, h, `mutation($s: ID!) { navigate(session: $s, id: "C2") missing: navigate(session: $s, id: "GHOST") }`, vars, &nav)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !nav.Navigate || nav.Missing {
		t.Errorf("navigate = %v, missing = %v", nav.Navigate, nav.Missing)
	}
	if id, ok := s.SelectedNodeID(); !ok || id != "C2" {
		t.Errorf("selected = %q, want C2", id)
	}

	var focus struct {
		FocusFramework struct {
			VisibleNodes int    `json:"visibleNodes"`
			Status       string `json:"status"`
			Filters      struct {
				Focus string `json:"focus"`
			} `json:"filters"`
		} `json:"focusFramework"`
	}
	errs = run(t, h, `mutation($s: ID!) { focusFramework(session: $s, id: "F2") { visibleNodes status(node: "C2") filters { focus } } }`, vars, &focus)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if focus.FocusFramework.Filters.Focus != "F2" {
		t.Errorf("focus = %q, want F2", focus.FocusFramework.Filters.Focus)
	}
	if focus.FocusFramework.Status != "faded" {
		t.Errorf("C2 status = %q, want faded", focus.FocusFramework.Status)
	}
	if focus.FocusFramework.VisibleNodes != 3 {
		t.Errorf("visibleNodes = %d, want 3", focus.FocusFramework.VisibleNodes)
	}

	errs = run(t, h, `mutation($s: ID!) { focusFramework(session: $s, id: "C1") { visibleNodes } }`, vars, nil)
	if len(errs) == 0 {
		t.Error("focusing a control should fail")
	}

	var view struct {
		Session struct {
			Selection struct {
				Kind string `json:"kind"`
				ID   string `json:"id"`
			} `json:"selection"`
			Query   string   `json:"query"`
			Matches []string `json:"matches"`
		} `json:"session"`
	}
	run(t, h, `mutation($s: ID!) { search(session: $s, query: "Enforce") { id } }`, vars, nil)
	if errs := run(t, h, `query($s: ID!) { session(session: $s) { selection { kind id } query matches } }`, vars, &view); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if view.Session.Selection.ID != "C2" || view.Session.Selection.Kind != "node" {
		t.Errorf("selection = %+v", view.Session.Selection)
	}
	if view.Session.Query != "enforce" || len(view.Session.Matches) != 1 {
		t.Errorf("query = %q matches = %v", view.Session.Query, view.Session.Matches)
	}

	var cleared struct {
		ClearSelection struct {
			Selection struct {
				Kind string `json:"kind"`
			} `json:"selection"`
		} `json:"clearSelection"`
	}
	run(t, h, `mutation($s: ID!) { clearSelection(session: $s) { selection { kind } } }`, vars, &cleared)
	if cleared.ClearSelection.Selection.Kind != "" {
		t.Errorf("selection kind after clear = %q", cleared.ClearSelection.Selection.Kind)
	}

	errs = run(t, h, `{ session(session: "missing") { id } }`, nil, nil)
	if len(errs) == 0 || !strings.Contains(errs[0].Message, "not found") {
		t.Errorf("missing session errors = %v", errs)
	}
}

func TestLimits(t *testing.T) {
	cfg := LimitConfig{DefaultLimit: 10, MaxLimit: 50}
	tests := []struct {
		requested, want int
	}{
		{-1, 10},
		{0, 0},
		{20, 20},
		{100, 50},
	}
	for _, tt := range tests {
		if got := applyLimit(tt.requested, &cfg); got != tt.want {
			t.Errorf("applyLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}

	if err := ValidateLimitConfig(&LimitConfig{DefaultLimit: 60, MaxLimit: 50}); err == nil {
		t.Error("default above max should be rejected")
	}
	if _, err := NewSchema(&Backend{Limits: LimitConfig{DefaultLimit: -1, MaxLimit: 5}}); err == nil {
		t.Error("NewSchema should reject invalid limits")
	}
}
