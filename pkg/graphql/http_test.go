package graphql

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/graphql-go/graphql/language/parser"
)

func TestHandlerPOST(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(Request{Query: `query($id: ID!) { node(id: $id) { label } }`, Variables: map[string]any{"id": "CF1"}})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data struct {
			Node struct {
				Label string `json:"label"`
			} `json:"node"`
		} `json:"data"`
		Errors []Error `json:"errors"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	if resp.Data.Node.Label != "Access Control" {
		t.Errorf("label = %q, want Access Control", resp.Data.Node.Label)
	}
}

func TestHandlerGET(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ health }`), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"health":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHandlerRejects(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"method", http.MethodPut, "/graphql", `{"query":"{ health }"}`, http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "/graphql", `{"query":`, http.StatusBadRequest},
		{"missing query", http.MethodPost, "/graphql", `{}`, http.StatusBadRequest},
		{"bad variables", http.MethodGet, "/graphql?query=x&variables=%7B", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestQueryDepth(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"flat", `{ health }`, 1},
		{"one level", `{ node(id: "C1") { id label } }`, 2},
		{"nested", `{ node(id: "C1") { edges { targetNode { edges { id } } } } }`, 5},
		{"fragment", `query { node(id: "C1") { ...N } } fragment N on Node { edges { id } }`, 3},
		{"introspection ignored", `{ __schema { types { name } } health }`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.Parse(parser.ParseParams{Source: tt.query})
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := calculateQueryDepth(doc); got != tt.want {
				t.Errorf("depth = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandlerDepthLimit(t *testing.T) {
	h, _ := newTestHandler(t)
	h.maxDepth = 3

	deep := `{ node(id: "C1") { edges { targetNode { edges { id } } } } }`
	var data map[string]any
	errs := run(t, h, deep, nil, &data)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "exceeds maximum allowed depth 3") {
		t.Fatalf("errors = %v", errs)
	}
	if data != nil {
		t.Errorf("data = %v, want none", data)
	}

	if errs := run(t, h, `{ node(id: "C1") { edges { id } } }`, nil, nil); len(errs) > 0 {
		t.Errorf("depth 3 query rejected: %v", errs)
	}
}
