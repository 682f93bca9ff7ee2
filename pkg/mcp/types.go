package mcp

import "github.com/dd0wney/cluso-grc-explorer/pkg/session"

// --- Tool Arguments ---

type SessionArgs struct {
	Session string `json:"session,omitempty" jsonschema:"Explorer session id. Defaults to the most recently created session"`
}

type NavigateArgs struct {
	Session string `json:"session,omitempty" jsonschema:"Explorer session id. Defaults to the most recently created session"`
	ID      string `json:"id" jsonschema:"Node id to select and center, e.g. NIST-AC-2"`
}

type SearchArgs struct {
	Session string `json:"session,omitempty" jsonschema:"Explorer session id. Defaults to the most recently created session"`
	Query   string `json:"query" jsonschema:"Case-insensitive substring of a node id or label, at least 2 characters"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max number of matches to return (default 20)"`
}

type FocusArgs struct {
	Session   string `json:"session,omitempty" jsonschema:"Explorer session id. Defaults to the most recently created session"`
	Framework string `json:"framework,omitempty" jsonschema:"Framework node id to focus. Empty clears the focus"`
}

type DescribeArgs struct {
	Session string `json:"session,omitempty" jsonschema:"Explorer session id. Defaults to the most recently created session"`
	ID      string `json:"id" jsonschema:"Node id to describe"`
}

// --- Tool Results ---

type NodeSummary struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

type SelectedResult struct {
	Session  string              `json:"session"`
	Selected bool                `json:"selected"`
	Node     *session.NodeDetail `json:"node,omitempty"`
}

type NavigateResult struct {
	Session   string `json:"session"`
	Navigated bool   `json:"navigated"`
}

type SearchResult struct {
	Session string        `json:"session"`
	Query   string        `json:"query"`
	Total   int           `json:"total"`
	Matches []NodeSummary `json:"matches"`
}

type FocusResult struct {
	Session      string `json:"session"`
	Focus        string `json:"focus"`
	VisibleNodes int    `json:"visible_nodes"`
	VisibleEdges int    `json:"visible_edges"`
}

type CountsResult struct {
	Session      string `json:"session"`
	VisibleNodes int    `json:"visible_nodes"`
	VisibleEdges int    `json:"visible_edges"`
	TotalNodes   int    `json:"total_nodes"`
	TotalEdges   int    `json:"total_edges"`
	Focus        string `json:"focus,omitempty"`
}
