// Package mcp exposes explorer sessions to AI assistants as Model Context
// Protocol tools.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Implementation names the server to clients
var Implementation = &mcp.Implementation{
	Name:    "grc-explorer",
	Version: "dev",
}

// NewServer registers every tool of service on a new MCP server
func NewServer(service *Service) *mcp.Server {
	s := mcp.NewServer(Implementation, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_selected_node",
		Description: "Return the node currently selected in the graph viewer with its attributes and relationships.",
	}, service.GetSelectedNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "navigate_to_node",
		Description: "Select a node in the graph viewer and center the view on it. Reports false for unknown ids.",
	}, service.NavigateToNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Search node ids and labels and highlight the matches in the viewer.",
	}, service.SearchNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "focus_framework",
		Description: "Focus the viewer on one compliance framework and its cross-references. An empty framework clears the focus.",
	}, service.FocusFramework)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "describe_node",
		Description: "Describe any node: kind, label, attributes and relationships grouped by predicate.",
	}, service.DescribeNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "visible_counts",
		Description: "Count the nodes and edges visible under the current filters.",
	}, service.VisibleCounts)

	return s
}

// ServeStdio runs the server on stdin/stdout until ctx is done or the client
// disconnects
func ServeStdio(ctx context.Context, service *Service) error {
	return NewServer(service).Run(ctx, &mcp.StdioTransport{})
}
