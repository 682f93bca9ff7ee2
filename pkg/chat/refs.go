package chat

import (
	"regexp"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

var nodeRefPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]*(?:-[A-Za-z0-9.]+)+\b`)

// NodeRefs returns the node ids mentioned in text that exist in g, in order
// of first mention
func NodeRefs(text string, g *graph.Graph) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range nodeRefPattern.FindAllString(text, -1) {
		if seen[m] || !g.HasNode(m) {
			continue
		}
		seen[m] = true
		refs = append(refs, m)
	}
	return refs
}

// LinkNodeRefs rewrites node ids in markdown text with wrap, leaving unknown
// ids untouched
func LinkNodeRefs(text string, g *graph.Graph, wrap func(id string) string) string {
	return nodeRefPattern.ReplaceAllStringFunc(text, func(m string) string {
		if !g.HasNode(m) {
			return m
		}
		return wrap(m)
	})
}
