package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// detailMarkdown renders the detail panel as markdown for glamour
func detailMarkdown(d session.Detail) string {
	var b strings.Builder
	switch {
	case d.Node != nil:
		n := d.Node
		fmt.Fprintf(&b, "# %s\n\n`%s` · %s\n\n", n.Label, n.ID, n.Kind)
		if len(n.Attributes) > 0 {
			b.WriteString("| attribute | value |\n|---|---|\n")
			for _, a := range n.Attributes {
				fmt.Fprintf(&b, "| %s | %s |\n", a.Key, escapeCell(a.Value))
			}
			b.WriteString("\n")
		}
		for _, g := range n.Groups {
			fmt.Fprintf(&b, "## %s (%d)\n\n", g.Predicate, len(g.Links))
			for _, l := range g.Links {
				fmt.Fprintf(&b, "- %s `%s`", l.Arrow(), l.OtherID)
				if l.Confidence < 1 {
					fmt.Fprintf(&b, " · confidence %.2f", l.Confidence)
				}
				if l.Coverage != "" {
					fmt.Fprintf(&b, " · %s", l.Coverage)
				}
				if l.ResponsibilityType != "" {
					fmt.Fprintf(&b, " · %s", l.ResponsibilityType)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	case d.Edge != nil:
		e := d.Edge
		fmt.Fprintf(&b, "# %s\n\n`%s` → `%s`\n\n", e.Predicate, e.Source, e.Target)
		fmt.Fprintf(&b, "- plane: %s\n- confidence: %.2f\n", e.Plane, e.Confidence)
		for _, k := range sortedMeta(e.Meta) {
			fmt.Fprintf(&b, "- %s: %s\n", k, e.Meta[k])
		}
	default:
		b.WriteString("_Nothing selected._ Pick a node in the Graph view.\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func sortedMeta(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
