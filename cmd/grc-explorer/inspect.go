package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/validation"
)

var inspectJSON bool

// errInvalidPayload marks inspect failures caused by the payload itself
var errInvalidPayload = errors.New("invalid payload")

// inspectReport is the machine-readable inspect output
type inspectReport struct {
	Source     string         `json:"source"`
	Nodes      int            `json:"nodes"`
	Edges      int            `json:"edges"`
	Frameworks []string       `json:"frameworks"`
	Kinds      map[string]int `json:"kinds"`
	Predicates map[string]int `json:"predicates"`
	Dangling   int            `json:"dangling"`
	Duplicates int            `json:"duplicates"`
	Invalid    []string       `json:"invalid,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [source]",
	Short: "Summarize and validate a graph source",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.Graph.Source = args[0]
		}
		snap, err := loadOnce(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		report := buildReport(cfg.Graph.Source, snap.Graph, snap.Payload)
		out := cmd.OutOrStdout()
		if inspectJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(cmd, report)
		}
		if len(report.Invalid) > 0 {
			return fmt.Errorf("%w: %d invalid records", errInvalidPayload, len(report.Invalid))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the report as JSON")
}

func buildReport(src string, g *graph.Graph, p *graph.Payload) inspectReport {
	check := validation.CheckPayload(p)
	stats := g.Stats()
	r := inspectReport{
		Source:     src,
		Nodes:      g.NodeCount(),
		Edges:      g.EdgeCount(),
		Kinds:      stats.NodeTypes,
		Predicates: stats.EdgePredicates,
		Dangling:   g.DanglingCount(),
		Duplicates: g.Duplicates(),
	}
	for _, fw := range g.Frameworks() {
		r.Frameworks = append(r.Frameworks, fw.ID)
	}
	for _, err := range check.Invalid {
		r.Invalid = append(r.Invalid, err.Error())
	}
	return r
}

func printReport(cmd *cobra.Command, r inspectReport) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "source\t%s\n", r.Source)
	fmt.Fprintf(tw, "nodes\t%d\n", r.Nodes)
	fmt.Fprintf(tw, "edges\t%d\n", r.Edges)
	fmt.Fprintf(tw, "frameworks\t%d\n", len(r.Frameworks))
	fmt.Fprintf(tw, "dangling edges\t%d\n", r.Dangling)
	fmt.Fprintf(tw, "duplicate ids\t%d\n", r.Duplicates)
	fmt.Fprintln(tw)
	for _, k := range sortedKeys(r.Kinds) {
		fmt.Fprintf(tw, "  %s\t%d\n", k, r.Kinds[k])
	}
	fmt.Fprintln(tw)
	for _, k := range sortedKeys(r.Predicates) {
		fmt.Fprintf(tw, "  %s\t%d\n", k, r.Predicates[k])
	}
	_ = tw.Flush()

	for _, msg := range r.Invalid {
		fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %s\n", msg)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
