package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/source"
	"github.com/dd0wney/cluso-grc-explorer/pkg/validation"
)

var packStrict bool

var packCmd = &cobra.Command{
	Use:   "pack <from> <to>",
	Short: "Convert a graph source into a snapshot",
	Long: `Read a graph from any source (graph directory, snapshot, s3://, postgres://,
neo4j://) and write it as a flat snapshot to a file or s3:// location. A
destination ending in .sz is snappy-compressed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		from, err := source.Open(ctx, args[0])
		if err != nil {
			return err
		}
		defer func() { _ = from.Close() }()

		to, err := source.Open(ctx, args[1])
		if err != nil {
			return err
		}
		defer func() { _ = to.Close() }()
		w, ok := to.(source.Writer)
		if !ok {
			return fmt.Errorf("%s: %w", to, source.ErrReadOnly)
		}

		p, err := from.Load(ctx)
		if err != nil {
			return err
		}
		report := validation.CheckPayload(p)
		if !report.OK() {
			if packStrict {
				return fmt.Errorf("payload has %d invalid records: %w", len(report.Invalid), report.Err())
			}
			logger.Warn("payload has invalid records", logging.Count(len(report.Invalid)))
		}
		if err := w.Write(ctx, p); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "packed %d nodes and %d edges into %s\n", len(p.Nodes), len(p.Edges), to)
		return nil
	},
}

func init() {
	packCmd.Flags().BoolVar(&packStrict, "strict", false, "refuse payloads with invalid records")
}
