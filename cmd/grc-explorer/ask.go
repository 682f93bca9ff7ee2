package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

var askNode string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant one question about the graph",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		snap, err := loadOnce(ctx, cfg)
		if err != nil {
			return err
		}
		if _, ok := snap.Graph.Node(askNode); askNode != "" && !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, askNode)
		}

		svc, err := newChat(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		svc.SetGraph(snap.Graph, snap.Payload)

		answer, err := svc.Ask(ctx, chat.Request{
			Messages:     []chat.Message{{Role: chat.RoleUser, Content: strings.Join(args, " ")}},
			SelectedNode: askNode,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, answer)
		if refs := chat.NodeRefs(answer, snap.Graph); len(refs) > 0 {
			fmt.Fprintf(out, "\nreferenced: %s\n", strings.Join(refs, ", "))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askNode, "node", "", "id of the node the question is about")
}
