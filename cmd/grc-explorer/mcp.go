package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-grc-explorer/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the explorer tools over MCP on stdin/stdout",
	Long: `Serve the explorer over the Model Context Protocol without the HTTP API.
Sessions are created on demand; logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cache, err := openCache(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer func() { _ = cache.Close() }()
		snap, err := cache.Reload(ctx)
		if err != nil {
			return fmt.Errorf("initial graph load: %w", err)
		}

		store := newStore(cfg, logger, nil)
		store.SetGraph(snap.Graph)
		return mcp.ServeStdio(ctx, mcp.NewService(store, nil, logger))
	},
}
