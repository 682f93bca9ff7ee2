// Command grc-explorer serves the GRC knowledge-graph explorer and ships the
// tooling around it: snapshot packing, inspection, tokens and one-shot
// questions to the assistant.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-grc-explorer/pkg/api"
	"github.com/dd0wney/cluso-grc-explorer/pkg/config"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.ZapLogger
)

var rootCmd = &cobra.Command{
	Use:   "grc-explorer",
	Short: "GRC knowledge-graph explorer",
	Long: `grc-explorer loads a GRC knowledge graph (frameworks, control families,
controls, baselines and their cross-framework mappings) and serves the
filtering, focus and interaction engine behind the explorer UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded
		// stdout belongs to the MCP transport when it is in use
		logger = logging.NewZapLogger(os.Stderr, logging.ParseLevel(cfg.Log.Level))
		logging.SetDefaultLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), api.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("GRC_CONFIG"), "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, mcpCmd, packCmd, inspectCmd, tokenCmd, askCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
