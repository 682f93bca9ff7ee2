package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-grc-explorer/pkg/auth"
)

var (
	tokenRole    string
	tokenSubject string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenRole != auth.RoleViewer && tokenRole != auth.RoleAdmin {
			return fmt.Errorf("unknown role %q (want %s or %s)", tokenRole, auth.RoleViewer, auth.RoleAdmin)
		}
		m, err := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("auth.secret: %w", err)
		}
		token, err := m.GenerateToken(tokenSubject, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleViewer, "token role (viewer or admin)")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "token subject")
}
