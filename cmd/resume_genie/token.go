package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/server"
)

func newTokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API server",
		Long:  "Signs a token with RESUME_GENIE_JWT_SECRET, valid for RESUME_GENIE_JWT_EXPIRATION_HOURS (default 24).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtCfg, err := config.NewJWTConfig()
			if err != nil {
				return err
			}
			if jwtCfg == nil {
				return fmt.Errorf("%s environment variable is required", config.JWTSecretEnv)
			}
			token, err := server.NewJWTService(jwtCfg).GenerateToken(subject)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject, logged with each request")
	return cmd
}
