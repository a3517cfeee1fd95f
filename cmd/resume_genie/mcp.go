package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/mcptool"
)

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as an MCP tool over stdio",
		Long: `Runs a Model Context Protocol server on stdin/stdout exposing the "` + mcptool.ToolName + `" tool.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := runContext(cmd)
			defer stop()

			cfg, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			p, closeGen, err := buildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeGen() }()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			s := mcptool.NewServer(p, store, version, logger)
			errLog := log.New(cmd.ErrOrStderr(), "mcp: ", log.LstdFlags)
			return mcptool.Serve(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout(), errLog)
		},
	}
}
