package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/server"
	"github.com/jonathan/resume-genie/internal/server/ratelimit"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start an HTTP server that exposes the pipeline: POST /runs, POST /runs/stream (SSE) and, with --db-url or --sqlite, run history under /runs.

Set RESUME_GENIE_JWT_SECRET to require bearer tokens; RATE_LIMIT_* variables tune rate limiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := runContext(cmd)
			defer stop()

			cfg, err := g.resolve(cmd, override{"port", func(d, _ *config.Config) { d.Port = port }})
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			jwtCfg, err := config.NewJWTConfig()
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

			srv, err := server.New(server.Config{
				Port:      cfg.Port,
				Pipeline:  p,
				Store:     store,
				Logger:    logger,
				JWT:       jwtCfg,
				RateLimit: ratelimit.LoadConfig(),
			})
			if err != nil {
				if store != nil {
					_ = store.Close()
				}
				return fmt.Errorf("failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	return cmd
}
