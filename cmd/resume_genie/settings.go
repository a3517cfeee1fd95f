package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/db/sqlite"
	"github.com/jonathan/resume-genie/internal/ingestion"
	"github.com/jonathan/resume-genie/internal/llm"
	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/prompts"
)

// override copies one explicitly set flag into the resolved config.
type override struct {
	flag  string
	apply func(dst, src *config.Config)
}

var globalOverrides = []override{
	{"provider", func(d, s *config.Config) { d.Provider = s.Provider }},
	{"tier", func(d, s *config.Config) { d.Tier = s.Tier }},
	{"model", func(d, s *config.Config) { d.Model = s.Model }},
	{"api-key", func(d, s *config.Config) { d.APIKey = s.APIKey }},
	{"base-url", func(d, s *config.Config) { d.BaseURL = s.BaseURL }},
	{"prompts", func(d, s *config.Config) { d.PromptsFile = s.PromptsFile }},
	{"step-timeout", func(d, s *config.Config) { d.StepTimeoutSeconds = s.StepTimeoutSeconds }},
	{"run-timeout", func(d, s *config.Config) { d.RunTimeoutSeconds = s.RunTimeoutSeconds }},
	{"validate-output", func(d, s *config.Config) { d.ValidateOutput = s.ValidateOutput }},
	{"use-browser", func(d, s *config.Config) { d.UseBrowser = s.UseBrowser }},
	{"verbose", func(d, s *config.Config) { d.Verbose = s.Verbose }},
	{"log-level", func(d, s *config.Config) { d.LogLevel = s.LogLevel }},
	{"log-format", func(d, s *config.Config) { d.LogFormat = s.LogFormat }},
	{"db-url", func(d, s *config.Config) { d.DatabaseURL = s.DatabaseURL }},
	{"sqlite", func(d, s *config.Config) { d.SQLitePath = s.SQLitePath }},
	{"s3-endpoint", func(d, s *config.Config) { d.S3Endpoint = s.S3Endpoint }},
	{"s3-region", func(d, s *config.Config) { d.S3Region = s.S3Region }},
}

// resolve builds the effective configuration in priority order: explicitly
// set flags, the config file, environment variables, then built-in defaults.
// local holds command-specific overrides read from the same flag values.
func (g *globalFlags) resolve(cmd *cobra.Command, local ...override) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if g.configPath != "" {
		loaded, err := config.LoadConfig(g.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Step 2: Apply CLI overrides, only for flags that were set
	for _, o := range slices.Concat(globalOverrides, local) {
		if cmd.Flags().Changed(o.flag) {
			o.apply(&cfg, &g.cfg)
		}
	}

	// Step 3: Environment, then defaults for anything still unset
	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger writes diagnostics to w so stdout stays free for reports and
// protocol traffic.
func newLogger(w io.Writer, cfg config.Config) (*slog.Logger, error) {
	level := cfg.LogLevel
	if cfg.Verbose && level == "info" {
		level = "debug"
	}
	return config.NewLogger(w, level, cfg.LogFormat)
}

// newGenerator builds the model backend for cfg. Tests replace it with a stub.
var newGenerator = func(ctx context.Context, cfg config.Config) (llm.Generator, func() error, error) {
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, nil, err
	}
	tier := llm.ModelTier(cfg.Tier)

	llmCfg := llm.DefaultConfigFor(provider)
	if cfg.Model != "" {
		llmCfg = llmCfg.WithModel(tier, cfg.Model)
	}
	if cfg.BaseURL != "" {
		llmCfg.BaseURL = cfg.BaseURL
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = llm.APIKeyFromEnv(provider)
	}
	if apiKey == "" && llm.APIKeyEnv(provider) != "" {
		return nil, nil, fmt.Errorf("%s environment variable or --api-key flag is required", llm.APIKeyEnv(provider))
	}

	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return llm.NewGenerator(client, tier), client.Close, nil
}

// buildPipeline wires the generator, prompts and limits from cfg. The
// returned function releases the model client.
func buildPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pipeline.Pipeline, func() error, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithStepTimeout(cfg.StepTimeout()),
		pipeline.WithRunTimeout(cfg.RunTimeout()),
		pipeline.WithOutputValidation(cfg.ValidateOutput),
	}
	if cfg.PromptsFile != "" {
		set, err := prompts.FromFile(cfg.PromptsFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithTemplates(set))
	}

	gen, closeGen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(gen, opts...), closeGen, nil
}

// openStore opens run history when a database is configured. It returns a
// nil Store otherwise.
func openStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return database, nil
	case cfg.SQLitePath != "":
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

func ingestOptions(cfg config.Config, logger *slog.Logger) *ingestion.Options {
	return &ingestion.Options{
		UseBrowser: cfg.UseBrowser,
		S3Config: ingestion.S3Config{
			Endpoint: cfg.S3Endpoint,
			Region:   cfg.S3Region,
		},
		Logger: logger,
	}
}

// loadInputs reads the job posting and resume text from their sources.
func loadInputs(ctx context.Context, job, resume string, opts *ingestion.Options) (string, string, error) {
	jobText, err := ingestion.Load(ctx, job, opts)
	if err != nil {
		return "", "", fmt.Errorf("failed to load job posting %s: %w", job, err)
	}
	resumeText, err := ingestion.Load(ctx, resume, opts)
	if err != nil {
		return "", "", fmt.Errorf("failed to load resume %s: %w", resume, err)
	}
	return jobText, resumeText, nil
}

// saveResult stores r when history is enabled. Failures are logged only.
func saveResult(ctx context.Context, store db.Store, r *pipeline.Result, logger *slog.Logger) {
	if store == nil || r == nil {
		return
	}
	if err := store.SaveResult(context.WithoutCancel(ctx), r); err != nil {
		logger.Warn("failed to save run", "run_id", r.RunID, "error", err)
	}
}
