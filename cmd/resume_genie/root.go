package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/config"
)

// globalFlags are shared by every subcommand. Values land in cfg and only
// override the config file when the flag was set explicitly.
type globalFlags struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "resume_genie",
		Short:         "Tailor a resume to a job posting with a four-step prompt chain",
		Long:          "ResumeGenie analyzes a job posting, enhances the candidate profile, polishes the resume and prepares an interview guide, one model call per step.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	fs := root.PersistentFlags()
	fs.StringVar(&g.configPath, "config", "", "Path to a JSON or YAML config file (flags override its values)")
	fs.StringVar(&g.cfg.Provider, "provider", "", "Model provider: gemini, genai, openai, anthropic, ollama, qwen, ark, deepseek")
	fs.StringVar(&g.cfg.Tier, "tier", "", "Model tier: lite, standard, advanced")
	fs.StringVar(&g.cfg.Model, "model", "", "Model name (overrides the tier's default)")
	fs.StringVar(&g.cfg.APIKey, "api-key", "", "Provider API key (defaults to the provider's env var, e.g. GEMINI_API_KEY)")
	fs.StringVar(&g.cfg.BaseURL, "base-url", "", "Provider endpoint override")
	fs.StringVar(&g.cfg.PromptsFile, "prompts", "", "JSON file overriding the built-in prompt templates")
	fs.IntVar(&g.cfg.StepTimeoutSeconds, "step-timeout", 0, "Seconds allowed per step (0 = no limit)")
	fs.IntVar(&g.cfg.RunTimeoutSeconds, "run-timeout", 0, "Seconds allowed per run (0 = no limit)")
	fs.BoolVar(&g.cfg.ValidateOutput, "validate-output", false, "Fail a step whose output does not match its JSON schema")
	fs.BoolVar(&g.cfg.UseBrowser, "use-browser", false, "Render job pages in headless Chrome when plain HTTP returns too little text")
	fs.BoolVarP(&g.cfg.Verbose, "verbose", "v", false, "Print each step's output as it completes")
	fs.StringVar(&g.cfg.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.StringVar(&g.cfg.LogFormat, "log-format", "", "Log format: text, json")
	fs.StringVar(&g.cfg.DatabaseURL, "db-url", "", "PostgreSQL URL for run history (defaults to DATABASE_URL)")
	fs.StringVar(&g.cfg.SQLitePath, "sqlite", "", "SQLite file for run history")
	fs.StringVar(&g.cfg.S3Endpoint, "s3-endpoint", "", "S3-compatible endpoint for s3:// inputs (defaults to S3_ENDPOINT)")
	fs.StringVar(&g.cfg.S3Region, "s3-region", "", "Region for s3:// inputs (defaults to AWS_REGION)")

	root.AddCommand(
		newRunCmd(g),
		newBatchCmd(g),
		newServeCmd(g),
		newWorkerCmd(g),
		newSubmitCmd(g),
		newMCPCmd(g),
		newHistoryCmd(g),
		newTokenCmd(),
		newSchemaCmd(),
		newPromptsCmd(g),
	)
	return root
}
