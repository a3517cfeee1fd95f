package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/observability"
	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/report"
)

type runFlags struct {
	job    string
	resume string
	all    bool
	format string
	output string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the four-step pipeline for one job posting and resume",
		Long: `Runs analyzeRequirements -> enhanceProfile -> polishResume -> prepareInterview and prints the interview guide.

Inputs may be local files (txt, md, pdf, docx, html), http(s) URLs or s3://bucket/key URIs.
Configuration can be loaded from a JSON or YAML file using --config. Command-line arguments override config file values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, g, f)
		},
	}

	cmd.Flags().StringVarP(&f.job, "job", "j", "", "Job posting source (defaults to JOB_POSTING_PATH)")
	cmd.Flags().StringVarP(&f.resume, "resume", "r", "", "Resume source (defaults to RESUME_PATH)")
	cmd.Flags().BoolVar(&f.all, "all", false, "Print every step's output, not only the interview guide")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json, markdown, html")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	return cmd
}

func inputOverrides(job, resume *string) []override {
	return []override{
		{"job", func(d, _ *config.Config) { d.JobPosting = *job }},
		{"resume", func(d, _ *config.Config) { d.Resume = *resume }},
	}
}

func runPipeline(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	ctx, stop := runContext(cmd)
	defer stop()

	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}

	cfg, err := g.resolve(cmd, inputOverrides(&f.job, &f.resume)...)
	if err != nil {
		return err
	}
	if cfg.JobPosting == "" || cfg.Resume == "" {
		return fmt.Errorf("--job and --resume must be provided (via flag, config or JOB_POSTING_PATH/RESUME_PATH)")
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	jobText, resumeText, err := loadInputs(ctx, cfg.JobPosting, cfg.Resume, ingestOptions(cfg, logger))
	if err != nil {
		return err
	}

	p, closeGen, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeGen() }()

	var printer *observability.Printer
	if cfg.Verbose {
		printer = observability.NewPrinter(cmd.ErrOrStderr())
		p = p.With(pipeline.WithProgress(printer.PrintProgress))
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	res, runErr := p.Run(ctx, jobText, resumeText)
	if res == nil {
		return runErr
	}
	saveResult(ctx, store, res, logger)
	if printer != nil {
		if res.State != nil {
			for _, step := range res.State.History {
				printer.PrintStepResult(step)
			}
		}
		printer.PrintRunSummary(res)
	}

	// A failed run still prints what the completed steps produced.
	opts := report.Options{All: f.all || runErr != nil}
	if err := writeReport(cmd.OutOrStdout(), f.output, report.FromResult(res), format, opts); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", res.RunID, runErr)
	}
	return nil
}

// writeReport renders rep to path, or to w when path is empty.
func writeReport(w io.Writer, path string, rep *report.Report, format report.Format, opts report.Options) error {
	if path == "" {
		return report.Render(w, rep, format, opts)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := report.Render(file, rep, format, opts); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Report written to %s\n", path)
	return nil
}

// runContext stops on interrupt or SIGTERM.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
