package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/report"
)

type batchFlags struct {
	concurrency int
	outputDir   string
	format      string
	all         bool
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	f := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch <inputs.yaml>",
		Short: "Run the pipeline for many job posting / resume pairs",
		Long: `Reads a YAML or JSON list of inputs and runs them concurrently. Each entry names its sources:

  - id: acme-backend
    job_posting: jobs/acme.pdf
    resume: resume.md

Runs are independent; one failing does not stop the others. The command fails if any run failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, f, args[0])
		},
	}

	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Runs in flight at once (default from config, 2)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Write one report per run into this directory")
	cmd.Flags().StringVarP(&f.format, "format", "f", "markdown", "Report format for --output-dir: text, json, markdown, html")
	cmd.Flags().BoolVar(&f.all, "all", false, "Include every step's output in reports")
	return cmd
}

// readBatchInputs parses a list of inputs. YAML is a superset of JSON, so one
// decoder serves both.
func readBatchInputs(path string) ([]pipeline.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs file: %w", err)
	}
	var inputs []pipeline.Input
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse inputs file: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("inputs file %s lists no runs", path)
	}

	seen := make(map[string]bool, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if in.ID == "" {
			in.ID = fmt.Sprintf("run-%d", i+1)
		}
		if seen[in.ID] {
			return nil, fmt.Errorf("duplicate input id %q", in.ID)
		}
		seen[in.ID] = true
		if in.JobPosting == "" || in.Resume == "" {
			return nil, fmt.Errorf("input %q needs both job_posting and resume", in.ID)
		}
	}
	return inputs, nil
}

func runBatch(cmd *cobra.Command, g *globalFlags, f *batchFlags, inputsPath string) error {
	ctx, stop := runContext(cmd)
	defer stop()

	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	cfg, err := g.resolve(cmd, override{"concurrency", func(d, _ *config.Config) { d.Concurrency = f.concurrency }})
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	inputs, err := readBatchInputs(inputsPath)
	if err != nil {
		return err
	}

	// Sources are resolved relative to the inputs file.
	base := filepath.Dir(inputsPath)
	opts := ingestOptions(cfg, logger)
	for i := range inputs {
		in := &inputs[i]
		jobText, resumeText, err := loadInputs(ctx, relativeTo(base, in.JobPosting), relativeTo(base, in.Resume), opts)
		if err != nil {
			return fmt.Errorf("input %q: %w", in.ID, err)
		}
		in.JobPosting, in.Resume = jobText, resumeText
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

	if f.outputDir != "" {
		if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	logger.Info("starting batch", "runs", len(inputs), "concurrency", cfg.Concurrency)
	results := pipeline.RunBatch(ctx, p, inputs, cfg.Concurrency)

	out := cmd.OutOrStdout()
	failed := 0
	for _, br := range results {
		if br.Err != nil {
			failed++
		}
		if br.Result == nil {
			_, _ = fmt.Fprintf(out, "%-20s %-10s %s\n", br.Input.ID, pipeline.StatusFailed, br.Err)
			continue
		}
		saveResult(ctx, store, br.Result, logger)

		line := fmt.Sprintf("%-20s %-10s %s %s", br.Input.ID, br.Result.Status, br.Result.RunID, br.Result.Duration().Round(time.Millisecond))
		if br.Err != nil {
			line += " " + br.Err.Error()
		}
		_, _ = fmt.Fprintln(out, line)

		if f.outputDir == "" {
			continue
		}
		path := filepath.Join(f.outputDir, br.Input.ID+extension(format))
		opts := report.Options{All: f.all || br.Err != nil}
		if err := writeReport(out, path, report.FromResult(br.Result), format, opts); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func relativeTo(base, source string) string {
	if config.IsRemote(source) || filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(base, source)
}

func extension(format report.Format) string {
	switch format {
	case report.FormatJSON:
		return ".json"
	case report.FormatMarkdown:
		return ".md"
	case report.FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}
