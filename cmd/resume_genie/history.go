package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/report"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored runs (requires --db-url or --sqlite)",
	}
	cmd.AddCommand(newHistoryListCmd(g), newHistoryShowCmd(g), newHistoryDeleteCmd(g))
	return cmd
}

// withStore resolves the config and opens the run store for fn.
func withStore(cmd *cobra.Command, g *globalFlags, fn func(store db.Store) error) error {
	cfg, err := g.resolve(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("run history requires --db-url, --sqlite or DATABASE_URL")
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func parseRunID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return id, nil
}

func newHistoryListCmd(g *globalFlags) *cobra.Command {
	var filter db.RunFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, g, func(store db.Store) error {
				f, err := filter.Normalize()
				if err != nil {
					return err
				}
				runs, err := store.ListRuns(cmd.Context(), f)
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					_, _ = fmt.Fprintln(out, "No runs found.")
					return nil
				}
				_, _ = fmt.Fprintf(out, "%-36s  %-10s  %-20s  %-19s  %s\n", "RUN ID", "STATUS", "FAILED STEP", "STARTED", "DURATION")
				for _, r := range runs {
					duration := "-"
					if r.CompletedAt != nil {
						duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
					}
					failed := r.FailedStep
					if failed == "" {
						failed = "-"
					}
					_, _ = fmt.Fprintf(out, "%-36s  %-10s  %-20s  %-19s  %s\n",
						r.ID, r.Status, failed, r.StartedAt.Local().Format(time.DateTime), duration)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only runs with this status: completed, failed")
	cmd.Flags().IntVar(&filter.Limit, "limit", db.DefaultListLimit, "Maximum runs to list")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Runs to skip")
	return cmd
}

func newHistoryShowCmd(g *globalFlags) *cobra.Command {
	var (
		all    bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			fmtKind, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return withStore(cmd, g, func(store db.Store) error {
				run, err := store.GetRun(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to get run %s: %w", id, err)
				}
				artifacts, err := store.ListArtifacts(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to list artifacts for run %s: %w", id, err)
				}
				return report.Render(cmd.OutOrStdout(), report.FromRecords(run, artifacts), fmtKind, report.Options{All: all})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Print every step's output, not only the interview guide")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, markdown, html")
	return cmd
}

func newHistoryDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, g, func(store db.Store) error {
				if err := store.DeleteRun(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to delete run %s: %w", id, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
				return nil
			})
		},
	}
}
