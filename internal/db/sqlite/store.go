// Package sqlite stores finished pipeline runs in a local SQLite file, for
// single-user CLI history without a database server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
}

var _ db.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps :memory: databases alive and serializes writers.
	conn.SetMaxOpenConns(1)

	s, err := New(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open connection, running migrations on first use.
func New(ctx context.Context, conn *sql.DB) (*Store, error) {
	s := &Store{db: conn}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate run store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	for _, stmt := range db.SchemaStatements(schemaSQL) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// SaveResult upserts the run and replaces its artifacts in one transaction.
func (s *Store) SaveResult(ctx context.Context, r *pipeline.Result) (err error) {
	run, artifacts := db.Records(r)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var completed sql.NullString
	if run.CompletedAt != nil {
		completed = sql.NullString{String: formatTime(*run.CompletedAt), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, current_step, failed_step, error_message, job_posting, resume, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     status = excluded.status,
		     current_step = excluded.current_step,
		     failed_step = excluded.failed_step,
		     error_message = excluded.error_message,
		     completed_at = excluded.completed_at`,
		run.ID.String(), run.Status, run.CurrentStep, run.FailedStep, run.Error,
		run.JobPosting, run.Resume, formatTime(run.StartedAt), completed,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM run_artifacts WHERE run_id = ?`, run.ID.String()); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}

	for _, a := range artifacts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_artifacts (run_id, step, position, role, prompt, text_content, started_at, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.RunID.String(), a.Step, a.Position, a.Role, a.Prompt, a.Text, formatTime(a.StartedAt), a.DurationMs,
		)
		if err != nil {
			return fmt.Errorf("save artifact %s: %w", a.Step, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const runColumns = `r.id, r.status, r.current_step, r.failed_step, r.error_message, r.job_posting, r.resume,
	r.started_at, r.completed_at, (SELECT COUNT(*) FROM run_artifacts a WHERE a.run_id = r.id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*db.Run, error) {
	var (
		run       db.Run
		id        string
		started   string
		completed sql.NullString
	)
	err := row.Scan(&id, &run.Status, &run.CurrentStep, &run.FailedStep, &run.Error,
		&run.JobPosting, &run.Resume, &started, &completed, &run.Artifacts)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad run id %q: %w", id, err)
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("bad started_at: %w", err)
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, fmt.Errorf("bad completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*db.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, db.ErrNotFound)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, filter db.RunFilter) ([]db.Run, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM runs r`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE r.status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY r.started_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []db.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const artifactColumns = `run_id, step, position, role, prompt, text_content, started_at, duration_ms`

func scanArtifact(row scanner) (*db.Artifact, error) {
	var (
		a       db.Artifact
		runID   string
		started string
	)
	if err := row.Scan(&runID, &a.Step, &a.Position, &a.Role, &a.Prompt, &a.Text, &started, &a.DurationMs); err != nil {
		return nil, err
	}
	var err error
	if a.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("bad run id %q: %w", runID, err)
	}
	if a.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("bad started_at: %w", err)
	}
	return &a, nil
}

// ListArtifacts returns a run's artifacts in step order.
func (s *Store) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]db.Artifact, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM run_artifacts WHERE run_id = ? ORDER BY position`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []db.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

// GetArtifact returns one step's output.
func (s *Store) GetArtifact(ctx context.Context, runID uuid.UUID, step string) (*db.Artifact, error) {
	name, err := db.NormalizeStep(step)
	if err != nil {
		return nil, err
	}

	a, err := scanArtifact(s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM run_artifacts WHERE run_id = ? AND step = ?`, runID.String(), name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s of run %s: %w", name, runID, db.ErrNotFound)
		}
		return nil, fmt.Errorf("get artifact %s: %w", name, err)
	}
	return a, nil
}

// DeleteRun deletes a run and its artifacts.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_artifacts WHERE run_id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete artifacts: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, db.ErrNotFound)
	}
	return nil
}
