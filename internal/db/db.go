// Package db persists finished pipeline runs and their artifacts in
// PostgreSQL.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-genie/internal/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// SchemaStatements splits an SQL script into individual statements.
func SchemaStatements(script string) []string {
	var stmts []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Migrate creates the tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range SchemaStatements(schemaSQL) {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// SaveResult upserts the run and replaces its artifacts in one transaction.
func (db *DB) SaveResult(ctx context.Context, r *pipeline.Result) error {
	run, artifacts := Records(r)

	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO runs (id, status, current_step, failed_step, error_message, job_posting, resume, started_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			     status = EXCLUDED.status,
			     current_step = EXCLUDED.current_step,
			     failed_step = EXCLUDED.failed_step,
			     error_message = EXCLUDED.error_message,
			     completed_at = EXCLUDED.completed_at`,
			run.ID, run.Status, run.CurrentStep, run.FailedStep, run.Error,
			run.JobPosting, run.Resume, run.StartedAt, run.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM run_artifacts WHERE run_id = $1`, run.ID); err != nil {
			return fmt.Errorf("failed to clear artifacts: %w", err)
		}

		batch := &pgx.Batch{}
		for _, a := range artifacts {
			batch.Queue(
				`INSERT INTO run_artifacts (run_id, step, position, role, prompt, text_content, started_at, duration_ms)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				a.RunID, a.Step, a.Position, a.Role, a.Prompt, a.Text, a.StartedAt, a.DurationMs,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to save artifacts: %w", err)
			}
		}
		return nil
	})
}

const runColumns = `r.id, r.status, r.current_step, r.failed_step, r.error_message, r.job_posting, r.resume,
	r.started_at, r.completed_at, (SELECT COUNT(*) FROM run_artifacts a WHERE a.run_id = r.id)`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Status, &run.CurrentStep, &run.FailedStep, &run.Error,
		&run.JobPosting, &run.Resume, &run.StartedAt, &run.CompletedAt, &run.Artifacts)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (db *DB) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM runs r WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND r.status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY r.started_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const artifactColumns = `run_id, step, position, role, prompt, text_content, started_at, duration_ms`

func scanArtifact(row pgx.Row) (*Artifact, error) {
	var a Artifact
	if err := row.Scan(&a.RunID, &a.Step, &a.Position, &a.Role, &a.Prompt, &a.Text, &a.StartedAt, &a.DurationMs); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArtifacts returns a run's artifacts in step order. A missing run is
// ErrNotFound; a run with no artifacts returns an empty slice.
func (db *DB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error) {
	if _, err := db.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+artifactColumns+` FROM run_artifacts WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

// GetArtifact returns one step's output. The step may be given in any form
// pipeline.ParseStepKind accepts.
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) (*Artifact, error) {
	name, err := NormalizeStep(step)
	if err != nil {
		return nil, err
	}

	a, err := scanArtifact(db.pool.QueryRow(ctx,
		`SELECT `+artifactColumns+` FROM run_artifacts WHERE run_id = $1 AND step = $2`, runID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s of run %s: %w", name, runID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", name, err)
	}
	return a, nil
}

// DeleteRun deletes a run and its artifacts (via cascade).
func (db *DB) DeleteRun(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}
