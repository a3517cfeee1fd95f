package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-genie/internal/pipeline"
)

// ErrNotFound is returned when a run or artifact does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// Run is a persisted pipeline run.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	CurrentStep string     `json:"current_step,omitempty"`
	FailedStep  string     `json:"failed_step,omitempty"`
	Error       string     `json:"error,omitempty"`
	JobPosting  string     `json:"job_posting"`
	Resume      string     `json:"resume"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Artifacts   int        `json:"artifacts"`
}

// Artifact is one step output of a persisted run.
type Artifact struct {
	RunID      uuid.UUID `json:"run_id"`
	Step       string    `json:"step"`
	Position   int       `json:"position"`
	Role       string    `json:"role"`
	Prompt     string    `json:"prompt,omitempty"`
	Text       string    `json:"text"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// RunFilter holds optional filters for listing runs.
type RunFilter struct {
	Status string
	Limit  int
	Offset int
}

// Store persists finished runs. It is implemented for PostgreSQL by DB and
// for SQLite by the sqlite subpackage.
type Store interface {
	pipeline.Sink
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) (*Artifact, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
	Close() error
}

// Records converts a pipeline result to its persisted form. Artifacts keep the
// order the steps ran in.
func Records(r *pipeline.Result) (Run, []Artifact) {
	run := Run{
		ID:        r.RunID,
		Status:    string(r.Status),
		StartedAt: r.StartedAt.UTC(),
	}
	if r.CurrentStep != 0 {
		run.CurrentStep = r.CurrentStep.String()
	}
	if r.FailedStep != 0 {
		run.FailedStep = r.FailedStep.String()
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	if !r.CompletedAt.IsZero() {
		completed := r.CompletedAt.UTC()
		run.CompletedAt = &completed
	}

	var artifacts []Artifact
	if r.State != nil {
		run.JobPosting = r.State.JobPosting.Text()
		run.Resume = r.State.Resume.Text()
		for i, h := range r.State.History {
			artifacts = append(artifacts, Artifact{
				RunID:      r.RunID,
				Step:       h.Step.String(),
				Position:   i + 1,
				Role:       string(h.Document.Role()),
				Prompt:     h.Prompt,
				Text:       h.Document.Text(),
				StartedAt:  h.StartedAt.UTC(),
				DurationMs: h.Duration.Milliseconds(),
			})
		}
	}
	run.Artifacts = len(artifacts)
	return run, artifacts
}

// Normalize fills defaults and validates the filter.
func (f RunFilter) Normalize() (RunFilter, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" {
		switch pipeline.Status(f.Status) {
		case pipeline.StatusRunning, pipeline.StatusCompleted, pipeline.StatusFailed, pipeline.StatusNotStarted:
		default:
			return f, errors.New("unknown run status: " + f.Status)
		}
	}
	return f, nil
}

// NormalizeStep accepts any spelling pipeline.ParseStepKind accepts and
// returns the canonical step name used as the artifact key.
func NormalizeStep(step string) (string, error) {
	kind, err := pipeline.ParseStepKind(step)
	if err != nil {
		return "", err
	}
	return kind.String(), nil
}
