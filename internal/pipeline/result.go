package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a run.
type Status string

// Run statuses
const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Result is the outcome of one run.
type Result struct {
	RunID  uuid.UUID
	Status Status
	// CurrentStep is the step being run, or the last one entered.
	CurrentStep StepKind
	// FailedStep is zero unless Status is StatusFailed.
	FailedStep  StepKind
	Err         error
	State       *State
	StartedAt   time.Time
	CompletedAt time.Time
}

// newResult returns a Result for a run that has not started yet.
func newResult(jobPosting, resume string) *Result {
	return &Result{
		RunID:  uuid.New(),
		Status: StatusNotStarted,
		State:  newState(jobPosting, resume),
	}
}

// Final returns the interview guide, the run's final artifact. It is the zero
// Document if the run did not complete.
func (r *Result) Final() Document {
	if r == nil || r.State == nil {
		return Document{}
	}
	return r.State.InterviewGuide
}

// Artifacts returns every document the run produced, in production order.
func (r *Result) Artifacts() []Document {
	if r == nil || r.State == nil {
		return nil
	}
	docs := make([]Document, 0, len(r.State.History))
	for _, h := range r.State.History {
		docs = append(docs, h.Document)
	}
	return docs
}

// Duration returns how long the run took, or has taken so far.
func (r *Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ArtifactView is the JSON shape of one step output.
type ArtifactView struct {
	Step       string    `json:"step"`
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// ResultView is the JSON shape of a Result.
type ResultView struct {
	RunID       string         `json:"run_id"`
	Status      Status         `json:"status"`
	FailedStep  string         `json:"failed_step,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Final       string         `json:"final,omitempty"`
	Artifacts   []ArtifactView `json:"artifacts"`
}

// View converts the result to its JSON shape.
func (r *Result) View() ResultView {
	v := ResultView{
		RunID:     r.RunID.String(),
		Status:    r.Status,
		StartedAt: r.StartedAt,
		Final:     r.Final().Text(),
		Artifacts: []ArtifactView{},
	}
	if r.FailedStep != 0 {
		v.FailedStep = r.FailedStep.String()
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	if !r.CompletedAt.IsZero() {
		completed := r.CompletedAt
		v.CompletedAt = &completed
	}
	if r.State != nil {
		for _, h := range r.State.History {
			v.Artifacts = append(v.Artifacts, ArtifactView{
				Step:       h.Step.String(),
				Role:       h.Document.Role(),
				Text:       h.Document.Text(),
				StartedAt:  h.StartedAt,
				DurationMs: h.Duration.Milliseconds(),
			})
		}
	}
	return v
}

// MarshalJSON encodes the result using View.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.View())
}

// Sink receives finished runs. Database stores implement it.
type Sink interface {
	SaveResult(ctx context.Context, r *Result) error
}
