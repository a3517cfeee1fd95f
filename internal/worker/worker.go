// Package worker runs pipeline requests taken from a RabbitMQ queue and
// publishes status updates for each run.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/resume-genie/internal/pipeline"
)

// Broker names
const (
	QueueName       = "resume_genie.runs"
	UpdatesExchange = "resume_genie.updates"
)

// Update statuses
const (
	StatusProcessing    = "processing"
	StatusStepCompleted = "step_completed"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusRejected      = "rejected"
)

// Request is the JSON body of a queued run.
type Request struct {
	// ID is an optional caller correlation ID echoed in every update.
	ID             string `json:"id,omitempty"`
	JobPosting     string `json:"job_posting"`
	Resume         string `json:"resume"`
	ValidateOutput bool   `json:"validate_output,omitempty"`
}

// Update is published to UpdatesExchange as the run progresses.
type Update struct {
	RunID     string    `json:"run_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Status    string    `json:"status"`
	Step      string    `json:"step,omitempty"`
	Message   string    `json:"message"`
	Final     string    `json:"final,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoutingKey is "run.<run id>", or "run.<request id>" for requests rejected
// before a run existed.
func (u Update) RoutingKey() string {
	switch {
	case u.RunID != "":
		return "run." + u.RunID
	case u.RequestID != "":
		return "run." + u.RequestID
	default:
		return "run.unknown"
	}
}

// Publisher sends status updates.
type Publisher interface {
	PublishUpdate(ctx context.Context, u Update) error
}

// ErrBadRequest marks messages that can never succeed. They are dropped
// rather than requeued.
var ErrBadRequest = errors.New("bad run request")

// Worker turns requests into pipeline runs.
type Worker struct {
	pipeline  *pipeline.Pipeline
	sink      pipeline.Sink
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a worker. sink may be nil.
func New(p *pipeline.Pipeline, sink pipeline.Sink, pub Publisher, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{
		pipeline:  p,
		sink:      sink,
		publisher: pub,
		logger:    logger.With("component", "worker"),
		now:       time.Now,
	}
}

// Handle processes one message body. It returns an error wrapping
// ErrBadRequest for undecodable or empty requests and the run error for
// failed runs. Updates are published in both cases.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		w.publish(ctx, Update{Status: StatusRejected, Message: "invalid request", Error: err.Error()})
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	p := w.pipeline.With(pipeline.WithProgress(func(ev pipeline.ProgressEvent) {
		switch ev.Status {
		case pipeline.EventRunStarted:
			w.publish(ctx, Update{RunID: ev.RunID, RequestID: req.ID, Status: StatusProcessing, Message: ev.Message})
		case pipeline.EventStepCompleted:
			w.publish(ctx, Update{RunID: ev.RunID, RequestID: req.ID, Status: StatusStepCompleted, Step: ev.Step, Message: ev.Message})
		}
	}))
	if req.ValidateOutput {
		p = p.With(pipeline.WithOutputValidation(true))
	}

	res, err := p.Run(ctx, req.JobPosting, req.Resume)
	if res == nil {
		w.publish(ctx, Update{RequestID: req.ID, Status: StatusRejected, Message: "invalid request", Error: err.Error()})
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if w.sink != nil {
		if serr := w.sink.SaveResult(context.WithoutCancel(ctx), res); serr != nil {
			w.logger.Error("failed to save run", "run_id", res.RunID.String(), "error", serr)
		}
	}

	if err != nil {
		w.publish(ctx, Update{
			RunID:     res.RunID.String(),
			RequestID: req.ID,
			Status:    StatusFailed,
			Step:      res.FailedStep.String(),
			Message:   fmt.Sprintf("Run failed at %s", res.FailedStep),
			Error:     err.Error(),
		})
		return err
	}

	w.publish(ctx, Update{
		RunID:     res.RunID.String(),
		RequestID: req.ID,
		Status:    StatusCompleted,
		Message:   "Run completed",
		Final:     res.Final().Text(),
	})
	w.logger.Info("run completed", "run_id", res.RunID.String(), "request_id", req.ID, "duration", res.Duration())
	return nil
}

// publish sends u. Failures are logged, not returned.
func (w *Worker) publish(ctx context.Context, u Update) {
	if w.publisher == nil {
		return
	}
	u.Timestamp = w.now().UTC()
	if err := w.publisher.PublishUpdate(context.WithoutCancel(ctx), u); err != nil {
		w.logger.Warn("failed to publish update", "routing_key", u.RoutingKey(), "status", u.Status, "error", err)
	}
}
