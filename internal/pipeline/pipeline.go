// Package pipeline runs the four-step prompt chain that turns a job posting and
// a resume into a tailored resume and an interview guide.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/resume-genie/internal/llm"
	"github.com/jonathan/resume-genie/internal/prompts"
	"github.com/jonathan/resume-genie/internal/schemas"
)

// TemplateSource supplies prompt templates by key. *prompts.Set implements it.
type TemplateSource interface {
	Template(key string) (string, error)
}

// Pipeline runs the step chain against a generator. It holds no per-run state
// and is safe for concurrent use.
type Pipeline struct {
	gen         llm.Generator
	templates   TemplateSource
	logger      *slog.Logger
	stepTimeout time.Duration
	runTimeout  time.Duration
	progress    ProgressCallback
	validate    bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStepTimeout bounds each generation call. Zero means no limit.
func WithStepTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.stepTimeout = d }
}

// WithRunTimeout bounds the whole run. Zero means no limit.
func WithRunTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.runTimeout = d }
}

// WithProgress registers a callback for progress events.
func WithProgress(cb ProgressCallback) Option {
	return func(p *Pipeline) { p.progress = cb }
}

// WithOutputValidation makes each step check its output against the step's
// JSON schema. The stored text is unchanged either way.
func WithOutputValidation(on bool) Option {
	return func(p *Pipeline) { p.validate = on }
}

// WithTemplates replaces the embedded prompt templates.
func WithTemplates(src TemplateSource) Option {
	return func(p *Pipeline) {
		if src != nil {
			p.templates = src
		}
	}
}

// New creates a pipeline that sends prompts to gen.
func New(gen llm.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:    gen,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.templates == nil {
		p.templates = prompts.Default()
	}
	return p
}

// With returns a copy of p with extra options applied.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	cp := *p
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Run executes the four steps in order. Blank inputs fail with *InputError and
// a nil Result before anything is generated. If a step fails the run stops
// there and the returned Result has StatusFailed alongside the error.
func (p *Pipeline) Run(ctx context.Context, jobPosting, resume string) (*Result, error) {
	if strings.TrimSpace(jobPosting) == "" {
		return nil, &InputError{Field: "jobPosting"}
	}
	if strings.TrimSpace(resume) == "" {
		return nil, &InputError{Field: "resume"}
	}

	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}

	result := newResult(jobPosting, resume)
	result.Status = StatusRunning
	result.StartedAt = time.Now()
	logger := p.logger.With("component", "ResumeGenie", "run_id", result.RunID.String())
	logger.Info("run started")
	p.emitProgress(result, 0, EventRunStarted, "Run started", nil)

	for _, step := range Steps {
		result.CurrentStep = step
		if err := p.runStep(ctx, logger, result, step); err != nil {
			result.Status = StatusFailed
			result.FailedStep = step
			result.Err = err
			result.CompletedAt = time.Now()
			logger.Error("run failed", "step", step.String(), "error", err)
			p.emitProgress(result, step, EventRunFailed, fmt.Sprintf("Run failed at %s", step), err.Error())
			return result, err
		}
	}

	result.Status = StatusCompleted
	result.CompletedAt = time.Now()
	logger.Info("run completed", "duration", result.Duration())
	p.emitProgress(result, 0, EventRunCompleted, "Run completed", result.Final().Text())
	return result, nil
}

func (p *Pipeline) runStep(ctx context.Context, logger *slog.Logger, result *Result, step StepKind) error {
	vars, err := buildInputs(step, result.State)
	if err != nil {
		return err
	}
	tmpl, err := p.templates.Template(step.PromptKey())
	if err != nil {
		return fmt.Errorf("step %s: %w", step, err)
	}
	for _, key := range prompts.Placeholders(tmpl) {
		if _, ok := vars[key]; !ok {
			return fmt.Errorf("step %s: template references unknown input {{.%s}}", step, key)
		}
	}
	prompt := prompts.Format(tmpl, vars)

	logger.Debug("step started", "step", step.String(), "index", step.Index())
	p.emitProgress(result, step, EventStepStarted,
		fmt.Sprintf("Step %d/%d: %s", step.Index(), len(Steps), step), nil)

	stepCtx := ctx
	if p.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, p.stepTimeout)
		defer cancel()
	}

	started := time.Now()
	out, err := p.gen.Generate(stepCtx, prompt)
	elapsed := time.Since(started)
	if err == nil {
		err = p.checkOutput(step, out)
	} else if ctxErr := stepCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	if err != nil {
		genErr := &GenerationError{Step: step, Cause: err}
		logger.Warn("step failed", "step", step.String(), "duration", elapsed, "timeout", genErr.Timeout(), "error", err)
		p.emitProgress(result, step, EventStepFailed, genErr.Error(), nil)
		return genErr
	}

	result.State.record(StepResult{
		Step:      step,
		Document:  NewDocument(step.OutputRole(), out),
		Prompt:    prompt,
		StartedAt: started,
		Duration:  elapsed,
	})
	logger.Info("step completed", "step", step.String(), "duration", elapsed, "chars", len(out))
	p.emitProgress(result, step, EventStepCompleted,
		fmt.Sprintf("Completed %s in %s", step, elapsed.Round(time.Millisecond)), out)
	return nil
}

func (p *Pipeline) checkOutput(step StepKind, out string) error {
	if strings.TrimSpace(out) == "" {
		return ErrEmptyOutput
	}
	if p.validate {
		if err := schemas.ValidateOutput(step.SchemaKind(), out); err != nil {
			return err
		}
	}
	return nil
}
