package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyOutput is the cause of a GenerationError when the model returned
// no text or only whitespace.
var ErrEmptyOutput = errors.New("model returned empty output")

// InputError reports a missing or blank run input. It is returned before any
// step runs.
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s is empty", e.Field)
}

// GenerationError reports a failed step: the generator errored, timed out,
// returned empty text, or (with output validation on) returned text that does
// not match the step's schema.
type GenerationError struct {
	Step  StepKind
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the step ran out of time.
func (e *GenerationError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

// StepOrderError reports a step asking for a document that no earlier step
// has produced.
type StepOrderError struct {
	Step      StepKind
	Requested Role
}

func (e *StepOrderError) Error() string {
	if e.Step == 0 {
		return fmt.Sprintf("document %q has not been produced yet", e.Requested)
	}
	return fmt.Sprintf("step %s requested document %q before it was produced", e.Step, e.Requested)
}
