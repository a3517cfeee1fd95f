package pipeline

// Progress event statuses
const (
	EventRunStarted    = "run_started"
	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventStepFailed    = "step_failed"
	EventRunCompleted  = "run_completed"
	EventRunFailed     = "run_failed"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	RunStatus Status `json:"run_status"`
	Step      string `json:"step,omitempty"`
	Index     int    `json:"index,omitempty"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured
func (p *Pipeline) emitProgress(r *Result, step StepKind, status, message string, content any) {
	if p.progress == nil {
		return
	}
	ev := ProgressEvent{
		RunID:     r.RunID.String(),
		RunStatus: r.Status,
		Total:     len(Steps),
		Status:    status,
		Message:   message,
		Content:   content,
	}
	if step != 0 {
		ev.Step = step.String()
		ev.Index = step.Index()
	}
	p.progress(ev)
}
