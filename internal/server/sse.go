package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-genie/internal/pipeline"
)

// SSE event names
const (
	EventStep     = "step"
	EventComplete = "complete"
	EventError    = "error"
)

// SSEWriter writes Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers. It fails if w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends data as one JSON-encoded event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// StreamError is the payload of an error event.
type StreamError struct {
	RunID      string `json:"run_id,omitempty"`
	FailedStep string `json:"failed_step,omitempty"`
	Status     int    `json:"status"`
	Error      string `json:"error"`
}

// WriteError sends an error event.
func (s *SSEWriter) WriteError(e StreamError) {
	s.WriteEvent(EventError, e) //nolint:errcheck
}

// WriteComplete sends the finished run as a complete event.
func (s *SSEWriter) WriteComplete(r *pipeline.Result) {
	s.WriteEvent(EventComplete, r.View()) //nolint:errcheck
}
