package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/pipeline"
)

// RunRequest is the body of POST /runs and POST /runs/stream.
type RunRequest struct {
	JobPosting     string `json:"job_posting" validate:"required"`
	Resume         string `json:"resume" validate:"required"`
	ValidateOutput bool   `json:"validate_output,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Persistence bool   `json:"persistence"`
	Auth        bool   `json:"auth"`
}

// RunsResponse is the body of GET /runs.
type RunsResponse struct {
	Runs   []db.Run `json:"runs"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Persistence: s.store != nil,
		Auth:        s.jwtService != nil,
	})
}

// decodeRun reads and validates a run request.
func (s *Server) decodeRun(w http.ResponseWriter, r *http.Request) (RunRequest, error) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return req, &ErrValidation{Field: jsonField(verrs[0].Field()), Message: "is " + verrs[0].Tag()}
		}
		return req, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return req, nil
}

func jsonField(goName string) string {
	switch goName {
	case "JobPosting":
		return "job_posting"
	case "Resume":
		return "resume"
	default:
		return goName
	}
}

func (s *Server) pipelineFor(req RunRequest, opts ...pipeline.Option) *pipeline.Pipeline {
	if req.ValidateOutput {
		opts = append(opts, pipeline.WithOutputValidation(true))
	}
	if len(opts) == 0 {
		return s.pipeline
	}
	return s.pipeline.With(opts...)
}

// save persists a run. A failed save is logged and does not fail the request.
func (s *Server) save(ctx context.Context, res *pipeline.Result) {
	if s.store == nil || res == nil {
		return
	}
	if err := s.store.SaveResult(context.WithoutCancel(ctx), res); err != nil {
		s.logger.Error("failed to save run", "run_id", res.RunID.String(), "error", err)
	}
}

// handleRun runs the pipeline and answers with the whole result. A failed
// step still returns the partial result, with 502 or 504.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRun(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.pipelineFor(req).Run(r.Context(), req.JobPosting, req.Resume)
	s.save(r.Context(), res)
	if res == nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, HTTPStatus(err), res)
}

// handleRunStream runs the pipeline and streams step events over SSE,
// ending with a complete or error event.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRun(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	progress := func(ev pipeline.ProgressEvent) {
		if ev.Step == "" {
			return
		}
		if err := sse.WriteEvent(EventStep, ev); err != nil {
			s.logger.Debug("failed to write event", "error", err)
		}
	}

	res, err := s.pipelineFor(req, pipeline.WithProgress(progress)).Run(r.Context(), req.JobPosting, req.Resume)
	s.save(r.Context(), res)
	if err != nil {
		se := StreamError{Status: HTTPStatus(err), Error: err.Error()}
		if res != nil {
			se.RunID = res.RunID.String()
			if res.FailedStep != 0 {
				se.FailedStep = res.FailedStep.String()
			}
		}
		sse.WriteError(se)
		return
	}
	sse.WriteComplete(res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, ErrNoStore)
		return
	}

	q := r.URL.Query()
	filter := db.RunFilter{Status: q.Get("status")}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, &ErrValidation{Field: p.name, Message: "must be a non-negative integer"})
			return
		}
		*p.dst = n
	}
	filter, err := filter.Normalize()
	if err != nil {
		s.fail(w, &ErrValidation{Field: "status", Message: err.Error()})
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, RunsResponse{Runs: runs, Limit: filter.Limit, Offset: filter.Offset})
}

// runID parses the {id} path value. It writes the error response itself and
// reports false when the request cannot continue.
func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.store == nil {
		s.fail(w, ErrNoStore)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, &ErrValidation{Field: "id", Message: "invalid run ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	artifacts, err := s.store.ListArtifacts(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if artifacts == nil {
		artifacts = []db.Artifact{}
	}
	s.jsonResponse(w, http.StatusOK, artifacts)
}

// handleGetArtifact returns one step output. With ?format=text the raw
// model output is returned as text/plain.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	step, err := db.NormalizeStep(r.PathValue("step"))
	if err != nil {
		s.fail(w, &ErrValidation{Field: "step", Message: err.Error()})
		return
	}
	artifact, err := s.store.GetArtifact(r.Context(), id, step)
	if err != nil {
		s.fail(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, artifact.Text)
		return
	}
	s.jsonResponse(w, http.StatusOK, artifact)
}
