// Package server provides the HTTP API for running the pipeline and browsing
// stored runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-genie/internal/db"
	"github.com/jonathan/resume-genie/internal/pipeline"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNoStore is returned by the history endpoints when the server runs
// without persistence.
var ErrNoStore = errors.New("run history is not enabled on this server")

// HTTPStatus returns the HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		inputErr      *pipeline.InputError
		genErr        *pipeline.GenerationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr), errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &genErr):
		if genErr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
