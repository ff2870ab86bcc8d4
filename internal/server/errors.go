// Package server provides the HTTP REST API for the video pipeline.
package server

import (
	"errors"
	"net/http"

	"shortreel/internal/runs"
	"shortreel/internal/scheduler"
	"shortreel/internal/store"
	"shortreel/internal/tasks"
	"shortreel/internal/workflow"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return "validation error: " + e.Field + " - " + e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		invalidTransition *workflow.ErrInvalidTransition
		alreadyRunning    *tasks.ErrAlreadyRunning
		triggerInFlight   *scheduler.ErrTriggerInFlight
		runNotFound       *runs.ErrRunNotFound
		taskNotFound      *tasks.ErrTaskNotFound
		validation        *ErrValidation
	)
	switch {
	case errors.As(err, &invalidTransition), errors.As(err, &alreadyRunning), errors.As(err, &triggerInFlight):
		return http.StatusConflict
	case errors.As(err, &runNotFound), errors.As(err, &taskNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
