package pipeline

import (
	"fmt"

	"shortreel/internal/workflow"
)

// ErrCollaborator wraps a failed generation or publish call. Its message is
// the collaborator's message verbatim, so polling clients see exactly what
// the external service reported.
type ErrCollaborator struct {
	Step string
	Err  error
}

func (e *ErrCollaborator) Error() string {
	return e.Err.Error()
}

func (e *ErrCollaborator) Unwrap() error {
	return e.Err
}

// ErrPersistence indicates the collaborator succeeded but the produced
// artifact could not be saved. Kept distinct from ErrCollaborator so callers
// can tell "generation failed" from "generation succeeded but was lost".
type ErrPersistence struct {
	Slot workflow.Slot
	Err  error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("generated %s but failed to save it: %v", e.Slot, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}
