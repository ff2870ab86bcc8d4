// Package store provides blob storage backends for run artifacts. A store
// maps (run id, slot name) to an opaque payload; writes are atomic per slot,
// so a partially written artifact is never observable as present.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run or slot has no stored payload.
var ErrNotFound = errors.New("artifact not found")

// Store is the storage collaborator consumed by the run repository.
type Store interface {
	// Read returns the payload stored for the slot, or ErrNotFound.
	Read(ctx context.Context, runID uuid.UUID, slot string) ([]byte, error)
	// Write stores the payload for the slot, replacing any previous value.
	Write(ctx context.Context, runID uuid.UUID, slot string, data []byte) error
	// Delete removes the slot's payload. Deleting an absent slot is ErrNotFound.
	Delete(ctx context.Context, runID uuid.UUID, slot string) error
	// Slots lists the slot names currently present for a run.
	Slots(ctx context.Context, runID uuid.UUID) ([]string, error)
	// Runs lists every run id that has at least one stored slot.
	Runs(ctx context.Context) ([]uuid.UUID, error)
}
