package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTransition indicates a requested operation is not legal for the
// run's current artifact set.
type ErrInvalidTransition struct {
	RunID  uuid.UUID
	Action string
	Reason string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition %q for run %s: %s", e.Action, e.RunID, e.Reason)
}

// ArtifactStore is the slice of the run repository the dropper needs.
type ArtifactStore interface {
	ArtifactSet(ctx context.Context, runID uuid.UUID) (ArtifactSet, error)
	DeleteSlot(ctx context.Context, runID uuid.UUID, slot Slot) error
}

// Dropper deletes artifact slots so earlier capabilities re-open. It always
// consults Derive before acting: a drop is rejected unless the corresponding
// can_drop flag is true, which is what keeps descendants consistent. Deletion
// never cascades to other slots.
type Dropper struct {
	store ArtifactStore
}

// NewDropper creates a dropper over the given artifact store.
func NewDropper(store ArtifactStore) *Dropper {
	return &Dropper{store: store}
}

// Drop deletes exactly the named slot and returns the deleted slot names.
func (d *Dropper) Drop(ctx context.Context, runID uuid.UUID, slot Slot) ([]Slot, error) {
	if !KnownSlot(slot) {
		return nil, &ErrInvalidTransition{RunID: runID, Action: "drop " + string(slot), Reason: "unknown slot"}
	}

	set, err := d.store.ArtifactSet(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("reading artifact set: %w", err)
	}

	caps := Derive(set)
	allowed := false
	reason := "slot is not droppable"
	switch slot {
	case SlotAudio:
		allowed = caps.CanDropAudio
		reason = "audio is absent or a video depends on it"
	case SlotImages:
		allowed = caps.CanDropImages
		reason = "images are absent or a video depends on them"
	case SlotVideo:
		allowed = caps.CanDropVideo
		reason = "video is absent or already published"
	}
	if !allowed {
		return nil, &ErrInvalidTransition{RunID: runID, Action: "drop " + string(slot), Reason: reason}
	}

	if err := d.store.DeleteSlot(ctx, runID, slot); err != nil {
		return nil, fmt.Errorf("deleting slot %s: %w", slot, err)
	}
	return []Slot{slot}, nil
}
