// Package runs maps run identifiers to their artifact slots, delegating all
// reads and writes to a storage backend.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/store"
	"shortreel/internal/types"
	"shortreel/internal/workflow"
)

// metaSlot holds the run record itself; it is not an artifact slot and never
// appears in the artifact set.
const metaSlot = "run"

// Run is one attempt to produce a single video.
type Run struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Topic     string    `json:"topic"`
}

// ErrRunNotFound indicates the run id is unknown.
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// Repository owns run records and artifact slots on top of a Store.
type Repository struct {
	store store.Store
}

// NewRepository creates a repository over the given storage backend.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Create allocates a time-ordered run id, persists the run record and the
// seed artifact, and returns the new run.
func (r *Repository) Create(ctx context.Context, seed types.Seed) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}

	run := &Run{ID: id, CreatedAt: time.Now().UTC(), Topic: seed.Topic}
	if err := r.writeJSON(ctx, id, metaSlot, run); err != nil {
		return nil, err
	}
	if err := r.writeJSON(ctx, id, string(workflow.SlotSeed), seed); err != nil {
		return nil, err
	}
	return run, nil
}

// Get returns the run record for an id.
func (r *Repository) Get(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	if err := r.readJSON(ctx, runID, metaSlot, &run); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ErrRunNotFound{RunID: runID}
		}
		return nil, err
	}
	return &run, nil
}

// List returns all runs, oldest first (run ids are time-ordered).
func (r *Repository) List(ctx context.Context) ([]Run, error) {
	ids, err := r.store.Runs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	out := make([]Run, 0, len(ids))
	for _, id := range ids {
		run, err := r.Get(ctx, id)
		if err != nil {
			var notFound *ErrRunNotFound
			if errors.As(err, &notFound) {
				continue // slots without a run record, skip
			}
			return nil, err
		}
		out = append(out, *run)
	}
	return out, nil
}

// ArtifactSet probes the stored slots and returns the presence snapshot the
// deriver operates on.
func (r *Repository) ArtifactSet(ctx context.Context, runID uuid.UUID) (workflow.ArtifactSet, error) {
	slots, err := r.store.Slots(ctx, runID)
	if err != nil {
		return workflow.ArtifactSet{}, fmt.Errorf("listing slots: %w", err)
	}

	var set workflow.ArtifactSet
	for _, slot := range slots {
		switch workflow.Slot(slot) {
		case workflow.SlotSeed:
			set.Seed = true
		case workflow.SlotDialogue:
			set.Dialogue = true
		case workflow.SlotAudio:
			set.Audio = true
		case workflow.SlotVideo:
			set.Video = true
		case workflow.SlotPublish:
			set.Publish = true
		case workflow.SlotImages:
			images, err := r.Images(ctx, runID)
			if err != nil {
				return workflow.ArtifactSet{}, err
			}
			set.Images = workflow.ImagesPresence{
				Total:  len(images.Entries),
				Filled: images.FilledCount(),
			}
		}
	}
	return set, nil
}

// DeleteSlot removes one artifact slot.
func (r *Repository) DeleteSlot(ctx context.Context, runID uuid.UUID, slot workflow.Slot) error {
	if err := r.store.Delete(ctx, runID, string(slot)); err != nil {
		return fmt.Errorf("deleting slot %s: %w", slot, err)
	}
	return nil
}

// Seed returns the seed artifact.
func (r *Repository) Seed(ctx context.Context, runID uuid.UUID) (*types.Seed, error) {
	var seed types.Seed
	if err := r.readJSON(ctx, runID, string(workflow.SlotSeed), &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Dialogue returns the dialogue artifact.
func (r *Repository) Dialogue(ctx context.Context, runID uuid.UUID) (*types.Dialogue, error) {
	var d types.Dialogue
	if err := r.readJSON(ctx, runID, string(workflow.SlotDialogue), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveDialogue persists the dialogue artifact.
func (r *Repository) SaveDialogue(ctx context.Context, runID uuid.UUID, d *types.Dialogue) error {
	return r.writeJSON(ctx, runID, string(workflow.SlotDialogue), d)
}

// Audio returns the audio+timeline artifact.
func (r *Repository) Audio(ctx context.Context, runID uuid.UUID) (*types.AudioArtifact, error) {
	var a types.AudioArtifact
	if err := r.readJSON(ctx, runID, string(workflow.SlotAudio), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAudio persists the audio+timeline artifact.
func (r *Repository) SaveAudio(ctx context.Context, runID uuid.UUID, a *types.AudioArtifact) error {
	return r.writeJSON(ctx, runID, string(workflow.SlotAudio), a)
}

// Images returns the image set artifact.
func (r *Repository) Images(ctx context.Context, runID uuid.UUID) (*types.ImageSet, error) {
	var s types.ImageSet
	if err := r.readJSON(ctx, runID, string(workflow.SlotImages), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveImages persists the image set artifact.
func (r *Repository) SaveImages(ctx context.Context, runID uuid.UUID, s *types.ImageSet) error {
	return r.writeJSON(ctx, runID, string(workflow.SlotImages), s)
}

// Video returns the video artifact.
func (r *Repository) Video(ctx context.Context, runID uuid.UUID) (*types.VideoArtifact, error) {
	var v types.VideoArtifact
	if err := r.readJSON(ctx, runID, string(workflow.SlotVideo), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveVideo persists the video artifact.
func (r *Repository) SaveVideo(ctx context.Context, runID uuid.UUID, v *types.VideoArtifact) error {
	return r.writeJSON(ctx, runID, string(workflow.SlotVideo), v)
}

// PublishRecord returns the publish-record artifact.
func (r *Repository) PublishRecord(ctx context.Context, runID uuid.UUID) (*types.PublishRecord, error) {
	var p types.PublishRecord
	if err := r.readJSON(ctx, runID, string(workflow.SlotPublish), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePublishRecord persists the publish-record artifact.
func (r *Repository) SavePublishRecord(ctx context.Context, runID uuid.UUID, p *types.PublishRecord) error {
	return r.writeJSON(ctx, runID, string(workflow.SlotPublish), p)
}

// PublishHistory collects publish outcomes across all runs, used by the
// scored topic-selection mode.
func (r *Repository) PublishHistory(ctx context.Context) ([]types.PublishStat, error) {
	ids, err := r.store.Runs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var stats []types.PublishStat
	for _, id := range ids {
		record, err := r.PublishRecord(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		run, err := r.Get(ctx, id)
		if err != nil {
			continue
		}
		stats = append(stats, types.PublishStat{
			Topic:       run.Topic,
			VideoID:     record.VideoID,
			PublishedAt: record.PublishedAt,
		})
	}
	return stats, nil
}

func (r *Repository) writeJSON(ctx context.Context, runID uuid.UUID, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", slot, err)
	}
	if err := r.store.Write(ctx, runID, slot, data); err != nil {
		return fmt.Errorf("writing %s: %w", slot, err)
	}
	return nil
}

func (r *Repository) readJSON(ctx context.Context, runID uuid.UUID, slot string, v any) error {
	data, err := r.store.Read(ctx, runID, slot)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("reading %s: %w", slot, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", slot, err)
	}
	return nil
}
