package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/runs"
	"shortreel/internal/tasks"
	"shortreel/internal/types"
	"shortreel/internal/workflow"
)

// defaultPollInterval is how often the fast-upload chain polls its sub-tasks.
const defaultPollInterval = 250 * time.Millisecond

// Service is the façade the HTTP layer and the scheduler drive runs through.
type Service struct {
	repo    *runs.Repository
	engine  *tasks.Engine
	dropper *workflow.Dropper
	collabs Collaborators
	poll    time.Duration
}

// NewService wires the pipeline over a repository, a task engine and the
// generation collaborators.
func NewService(repo *runs.Repository, engine *tasks.Engine, collabs Collaborators) *Service {
	return &Service{
		repo:    repo,
		engine:  engine,
		dropper: workflow.NewDropper(repo),
		collabs: collabs,
		poll:    defaultPollInterval,
	}
}

// SetPollInterval overrides the sub-task poll interval (tests).
func (s *Service) SetPollInterval(d time.Duration) {
	s.poll = d
}

// CreateRun creates a run seeded with the given topic.
func (s *Service) CreateRun(ctx context.Context, seed types.Seed) (*runs.Run, error) {
	return s.repo.Create(ctx, seed)
}

// Run returns the run record.
func (s *Service) Run(ctx context.Context, runID uuid.UUID) (*runs.Run, error) {
	return s.repo.Get(ctx, runID)
}

// Runs lists all runs.
func (s *Service) Runs(ctx context.Context) ([]runs.Run, error) {
	return s.repo.List(ctx)
}

// Capabilities recomputes the capability descriptor for a run.
func (s *Service) Capabilities(ctx context.Context, runID uuid.UUID) (workflow.Capabilities, error) {
	if _, err := s.repo.Get(ctx, runID); err != nil {
		return workflow.Capabilities{}, err
	}
	set, err := s.repo.ArtifactSet(ctx, runID)
	if err != nil {
		return workflow.Capabilities{}, err
	}
	return workflow.Derive(set), nil
}

// Status returns one task record.
func (s *Service) Status(taskID uuid.UUID) (tasks.Record, error) {
	return s.engine.Status(taskID)
}

// StatusForRun returns the latest task record per type for a run.
func (s *Service) StatusForRun(runID uuid.UUID) map[tasks.Type]tasks.Record {
	return s.engine.StatusForRun(runID)
}

// Await polls a task to a terminal record.
func (s *Service) Await(ctx context.Context, taskID uuid.UUID) (tasks.Record, error) {
	return s.engine.Await(ctx, taskID, s.poll)
}

// Drop deletes an artifact slot, deriver-gated.
func (s *Service) Drop(ctx context.Context, runID uuid.UUID, slot workflow.Slot) ([]workflow.Slot, error) {
	if _, err := s.repo.Get(ctx, runID); err != nil {
		return nil, err
	}
	return s.dropper.Drop(ctx, runID, slot)
}

// UpdateDialogue replaces the dialogue artifact. Rejected once audio exists,
// since the audio timing was derived from the previous text.
func (s *Service) UpdateDialogue(ctx context.Context, runID uuid.UUID, d *types.Dialogue) error {
	caps, err := s.Capabilities(ctx, runID)
	if err != nil {
		return err
	}
	if !caps.CanEditDialogue {
		return &workflow.ErrInvalidTransition{RunID: runID, Action: "edit dialogue", Reason: "dialogue is absent or audio has already been synthesized"}
	}
	return s.repo.SaveDialogue(ctx, runID, d)
}

// DeleteYouTube retracts the uploaded video via the publish collaborator and
// then clears the publish-record slot. If retraction fails the slot is left
// untouched and the failure is surfaced.
func (s *Service) DeleteYouTube(ctx context.Context, runID uuid.UUID) ([]workflow.Slot, error) {
	caps, err := s.Capabilities(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !caps.CanDeleteYouTube {
		return nil, &workflow.ErrInvalidTransition{RunID: runID, Action: "delete youtube", Reason: "no publish record"}
	}

	record, err := s.repo.PublishRecord(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("reading publish record: %w", err)
	}
	if err := s.collabs.Publisher.Retract(ctx, record); err != nil {
		return nil, &ErrCollaborator{Step: "retract", Err: err}
	}
	if err := s.repo.DeleteSlot(ctx, runID, workflow.SlotPublish); err != nil {
		return nil, err
	}
	return []workflow.Slot{workflow.SlotPublish}, nil
}

// SubmitOptions carries per-submission parameters.
type SubmitOptions struct {
	// PublishAt schedules the platform publish time for upload and
	// fast-upload tasks; nil means immediate.
	PublishAt *time.Time
	// ImageIndex selects a single entry for an images task; nil regenerates
	// the whole set.
	ImageIndex *int
}

// Submit dispatches a task submission by type. It is the deriver-gated entry
// point: the engine itself never consults capabilities.
func (s *Service) Submit(ctx context.Context, runID uuid.UUID, taskType tasks.Type, opts SubmitOptions) (uuid.UUID, error) {
	if !tasks.KnownType(taskType) {
		return uuid.Nil, &workflow.ErrInvalidTransition{RunID: runID, Action: string(taskType), Reason: "unknown task type"}
	}

	switch taskType {
	case tasks.TypeDialogue:
		return s.SubmitDialogue(ctx, runID)
	case tasks.TypeAudio:
		return s.SubmitAudio(ctx, runID)
	case tasks.TypeImages:
		if opts.ImageIndex != nil {
			return s.RegenerateImage(ctx, runID, *opts.ImageIndex)
		}
		return s.SubmitImages(ctx, runID)
	case tasks.TypeVideo:
		return s.SubmitVideo(ctx, runID)
	case tasks.TypeUpload:
		return s.SubmitUpload(ctx, runID, opts.PublishAt)
	case tasks.TypeFastUpload:
		return s.SubmitFastUpload(ctx, runID, opts.PublishAt)
	}
	return uuid.Nil, &workflow.ErrInvalidTransition{RunID: runID, Action: string(taskType), Reason: "unknown task type"}
}

// gate loads the run's capabilities and rejects the submission unless
// allowed returns true.
func (s *Service) gate(ctx context.Context, runID uuid.UUID, action string, allowed func(workflow.Capabilities) bool, reason string) error {
	caps, err := s.Capabilities(ctx, runID)
	if err != nil {
		return err
	}
	if !allowed(caps) {
		return &workflow.ErrInvalidTransition{RunID: runID, Action: action, Reason: reason}
	}
	return nil
}
