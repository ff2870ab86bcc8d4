package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shortreel/internal/tasks"
	"shortreel/internal/workflow"
)

// SubmitFastUpload runs the whole chain as one task: dialogue when only the
// seed exists, then audio and images in parallel, then video, then upload.
// Each step persists normally, so a mid-chain failure leaves every completed
// artifact in place and the run resumable step by step.
func (s *Service) SubmitFastUpload(ctx context.Context, runID uuid.UUID, publishAt *time.Time) (uuid.UUID, error) {
	err := s.gate(ctx, runID, "fast upload",
		func(c workflow.Capabilities) bool { return c.CanFastUpload },
		"a video already exists or no seed is present")
	if err != nil {
		return uuid.Nil, err
	}
	return s.engine.Submit(runID, tasks.TypeFastUpload, s.fastUploadOperation(runID, publishAt))
}

func (s *Service) fastUploadOperation(runID uuid.UUID, publishAt *time.Time) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		set, err := s.repo.ArtifactSet(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("reading artifacts: %w", err)
		}

		if !set.Dialogue {
			progress("step 1/4: dialogue")
			if err := s.runStep(ctx, runID, tasks.TypeDialogue, s.dialogueOperation(runID)); err != nil {
				return nil, err
			}
		}

		needAudio := !set.Audio
		needImages := !set.Images.Complete()
		if needAudio || needImages {
			progress("step 2/4: audio and images")
			g, gctx := errgroup.WithContext(ctx)
			if needAudio {
				g.Go(func() error {
					return s.runStep(gctx, runID, tasks.TypeAudio, s.audioOperation(runID))
				})
			}
			if needImages {
				// A partial set is repaired entry by entry; filled siblings
				// are kept, never regenerated wholesale.
				imagesOp := s.imagesOperation(runID)
				if set.Images.Partial() {
					imagesOp = s.repairImagesOperation(runID)
				}
				g.Go(func() error {
					return s.runStep(gctx, runID, tasks.TypeImages, imagesOp)
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			// The set call can succeed overall while individual entries errored;
			// the video gate below catches that as a partial slot.
			refreshed, err := s.repo.ArtifactSet(ctx, runID)
			if err != nil {
				return nil, fmt.Errorf("reading artifacts: %w", err)
			}
			if !refreshed.Images.Complete() {
				return nil, &ErrCollaborator{Step: "images", Err: fmt.Errorf("image set incomplete: %d of %d generated", refreshed.Images.Filled, refreshed.Images.Total)}
			}
		}

		if !set.Video {
			progress("step 3/4: video")
			if err := s.runStep(ctx, runID, tasks.TypeVideo, s.videoOperation(runID)); err != nil {
				return nil, err
			}
		}

		progress("step 4/4: upload")
		if err := s.runStep(ctx, runID, tasks.TypeUpload, s.uploadOperation(runID, publishAt)); err != nil {
			return nil, err
		}

		record, err := s.repo.PublishRecord(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("reading publish record: %w", err)
		}
		return map[string]any{"video_id": record.VideoID, "status": record.Status}, nil
	}
}

// runStep submits one chain step as its own engine task and polls it to a
// terminal status, so each step stays individually observable while the
// chain runs. A step already running for this run is awaited, not duplicated.
func (s *Service) runStep(ctx context.Context, runID uuid.UUID, taskType tasks.Type, op tasks.Operation) error {
	taskID, err := s.engine.Submit(runID, taskType, op)
	if err != nil {
		var busy *tasks.ErrAlreadyRunning
		if !errors.As(err, &busy) {
			return err
		}
		rec, ok := s.engine.StatusForRun(runID)[taskType]
		if !ok {
			return err
		}
		taskID = rec.ID
	}

	rec, err := s.engine.Await(ctx, taskID, s.poll)
	if err != nil {
		return err
	}
	if rec.Status == tasks.StatusError {
		return errors.New(rec.Error)
	}
	return nil
}
