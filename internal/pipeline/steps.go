package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/tasks"
	"shortreel/internal/types"
	"shortreel/internal/workflow"
)

// SubmitDialogue starts dialogue generation for a run.
func (s *Service) SubmitDialogue(ctx context.Context, runID uuid.UUID) (uuid.UUID, error) {
	err := s.gate(ctx, runID, "generate dialogue",
		func(c workflow.Capabilities) bool { return c.CanGenerateDialogue },
		"seed is absent or dialogue already exists")
	if err != nil {
		return uuid.Nil, err
	}
	return s.engine.Submit(runID, tasks.TypeDialogue, s.dialogueOperation(runID))
}

func (s *Service) dialogueOperation(runID uuid.UUID) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		seed, err := s.repo.Seed(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading seed: %w", err)
		}

		progress("generating dialogue for " + seed.Topic)
		dialogue, err := s.collabs.Dialogue.GenerateDialogue(ctx, seed)
		if err != nil {
			return nil, &ErrCollaborator{Step: "dialogue", Err: err}
		}

		if err := s.repo.SaveDialogue(ctx, runID, dialogue); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotDialogue, Err: err}
		}
		return map[string]any{"title": dialogue.Title, "lines": dialogue.LineCount()}, nil
	}
}

// SubmitAudio starts speech synthesis for a run.
func (s *Service) SubmitAudio(ctx context.Context, runID uuid.UUID) (uuid.UUID, error) {
	err := s.gate(ctx, runID, "generate audio",
		func(c workflow.Capabilities) bool { return c.CanGenerateAudio },
		"dialogue is absent or audio already exists")
	if err != nil {
		return uuid.Nil, err
	}
	return s.engine.Submit(runID, tasks.TypeAudio, s.audioOperation(runID))
}

func (s *Service) audioOperation(runID uuid.UUID) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		dialogue, err := s.repo.Dialogue(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading dialogue: %w", err)
		}

		progress(fmt.Sprintf("synthesizing %d lines", dialogue.LineCount()))
		audio, err := s.collabs.Speech.GenerateAudio(ctx, dialogue)
		if err != nil {
			return nil, &ErrCollaborator{Step: "audio", Err: err}
		}

		if err := s.repo.SaveAudio(ctx, runID, audio); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotAudio, Err: err}
		}
		return map[string]any{"audio_ref": audio.AudioRef, "total_sec": audio.Timeline.TotalSec}, nil
	}
}

// SubmitImages starts image generation for a run. Independent of audio, so
// the two branches can run in parallel.
func (s *Service) SubmitImages(ctx context.Context, runID uuid.UUID) (uuid.UUID, error) {
	err := s.gate(ctx, runID, "generate images",
		func(c workflow.Capabilities) bool { return c.CanGenerateImages },
		"dialogue is absent or images already exist")
	if err != nil {
		return uuid.Nil, err
	}
	return s.engine.Submit(runID, tasks.TypeImages, s.imagesOperation(runID))
}

func (s *Service) imagesOperation(runID uuid.UUID) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		dialogue, err := s.repo.Dialogue(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading dialogue: %w", err)
		}

		progress("generating image set")
		images, err := s.collabs.Images.GenerateImages(ctx, dialogue)
		if err != nil {
			return nil, &ErrCollaborator{Step: "images", Err: err}
		}

		if err := s.repo.SaveImages(ctx, runID, images); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotImages, Err: err}
		}
		// Errored entries do not fail the task; they leave the slot partial,
		// which blocks video until each entry is regenerated.
		if errored := images.ErroredCount(); errored > 0 {
			progress(fmt.Sprintf("generated %d/%d images, %d failed", images.FilledCount(), len(images.Entries), errored))
		}
		return map[string]any{"total": len(images.Entries), "filled": images.FilledCount()}, nil
	}
}

// RegenerateImage regenerates a single image entry, leaving siblings alone.
func (s *Service) RegenerateImage(ctx context.Context, runID uuid.UUID, index int) (uuid.UUID, error) {
	set, err := s.repo.ArtifactSet(ctx, runID)
	if err != nil {
		return uuid.Nil, err
	}
	if set.Images.Absent() {
		return uuid.Nil, &workflow.ErrInvalidTransition{RunID: runID, Action: "regenerate image", Reason: "no image set exists"}
	}
	if set.Video {
		return uuid.Nil, &workflow.ErrInvalidTransition{RunID: runID, Action: "regenerate image", Reason: "a video was rendered from the current images"}
	}
	if index < 0 || index >= set.Images.Total {
		return uuid.Nil, &workflow.ErrInvalidTransition{RunID: runID, Action: "regenerate image", Reason: fmt.Sprintf("index %d out of range", index)}
	}
	return s.engine.Submit(runID, tasks.TypeImages, s.regenerateImageOperation(runID, index))
}

func (s *Service) regenerateImageOperation(runID uuid.UUID, index int) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		dialogue, err := s.repo.Dialogue(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading dialogue: %w", err)
		}
		images, err := s.repo.Images(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading images: %w", err)
		}

		progress(fmt.Sprintf("regenerating image %d", index))
		entry, err := s.collabs.Images.GenerateImage(ctx, dialogue, index)
		if err != nil {
			return nil, &ErrCollaborator{Step: "images", Err: err}
		}

		images.Entries[index] = *entry
		if err := s.repo.SaveImages(ctx, runID, images); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotImages, Err: err}
		}
		return map[string]any{"index": index, "filled": images.FilledCount()}, nil
	}
}

// repairImagesOperation fills only the errored entries of an existing image
// set. Filled siblings are never regenerated; entries are independently
// addressable sub-artifacts.
func (s *Service) repairImagesOperation(runID uuid.UUID) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		dialogue, err := s.repo.Dialogue(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading dialogue: %w", err)
		}
		images, err := s.repo.Images(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading images: %w", err)
		}

		for i, e := range images.Entries {
			if e.Filled() {
				continue
			}
			progress(fmt.Sprintf("regenerating image %d", i))
			entry, err := s.collabs.Images.GenerateImage(ctx, dialogue, i)
			if err != nil {
				return nil, &ErrCollaborator{Step: "images", Err: err}
			}
			images.Entries[i] = *entry
		}

		if err := s.repo.SaveImages(ctx, runID, images); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotImages, Err: err}
		}
		return map[string]any{"total": len(images.Entries), "filled": images.FilledCount()}, nil
	}
}

// SubmitVideo starts video rendering for a run.
func (s *Service) SubmitVideo(ctx context.Context, runID uuid.UUID) (uuid.UUID, error) {
	err := s.gate(ctx, runID, "render video",
		func(c workflow.Capabilities) bool { return c.CanGenerateVideo },
		"audio or images are missing, incomplete, or a video already exists")
	if err != nil {
		return uuid.Nil, err
	}
	return s.engine.Submit(runID, tasks.TypeVideo, s.videoOperation(runID))
}

func (s *Service) videoOperation(runID uuid.UUID) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		audio, err := s.repo.Audio(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading audio: %w", err)
		}
		images, err := s.repo.Images(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading images: %w", err)
		}

		progress("rendering video")
		video, err := s.collabs.Video.RenderVideo(ctx, audio, images)
		if err != nil {
			return nil, &ErrCollaborator{Step: "video", Err: err}
		}

		if err := s.repo.SaveVideo(ctx, runID, video); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotVideo, Err: err}
		}
		return map[string]any{"video_ref": video.VideoRef}, nil
	}
}

// SubmitUpload starts the platform upload. A nil publishAt publishes
// immediately; otherwise the platform schedules the video for that time.
func (s *Service) SubmitUpload(ctx context.Context, runID uuid.UUID, publishAt *time.Time) (uuid.UUID, error) {
	err := s.gate(ctx, runID, "upload",
		func(c workflow.Capabilities) bool { return c.CanUpload },
		"video is absent or already published")
	if err != nil {
		return uuid.Nil, err
	}
	return s.engine.Submit(runID, tasks.TypeUpload, s.uploadOperation(runID, publishAt))
}

func (s *Service) uploadOperation(runID uuid.UUID, publishAt *time.Time) tasks.Operation {
	return func(ctx context.Context, progress tasks.ProgressFunc) (any, error) {
		video, err := s.repo.Video(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("loading video: %w", err)
		}
		meta, err := s.publishMetadata(ctx, runID)
		if err != nil {
			return nil, err
		}

		if publishAt != nil {
			progress("uploading, scheduled for " + publishAt.Format(time.RFC3339))
		} else {
			progress("uploading for immediate publish")
		}
		record, err := s.collabs.Publisher.Publish(ctx, video, meta, publishAt)
		if err != nil {
			return nil, &ErrCollaborator{Step: "upload", Err: err}
		}

		if err := s.repo.SavePublishRecord(ctx, runID, record); err != nil {
			return nil, &ErrPersistence{Slot: workflow.SlotPublish, Err: err}
		}
		return map[string]any{"video_id": record.VideoID, "status": record.Status}, nil
	}
}

// publishMetadata builds the upload metadata from the dialogue, falling back
// to the seed topic for runs without a title.
func (s *Service) publishMetadata(ctx context.Context, runID uuid.UUID) (types.PublishMetadata, error) {
	dialogue, err := s.repo.Dialogue(ctx, runID)
	if err != nil {
		return types.PublishMetadata{}, fmt.Errorf("loading dialogue: %w", err)
	}
	meta := types.PublishMetadata{
		Title:       dialogue.Title,
		Description: dialogue.Description,
		Tags:        dialogue.Tags,
	}
	if meta.Title == "" {
		seed, err := s.repo.Seed(ctx, runID)
		if err == nil {
			meta.Title = seed.Topic
		}
	}
	return meta, nil
}
