// Package pipeline binds the workflow deriver, the task engine and the run
// repository together: it gates every step submission on the derived
// capabilities and wraps each generation call as a task operation that
// persists its own artifact.
package pipeline

import (
	"context"
	"time"

	"shortreel/internal/types"
)

// DialogueGenerator synthesizes a structured script from a seed topic.
type DialogueGenerator interface {
	GenerateDialogue(ctx context.Context, seed *types.Seed) (*types.Dialogue, error)
}

// SpeechSynthesizer renders speech plus timing segments from a dialogue.
type SpeechSynthesizer interface {
	GenerateAudio(ctx context.Context, dialogue *types.Dialogue) (*types.AudioArtifact, error)
}

// ImageGenerator produces the image set for a dialogue. Individual entries
// may come back errored without the call as a whole failing; single entries
// are independently regenerable.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, dialogue *types.Dialogue) (*types.ImageSet, error)
	GenerateImage(ctx context.Context, dialogue *types.Dialogue, index int) (*types.ImageEntry, error)
}

// VideoRenderer composes audio, timeline and images into a video file.
type VideoRenderer interface {
	RenderVideo(ctx context.Context, audio *types.AudioArtifact, images *types.ImageSet) (*types.VideoArtifact, error)
}

// Publisher uploads a rendered video to the platform and can retract it.
// A nil publishAt means publish immediately.
type Publisher interface {
	Publish(ctx context.Context, video *types.VideoArtifact, meta types.PublishMetadata, publishAt *time.Time) (*types.PublishRecord, error)
	Retract(ctx context.Context, record *types.PublishRecord) error
}

// Collaborators bundles the external generation services the pipeline drives.
type Collaborators struct {
	Dialogue  DialogueGenerator
	Speech    SpeechSynthesizer
	Images    ImageGenerator
	Video     VideoRenderer
	Publisher Publisher
}
