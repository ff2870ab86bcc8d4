package workflow

// Step labels for Capabilities.CurrentStep. Display only, never used for gating.
const (
	StepNone      = "none"
	StepSeed      = "seed"
	StepDialogue  = "dialogue"
	StepAudio     = "audio"
	StepImages    = "images"
	StepVideo     = "video"
	StepPublished = "published"
)

// Capabilities describes which operations are currently legal for a run.
type Capabilities struct {
	CanGenerateDialogue bool `json:"can_generate_dialogue"`
	CanEditDialogue     bool `json:"can_edit_dialogue"`
	CanGenerateAudio    bool `json:"can_generate_audio"`
	CanGenerateImages   bool `json:"can_generate_images"`
	CanGenerateVideo    bool `json:"can_generate_video"`
	CanUpload           bool `json:"can_upload"`
	CanFastUpload       bool `json:"can_fast_upload"`
	CanDropAudio        bool `json:"can_drop_audio"`
	CanDropImages       bool `json:"can_drop_images"`
	CanDropVideo        bool `json:"can_drop_video"`
	CanDeleteYouTube    bool `json:"can_delete_youtube"`

	CurrentStep string `json:"current_step"`
}

// Derive computes the capability descriptor for an artifact set. Pure and
// total: any combination of present/absent slots yields a consistent answer,
// so recomputing after every mutation is always correct.
func Derive(a ArtifactSet) Capabilities {
	c := Capabilities{
		CanGenerateDialogue: a.Seed && !a.Dialogue,
		// Editing is closed once audio exists: timing was derived from the text.
		CanEditDialogue:   a.Dialogue && !a.Audio,
		CanGenerateAudio:  a.Dialogue && !a.Audio,
		CanGenerateImages: a.Dialogue && a.Images.Absent(),
		// A partially errored image set blocks video until every entry is filled.
		CanGenerateVideo: a.Audio && a.Images.Complete() && !a.Video,
		CanUpload:        a.Video && !a.Publish,
		CanFastUpload:    (a.Seed || a.Dialogue) && !a.Video,
		CanDropAudio:     a.Audio && !a.Video,
		CanDropImages:    !a.Images.Absent() && !a.Video,
		CanDropVideo:     a.Video && !a.Publish,
		CanDeleteYouTube: a.Publish,
	}
	c.CurrentStep = currentStep(a)
	return c
}

// currentStep returns the furthest-completed stage label.
func currentStep(a ArtifactSet) string {
	switch {
	case a.Publish:
		return StepPublished
	case a.Video:
		return StepVideo
	case a.Images.Complete() && a.Audio:
		return StepImages
	case a.Audio:
		return StepAudio
	case a.Images.Complete():
		return StepImages
	case a.Dialogue:
		return StepDialogue
	case a.Seed:
		return StepSeed
	default:
		return StepNone
	}
}
