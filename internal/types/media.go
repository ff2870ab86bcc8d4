package types

// TimelineSegment maps one dialogue line onto the rendered audio track.
type TimelineSegment struct {
	LineIndex int     `json:"line_index"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
}

// Timeline holds the timing segments derived from speech synthesis.
// Timing is derived from the dialogue text, which is why dialogue editing
// is closed once audio exists.
type Timeline struct {
	TotalSec float64           `json:"total_sec"`
	Segments []TimelineSegment `json:"segments"`
}

// AudioArtifact is the audio+timeline slot payload: the rendered speech
// reference plus its timing segments. They are produced together and
// stored as a single slot.
type AudioArtifact struct {
	AudioRef string   `json:"audio_ref"`
	Format   string   `json:"format,omitempty"`
	Timeline Timeline `json:"timeline"`
}

// ImageEntry is one independently addressable image of the images slot.
// Exactly one of Ref or Error is set.
type ImageEntry struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt,omitempty"`
	Ref    string `json:"ref,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Filled reports whether the entry holds a usable image.
func (e ImageEntry) Filled() bool {
	return e.Ref != "" && e.Error == ""
}

// ImageSet is the images slot payload.
type ImageSet struct {
	Entries []ImageEntry `json:"entries"`
}

// FilledCount returns the number of filled entries.
func (s *ImageSet) FilledCount() int {
	n := 0
	for _, e := range s.Entries {
		if e.Filled() {
			n++
		}
	}
	return n
}

// ErroredCount returns the number of errored entries.
func (s *ImageSet) ErroredCount() int {
	return len(s.Entries) - s.FilledCount()
}

// Complete reports whether every entry is filled.
func (s *ImageSet) Complete() bool {
	return len(s.Entries) > 0 && s.FilledCount() == len(s.Entries)
}

// VideoArtifact is the rendered video slot payload.
type VideoArtifact struct {
	VideoRef    string  `json:"video_ref"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
}
