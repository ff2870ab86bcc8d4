// Package workflow derives, from the artifacts a run currently has, which
// pipeline operations are legal next, and guards artifact drops against the
// slot dependency order.
package workflow

// Slot names an artifact slot of a run.
type Slot string

// The six artifact slots, in pipeline order. Audio and timeline are produced
// together and live in a single slot.
const (
	SlotSeed     Slot = "seed"
	SlotDialogue Slot = "dialogue"
	SlotAudio    Slot = "audio"
	SlotImages   Slot = "images"
	SlotVideo    Slot = "video"
	SlotPublish  Slot = "publish-record"
)

// KnownSlot reports whether s names a real slot.
func KnownSlot(s Slot) bool {
	switch s {
	case SlotSeed, SlotDialogue, SlotAudio, SlotImages, SlotVideo, SlotPublish:
		return true
	}
	return false
}

// ImagesPresence describes the images slot, which unlike the others can be
// partially present: some entries filled, some errored.
type ImagesPresence struct {
	Total  int
	Filled int
}

// Absent reports whether no image set exists at all.
func (p ImagesPresence) Absent() bool { return p.Total == 0 }

// Complete reports whether every entry is filled.
func (p ImagesPresence) Complete() bool { return p.Total > 0 && p.Filled == p.Total }

// Partial reports whether a set exists but has errored entries.
func (p ImagesPresence) Partial() bool { return p.Total > 0 && p.Filled < p.Total }

// ArtifactSet is the presence snapshot of a run's artifact slots. It is the
// single input to Derive; capabilities are never stored, only recomputed
// from this value.
type ArtifactSet struct {
	Seed     bool
	Dialogue bool
	Audio    bool
	Images   ImagesPresence
	Video    bool
	Publish  bool
}

// Valid reports whether the set respects the slot dependency order:
// audio and images require dialogue, video requires audio and images,
// a publish record requires video.
func (a ArtifactSet) Valid() bool {
	if a.Audio && !a.Dialogue {
		return false
	}
	if !a.Images.Absent() && !a.Dialogue {
		return false
	}
	if a.Video && (!a.Audio || a.Images.Absent()) {
		return false
	}
	if a.Publish && !a.Video {
		return false
	}
	return true
}
