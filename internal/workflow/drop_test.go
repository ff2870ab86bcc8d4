package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements ArtifactStore for dropper tests.
type fakeStore struct {
	set     ArtifactSet
	deleted []Slot
	err     error
}

func (f *fakeStore) ArtifactSet(_ context.Context, _ uuid.UUID) (ArtifactSet, error) {
	return f.set, f.err
}

func (f *fakeStore) DeleteSlot(_ context.Context, _ uuid.UUID, slot Slot) error {
	f.deleted = append(f.deleted, slot)
	return nil
}

func readyToRender() ArtifactSet {
	return ArtifactSet{
		Seed:     true,
		Dialogue: true,
		Audio:    true,
		Images:   ImagesPresence{Total: 2, Filled: 2},
	}
}

func TestDrop_AudioWithoutVideo(t *testing.T) {
	store := &fakeStore{set: readyToRender()}
	d := NewDropper(store)

	deleted, err := d.Drop(context.Background(), uuid.New(), SlotAudio)
	require.NoError(t, err)
	assert.Equal(t, []Slot{SlotAudio}, deleted)
	assert.Equal(t, []Slot{SlotAudio}, store.deleted, "only the named slot is deleted")
}

func TestDrop_RejectedWhenVideoDepends(t *testing.T) {
	set := readyToRender()
	set.Video = true
	store := &fakeStore{set: set}
	d := NewDropper(store)

	for _, slot := range []Slot{SlotAudio, SlotImages} {
		_, err := d.Drop(context.Background(), uuid.New(), slot)
		var invalid *ErrInvalidTransition
		require.ErrorAs(t, err, &invalid, "dropping %s under a video must fail", slot)
	}
	assert.Empty(t, store.deleted)
}

func TestDrop_VideoNeverCascades(t *testing.T) {
	set := readyToRender()
	set.Video = true
	store := &fakeStore{set: set}
	d := NewDropper(store)

	deleted, err := d.Drop(context.Background(), uuid.New(), SlotVideo)
	require.NoError(t, err)
	assert.Equal(t, []Slot{SlotVideo}, deleted)
	assert.Equal(t, []Slot{SlotVideo}, store.deleted, "audio and images stay in place")
}

func TestDrop_VideoRejectedWhenPublished(t *testing.T) {
	set := readyToRender()
	set.Video = true
	set.Publish = true
	d := NewDropper(&fakeStore{set: set})

	_, err := d.Drop(context.Background(), uuid.New(), SlotVideo)
	var invalid *ErrInvalidTransition
	require.ErrorAs(t, err, &invalid)
}

func TestDrop_UnknownSlot(t *testing.T) {
	d := NewDropper(&fakeStore{set: readyToRender()})

	_, err := d.Drop(context.Background(), uuid.New(), Slot("thumbnail"))
	var invalid *ErrInvalidTransition
	require.ErrorAs(t, err, &invalid)
}

func TestDrop_NonDroppableSlots(t *testing.T) {
	d := NewDropper(&fakeStore{set: readyToRender()})

	for _, slot := range []Slot{SlotSeed, SlotDialogue, SlotPublish} {
		_, err := d.Drop(context.Background(), uuid.New(), slot)
		var invalid *ErrInvalidTransition
		require.ErrorAs(t, err, &invalid, "slot %s must not be droppable", slot)
	}
}
