package runs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortreel/internal/store"
	"shortreel/internal/types"
	"shortreel/internal/workflow"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(store.NewMemory())
}

func TestCreate_SeedsArtifactSet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, types.Seed{Topic: "deep sea creatures"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, "deep sea creatures", run.Topic)

	set, err := repo.ArtifactSet(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, set.Seed)
	assert.False(t, set.Dialogue)

	seed, err := repo.Seed(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "deep sea creatures", seed.Topic)
}

func TestCreate_RunIDsAreTimeOrdered(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, types.Seed{Topic: "a"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := repo.Create(ctx, types.Seed{Topic: "b"})
	require.NoError(t, err)

	assert.Less(t, first.ID.String(), second.ID.String(), "v7 ids sort by creation time")
}

func TestGet_UnknownRun(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Get(context.Background(), uuid.New())
	var notFound *ErrRunNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestArtifactSet_TracksSlotWrites(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, types.Seed{Topic: "volcanoes"})
	require.NoError(t, err)

	require.NoError(t, repo.SaveDialogue(ctx, run.ID, &types.Dialogue{
		Title: "Volcanoes",
		Lines: []types.DialogueLine{{Index: 0, Speaker: "narrator", Text: "Deep below..."}},
	}))
	require.NoError(t, repo.SaveAudio(ctx, run.ID, &types.AudioArtifact{
		AudioRef: "audio/volcanoes.mp3",
		Timeline: types.Timeline{TotalSec: 30, Segments: []types.TimelineSegment{{LineIndex: 0, StartSec: 0, EndSec: 30}}},
	}))
	require.NoError(t, repo.SaveImages(ctx, run.ID, &types.ImageSet{
		Entries: []types.ImageEntry{
			{Index: 0, Ref: "img/0.png"},
			{Index: 1, Error: "safety filter"},
		},
	}))

	set, err := repo.ArtifactSet(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, set.Dialogue)
	assert.True(t, set.Audio)
	assert.Equal(t, workflow.ImagesPresence{Total: 2, Filled: 1}, set.Images)
	assert.True(t, set.Images.Partial())
	assert.False(t, set.Video)
}

func TestDeleteSlot(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, types.Seed{Topic: "x"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveDialogue(ctx, run.ID, &types.Dialogue{Title: "x"}))
	require.NoError(t, repo.SaveAudio(ctx, run.ID, &types.AudioArtifact{AudioRef: "a"}))

	require.NoError(t, repo.DeleteSlot(ctx, run.ID, workflow.SlotAudio))

	set, err := repo.ArtifactSet(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, set.Dialogue, "deleting audio leaves dialogue untouched")
	assert.False(t, set.Audio)
}

func TestPublishHistory(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	published, err := repo.Create(ctx, types.Seed{Topic: "space debris"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.Seed{Topic: "unpublished"})
	require.NoError(t, err)

	require.NoError(t, repo.SavePublishRecord(ctx, published.ID, &types.PublishRecord{
		Platform:    "youtube",
		VideoID:     "abc123",
		Status:      types.PublishStatusPublic,
		PublishedAt: time.Now().UTC(),
	}))

	history, err := repo.PublishHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "space debris", history[0].Topic)
	assert.Equal(t, "abc123", history[0].VideoID)
}

func TestList_SkipsRunlessSlots(t *testing.T) {
	mem := store.NewMemory()
	repo := NewRepository(mem)
	ctx := context.Background()

	run, err := repo.Create(ctx, types.Seed{Topic: "ok"})
	require.NoError(t, err)

	// An orphaned slot with no run record should not break listing.
	require.NoError(t, mem.Write(ctx, uuid.New(), "seed", []byte(`{}`)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, run.ID, list[0].ID)
}
