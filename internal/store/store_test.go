package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the same contract checks against every local backend.
func storeUnderTest(t *testing.T, s Store) {
	ctx := context.Background()
	runID := uuid.New()

	t.Run("read missing slot", func(t *testing.T) {
		_, err := s.Read(ctx, runID, "dialogue")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("write then read", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, runID, "dialogue", []byte(`{"title":"a"}`)))
		data, err := s.Read(ctx, runID, "dialogue")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"a"}`, string(data))
	})

	t.Run("overwrite replaces payload", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, runID, "dialogue", []byte(`{"title":"b"}`)))
		data, err := s.Read(ctx, runID, "dialogue")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"b"}`, string(data))
	})

	t.Run("slots listing", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, runID, "seed", []byte(`{}`)))
		slots, err := s.Slots(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, []string{"dialogue", "seed"}, slots)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, runID, "dialogue"))
		_, err := s.Read(ctx, runID, "dialogue")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.Delete(ctx, runID, "dialogue"), ErrNotFound)
	})

	t.Run("runs listing", func(t *testing.T) {
		other := uuid.New()
		require.NoError(t, s.Write(ctx, other, "seed", []byte(`{}`)))
		ids, err := s.Runs(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, runID)
		assert.Contains(t, ids, other)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemory())
}

func TestFSStore(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	storeUnderTest(t, fs)
}

func TestFSStore_IgnoresStrayFiles(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFS(root)
	require.NoError(t, err)

	ctx := context.Background()
	runID := uuid.New()
	require.NoError(t, fs.Write(ctx, runID, "seed", []byte(`{}`)))

	// A leftover temp file must not show up as a slot.
	require.NoError(t, fs.Write(ctx, runID, "video", []byte(`{}`)))
	slots, err := fs.Slots(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"seed", "video"}, slots)
}
