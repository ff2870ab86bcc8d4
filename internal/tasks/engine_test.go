package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_RunsOperationInBackground(t *testing.T) {
	e := NewEngine()
	runID := uuid.New()

	release := make(chan struct{})
	taskID, err := e.Submit(runID, TypeDialogue, func(_ context.Context, progress ProgressFunc) (any, error) {
		progress("calling generator")
		<-release
		return "script-ref", nil
	})
	require.NoError(t, err)

	// Submit must not block on the operation.
	rec, err := e.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, rec.Status)
	assert.Equal(t, runID, rec.RunID)
	assert.Equal(t, TypeDialogue, rec.Type)

	close(release)
	final, err := e.Await(context.Background(), taskID, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, "script-ref", final.Result)
	require.NotNil(t, final.FinishedAt)
}

func TestSubmit_FailureCapturedInRecord(t *testing.T) {
	e := NewEngine()

	taskID, err := e.Submit(uuid.New(), TypeVideo, func(context.Context, ProgressFunc) (any, error) {
		return nil, errors.New("renderer: ffmpeg exited 1")
	})
	require.NoError(t, err)

	rec, err := e.Await(context.Background(), taskID, time.Millisecond)
	require.NoError(t, err, "polling always succeeds structurally")
	assert.Equal(t, StatusError, rec.Status)
	assert.Equal(t, "renderer: ffmpeg exited 1", rec.Error)
	assert.Nil(t, rec.Result)
}

func TestSubmit_AlreadyRunningGuard(t *testing.T) {
	e := NewEngine()
	runID := uuid.New()

	release := make(chan struct{})
	_, err := e.Submit(runID, TypeAudio, func(context.Context, ProgressFunc) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	_, err = e.Submit(runID, TypeAudio, func(context.Context, ProgressFunc) (any, error) {
		return nil, nil
	})
	var already *ErrAlreadyRunning
	require.ErrorAs(t, err, &already)
	assert.Equal(t, runID, already.RunID)
	assert.Equal(t, TypeAudio, already.Type)

	close(release)
}

func TestSubmit_CrossTypeParallelismAllowed(t *testing.T) {
	e := NewEngine()
	runID := uuid.New()

	release := make(chan struct{})
	blocked := func(context.Context, ProgressFunc) (any, error) {
		<-release
		return nil, nil
	}

	_, err := e.Submit(runID, TypeAudio, blocked)
	require.NoError(t, err)
	_, err = e.Submit(runID, TypeImages, blocked)
	require.NoError(t, err, "images and audio may run concurrently for one run")

	close(release)
}

func TestSubmit_ResubmitAfterTerminal(t *testing.T) {
	e := NewEngine()
	runID := uuid.New()

	first, err := e.Submit(runID, TypeAudio, func(context.Context, ProgressFunc) (any, error) {
		return nil, errors.New("tts unavailable")
	})
	require.NoError(t, err)
	_, err = e.Await(context.Background(), first, time.Millisecond)
	require.NoError(t, err)

	second, err := e.Submit(runID, TypeAudio, func(context.Context, ProgressFunc) (any, error) {
		return "audio-ref", nil
	})
	require.NoError(t, err, "terminal task does not block resubmission")

	// The superseded record is garbage-collected.
	_, err = e.Status(first)
	var notFound *ErrTaskNotFound
	require.ErrorAs(t, err, &notFound)

	rec, err := e.Await(context.Background(), second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
}

func TestStatus_UnknownTask(t *testing.T) {
	e := NewEngine()
	_, err := e.Status(uuid.New())
	var notFound *ErrTaskNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestStatusForRun_ReattachAfterLostTaskID(t *testing.T) {
	e := NewEngine()
	runID := uuid.New()

	release := make(chan struct{})
	_, err := e.Submit(runID, TypeImages, func(_ context.Context, progress ProgressFunc) (any, error) {
		progress("generating entry 2/4")
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		recs := e.StatusForRun(runID)
		rec, ok := recs[TypeImages]
		return ok && rec.Message == "generating entry 2/4"
	}, time.Second, time.Millisecond)

	assert.Empty(t, e.StatusForRun(uuid.New()), "unrelated run has no records")
	close(release)
}

// TestSubmit_ConcurrentSameKey is the stress case: N racing submits for one
// (run, type) pair, exactly one wins.
func TestSubmit_ConcurrentSameKey(t *testing.T) {
	e := NewEngine()
	runID := uuid.New()
	release := make(chan struct{})

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	var won, lost int

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Submit(runID, TypeVideo, func(context.Context, ProgressFunc) (any, error) {
				<-release
				return nil, nil
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
				return
			}
			var already *ErrAlreadyRunning
			if errors.As(err, &already) {
				lost++
			}
		}()
	}
	wg.Wait()
	close(release)

	assert.Equal(t, 1, won, "exactly one submit wins")
	assert.Equal(t, n-1, lost, "every loser gets ErrAlreadyRunning")
}

func TestAwait_ContextCancelled(t *testing.T) {
	e := NewEngine()
	release := make(chan struct{})
	defer close(release)

	taskID, err := e.Submit(uuid.New(), TypeUpload, func(context.Context, ProgressFunc) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rec, err := e.Await(ctx, taskID, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusRunning, rec.Status, "task keeps running; only the wait stops")
}
