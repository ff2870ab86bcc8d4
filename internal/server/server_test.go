package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortreel/internal/pipeline"
	"shortreel/internal/runs"
	"shortreel/internal/scheduler"
	"shortreel/internal/store"
	"shortreel/internal/tasks"
	"shortreel/internal/topics"
	"shortreel/internal/types"
)

type stubDialogue struct{}

func (stubDialogue) GenerateDialogue(ctx context.Context, seed *types.Seed) (*types.Dialogue, error) {
	return &types.Dialogue{
		Title: seed.Topic,
		Lines: []types.DialogueLine{{Index: 0, Speaker: "host", Text: "hello"}},
	}, nil
}

type stubSpeech struct{}

func (stubSpeech) GenerateAudio(ctx context.Context, d *types.Dialogue) (*types.AudioArtifact, error) {
	return &types.AudioArtifact{AudioRef: "a.mp3", Format: "mp3", Timeline: types.Timeline{TotalSec: 5}}, nil
}

type stubImages struct{}

func (stubImages) GenerateImages(ctx context.Context, d *types.Dialogue) (*types.ImageSet, error) {
	set := &types.ImageSet{}
	for i := range d.Lines {
		set.Entries = append(set.Entries, types.ImageEntry{Index: i, Ref: fmt.Sprintf("%d.png", i)})
	}
	return set, nil
}

func (stubImages) GenerateImage(ctx context.Context, d *types.Dialogue, index int) (*types.ImageEntry, error) {
	return &types.ImageEntry{Index: index, Ref: "retry.png"}, nil
}

type stubVideo struct{}

func (stubVideo) RenderVideo(ctx context.Context, a *types.AudioArtifact, i *types.ImageSet) (*types.VideoArtifact, error) {
	return &types.VideoArtifact{VideoRef: "v.mp4"}, nil
}

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, v *types.VideoArtifact, meta types.PublishMetadata, at *time.Time) (*types.PublishRecord, error) {
	return &types.PublishRecord{Platform: "youtube", VideoID: "yt-1", Status: types.PublishStatusPublic, PublishedAt: time.Now().UTC()}, nil
}

func (stubPublisher) Retract(ctx context.Context, rec *types.PublishRecord) error {
	return nil
}

func newTestServer(t *testing.T) (*Server, *pipeline.Service) {
	t.Helper()
	svc := pipeline.NewService(runs.NewRepository(store.NewMemory()), tasks.NewEngine(), pipeline.Collaborators{
		Dialogue:  stubDialogue{},
		Speech:    stubSpeech{},
		Images:    stubImages{},
		Video:     stubVideo{},
		Publisher: stubPublisher{},
	})
	svc.SetPollInterval(time.Millisecond)
	return New(Config{Port: 0}, svc, nil), svc
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func createRunViaAPI(t *testing.T, h http.Handler) uuid.UUID {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/runs", map[string]string{"topic": "urban beekeeping"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var run runs.Run
	decodeBody(t, w, &run)
	return run.ID
}

func TestCreateRun(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/runs", map[string]string{"topic": "urban beekeeping"})
	require.Equal(t, http.StatusCreated, w.Code)

	var run runs.Run
	decodeBody(t, w, &run)
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, "urban beekeeping", run.Topic)
}

func TestCreateRun_EmptyTopic(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodPost, "/runs", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodGet, "/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCapabilities_NewRun(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	runID := createRunViaAPI(t, h)

	w := doJSON(t, h, http.MethodGet, "/runs/"+runID.String()+"/capabilities", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var caps map[string]any
	decodeBody(t, w, &caps)
	assert.Equal(t, true, caps["can_generate_dialogue"])
	assert.Equal(t, false, caps["can_generate_audio"])
	assert.Equal(t, "seed", caps["current_step"])
}

func TestSubmitTask_DialogueLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	runID := createRunViaAPI(t, h)

	w := doJSON(t, h, http.MethodPost, "/runs/"+runID.String()+"/tasks/dialogue", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var submitted struct {
		TaskID uuid.UUID `json:"task_id"`
	}
	decodeBody(t, w, &submitted)
	require.NotEqual(t, uuid.Nil, submitted.TaskID)

	require.Eventually(t, func() bool {
		w := doJSON(t, h, http.MethodGet, "/tasks/"+submitted.TaskID.String(), nil)
		if w.Code != http.StatusOK {
			return false
		}
		var rec tasks.Record
		decodeBody(t, w, &rec)
		return rec.Status == tasks.StatusCompleted
	}, 5*time.Second, 5*time.Millisecond)

	w = doJSON(t, h, http.MethodGet, "/runs/"+runID.String()+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byType struct {
		Tasks map[string]tasks.Record `json:"tasks"`
	}
	decodeBody(t, w, &byType)
	assert.Contains(t, byType.Tasks, "dialogue")
}

func TestSubmitTask_GatingAndValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	runID := createRunViaAPI(t, h)

	w := doJSON(t, h, http.MethodPost, "/runs/"+runID.String()+"/tasks/audio", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "audio before dialogue")

	w = doJSON(t, h, http.MethodPost, "/runs/"+runID.String()+"/tasks/remux", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown task type")
}

func TestDropArtifact_Rejections(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	runID := createRunViaAPI(t, h)

	w := doJSON(t, h, http.MethodDelete, "/runs/"+runID.String()+"/artifacts/seed", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "seed is not droppable")

	w = doJSON(t, h, http.MethodDelete, "/runs/"+runID.String()+"/artifacts/audio", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "absent slot cannot be dropped")
}

func TestUpdateDialogue_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	runID := createRunViaAPI(t, h)

	w := doJSON(t, h, http.MethodPut, "/runs/"+runID.String()+"/dialogue", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty lines rejected")
}

func TestTaskStatus_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduler_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/scheduler", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/scheduler/trigger", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduler_StatusAndTrigger(t *testing.T) {
	_, svc := newTestServer(t)
	cfg := scheduler.DefaultConfig()
	cfg.Slots = []scheduler.SlotConfig{{Enabled: true, TopicMode: topics.ModeRandom}}
	sched := scheduler.New(cfg, svc, topics.NewSelector(
		&topics.StaticSource{Topics: []types.Topic{{Title: "night trains return"}}}, nil))

	srv := New(Config{Port: 0}, svc, sched)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/scheduler", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Running bool `json:"running"`
	}
	decodeBody(t, w, &status)
	assert.False(t, status.Running)

	w = doJSON(t, h, http.MethodPost, "/scheduler/trigger", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		w := doJSON(t, h, http.MethodGet, "/scheduler", nil)
		var st struct {
			Running bool `json:"running"`
			State   scheduler.State
		}
		decodeBody(t, w, &st)
		return !st.Running && st.State.LastOutcome != ""
	}, 5*time.Second, 5*time.Millisecond)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
