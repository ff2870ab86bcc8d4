package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/pipeline"
	"shortreel/internal/tasks"
	"shortreel/internal/types"
	"shortreel/internal/workflow"
)

// createRunRequest is the POST /runs body.
type createRunRequest struct {
	Topic  string `json:"topic"`
	Source string `json:"source,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// submitTaskRequest is the optional POST /runs/{id}/tasks/{task_type} body.
type submitTaskRequest struct {
	PublishAt  *time.Time `json:"publish_at,omitempty"`
	ImageIndex *int       `json:"image_index,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if req.Topic == "" {
		s.errorResponse(w, &ErrValidation{Field: "topic", Message: "must not be empty"})
		return
	}

	run, err := s.pipeline.CreateRun(r.Context(), types.Seed{
		Topic:  req.Topic,
		Source: req.Source,
		Prompt: req.Prompt,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	all, err := s.pipeline.Runs(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": all})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	run, err := s.pipeline.Run(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	caps, err := s.pipeline.Capabilities(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, caps)
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	taskType := tasks.Type(r.PathValue("task_type"))
	if !tasks.KnownType(taskType) {
		s.errorResponse(w, &ErrValidation{Field: "task_type", Message: "unknown task type"})
		return
	}

	var req submitTaskRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
			return
		}
	}

	taskID, err := s.pipeline.Submit(r.Context(), runID, taskType, pipeline.SubmitOptions{
		PublishAt:  req.PublishAt,
		ImageIndex: req.ImageIndex,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]any{"task_id": taskID})
}

func (s *Server) handleRunTasks(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.pipeline.Run(r.Context(), runID); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tasks": s.pipeline.StatusForRun(runID)})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	rec, err := s.pipeline.Status(taskID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateDialogue(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var d types.Dialogue
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if len(d.Lines) == 0 {
		s.errorResponse(w, &ErrValidation{Field: "lines", Message: "must not be empty"})
		return
	}

	if err := s.pipeline.UpdateDialogue(r.Context(), runID, &d); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, d)
}

func (s *Server) handleRegenerateImage(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		s.errorResponse(w, &ErrValidation{Field: "index", Message: "must be a non-negative integer"})
		return
	}

	taskID, err := s.pipeline.RegenerateImage(r.Context(), runID, index)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]any{"task_id": taskID})
}

func (s *Server) handleDropArtifact(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	slot := workflow.Slot(r.PathValue("slot"))

	deleted, err := s.pipeline.Drop(r.Context(), runID, slot)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleDeleteYouTube(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := s.pipeline.DeleteYouTube(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	if s.scheduler == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "scheduler not configured"})
		return
	}
	cfg, state, running := s.scheduler.Status()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"config":  cfg,
		"state":   state,
		"running": running,
	})
}

func (s *Server) handleSchedulerTrigger(w http.ResponseWriter, _ *http.Request) {
	if s.scheduler == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "scheduler not configured"})
		return
	}
	if err := s.scheduler.Trigger(); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

// pathUUID parses a UUID path segment, writing the validation error itself.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: name, Message: "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
