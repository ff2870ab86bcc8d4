// Package tasks executes long-running pipeline operations as background
// goroutines with an observable status registry. The registry lives in
// process memory only: an in-flight task does not survive a restart and must
// be re-invoked (accepted limitation, not a bug).
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names a pipeline step executed as a task.
type Type string

// Task types, one per pipeline step plus the fast-upload chain.
const (
	TypeDialogue   Type = "dialogue"
	TypeAudio      Type = "audio"
	TypeImages     Type = "images"
	TypeVideo      Type = "video"
	TypeUpload     Type = "upload"
	TypeFastUpload Type = "fast_upload"
)

// KnownType reports whether t names a submittable task type.
func KnownType(t Type) bool {
	switch t {
	case TypeDialogue, TypeAudio, TypeImages, TypeVideo, TypeUpload, TypeFastUpload:
		return true
	}
	return false
}

// Status is the lifecycle state of a task.
type Status string

// Task statuses. Running is the only non-terminal state.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Record is the observable state of one task. Polling returns copies;
// only the task's own goroutine mutates the underlying state.
type Record struct {
	ID         uuid.UUID  `json:"id"`
	RunID      uuid.UUID  `json:"run_id"`
	Type       Type       `json:"type"`
	Status     Status     `json:"status"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	Result     any        `json:"result,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the task has finished.
func (r Record) Terminal() bool {
	return r.Status != StatusRunning
}

// ProgressFunc lets an operation publish a human-readable progress message.
type ProgressFunc func(message string)

// Operation is the body of a task. It persists its own artifact on success;
// the engine only observes the returned result or error.
type Operation func(ctx context.Context, progress ProgressFunc) (any, error)

// ErrAlreadyRunning indicates a task of the same (run, type) is in flight.
// Callers should poll instead of retrying the submit.
type ErrAlreadyRunning struct {
	RunID uuid.UUID
	Type  Type
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("task %s already running for run %s", e.Type, e.RunID)
}

// ErrTaskNotFound indicates an unknown task id.
type ErrTaskNotFound struct {
	TaskID uuid.UUID
}

func (e *ErrTaskNotFound) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// taskState pairs a record with its own lock so status reads never contend
// on the engine-wide lock while an operation updates progress.
type taskState struct {
	mu  sync.Mutex
	rec Record
}

func (s *taskState) snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// Engine runs submitted operations on their own goroutines and enforces at
// most one running task per (run, type). Cross-type submissions for the same
// run proceed in parallel.
type Engine struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*taskState
	byRun   map[uuid.UUID]map[Type]uuid.UUID // latest task per (run, type)
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{
		records: make(map[uuid.UUID]*taskState),
		byRun:   make(map[uuid.UUID]map[Type]uuid.UUID),
	}
}

// Submit registers a running task record and starts the operation without
// blocking. Exactly one of two racing submits for the same (run, type) wins;
// the loser gets ErrAlreadyRunning immediately, no queueing.
func (e *Engine) Submit(runID uuid.UUID, taskType Type, op Operation) (uuid.UUID, error) {
	e.mu.Lock()

	perRun, ok := e.byRun[runID]
	if !ok {
		perRun = make(map[Type]uuid.UUID)
		e.byRun[runID] = perRun
	}
	if prevID, ok := perRun[taskType]; ok {
		if e.records[prevID].snapshot().Status == StatusRunning {
			e.mu.Unlock()
			return uuid.Nil, &ErrAlreadyRunning{RunID: runID, Type: taskType}
		}
		// The previous terminal record has been superseded; dropping it keeps
		// the registry bounded by (run, type) pairs.
		delete(e.records, prevID)
	}

	id := uuid.New()
	st := &taskState{rec: Record{
		ID:        id,
		RunID:     runID,
		Type:      taskType,
		Status:    StatusRunning,
		Message:   "starting",
		StartedAt: time.Now().UTC(),
	}}
	e.records[id] = st
	perRun[taskType] = id
	e.mu.Unlock()

	go e.execute(st, op)
	return id, nil
}

// execute runs the operation to completion. No cancellation: the task either
// finishes or fails on its own.
func (e *Engine) execute(st *taskState, op Operation) {
	progress := func(message string) {
		st.mu.Lock()
		if st.rec.Status == StatusRunning {
			st.rec.Message = message
		}
		st.mu.Unlock()
	}

	result, err := op(context.Background(), progress)

	now := time.Now().UTC()
	st.mu.Lock()
	st.rec.FinishedAt = &now
	if err != nil {
		st.rec.Status = StatusError
		st.rec.Error = err.Error()
	} else {
		st.rec.Status = StatusCompleted
		st.rec.Message = "done"
		st.rec.Result = result
	}
	st.mu.Unlock()
}

// Status returns a copy of the task record, or ErrTaskNotFound.
func (e *Engine) Status(taskID uuid.UUID) (Record, error) {
	e.mu.RLock()
	st, ok := e.records[taskID]
	e.mu.RUnlock()
	if !ok {
		return Record{}, &ErrTaskNotFound{TaskID: taskID}
	}
	return st.snapshot(), nil
}

// StatusForRun returns the latest record per task type for a run, letting a
// caller that lost its task id (a reloaded page) re-attach to in-flight work.
func (e *Engine) StatusForRun(runID uuid.UUID) map[Type]Record {
	e.mu.RLock()
	perRun := e.byRun[runID]
	states := make(map[Type]*taskState, len(perRun))
	for taskType, id := range perRun {
		states[taskType] = e.records[id]
	}
	e.mu.RUnlock()

	out := make(map[Type]Record, len(states))
	for taskType, st := range states {
		out[taskType] = st.snapshot()
	}
	return out
}

// Await polls until the task reaches a terminal status. This is the pull
// model: there is no completion callback to subscribe to.
func (e *Engine) Await(ctx context.Context, taskID uuid.UUID, interval time.Duration) (Record, error) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		rec, err := e.Status(taskID)
		if err != nil {
			return Record{}, err
		}
		if rec.Terminal() {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return rec, ctx.Err()
		case <-ticker.C:
		}
	}
}
