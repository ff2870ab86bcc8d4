// Package scheduler drives fleets of runs on a daily timer. Each trigger
// walks the configured slots: pick a topic, create a run, drive it through
// the whole pipeline. Slots execute independently; one slot's failure never
// aborts its siblings.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shortreel/internal/pipeline"
	"shortreel/internal/runs"
	"shortreel/internal/tasks"
	"shortreel/internal/topics"
	"shortreel/internal/types"
)

// Phase is the trigger state machine position.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseTriggered        Phase = "triggered"
	PhasePerSlotExecuting Phase = "per_slot_executing"
	PhaseRecorded         Phase = "recorded"
)

// Outcome classifies a finished trigger.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeError   Outcome = "error"
)

// State is the scheduler's observable state. Mutated only by the scheduler
// itself; status queries get copies.
type State struct {
	LastTriggeredAt *time.Time  `json:"last_triggered_at,omitempty"`
	LastOutcome     Outcome     `json:"last_outcome,omitempty"`
	CreatedRunIDs   []uuid.UUID `json:"created_run_ids,omitempty"`
	SlotErrors      []string    `json:"slot_errors,omitempty"`
	NextTriggerAt   *time.Time  `json:"next_trigger_at,omitempty"`
}

// ErrTriggerInFlight rejects a trigger while a prior one has not been
// recorded yet.
type ErrTriggerInFlight struct {
	Phase Phase
}

func (e *ErrTriggerInFlight) Error() string {
	return fmt.Sprintf("scheduler trigger already in flight (phase %s)", e.Phase)
}

// Driver is the pipeline surface the scheduler drives runs through.
type Driver interface {
	CreateRun(ctx context.Context, seed types.Seed) (*runs.Run, error)
	Submit(ctx context.Context, runID uuid.UUID, taskType tasks.Type, opts pipeline.SubmitOptions) (uuid.UUID, error)
	Await(ctx context.Context, taskID uuid.UUID) (tasks.Record, error)
}

// TopicPicker selects one topic per slot.
type TopicPicker interface {
	Pick(ctx context.Context, mode topics.Mode) (*types.Topic, error)
}

// Scheduler owns the per-trigger state machine and the daily timer loop.
type Scheduler struct {
	driver Driver
	picker TopicPicker

	mu    sync.Mutex
	cfg   Config
	phase Phase
	state State

	now func() time.Time
	rng *rand.Rand
}

// New creates a scheduler in the Idle phase.
func New(cfg Config, driver Driver, picker TopicPicker) *Scheduler {
	return &Scheduler{
		driver: driver,
		picker: picker,
		cfg:    cfg,
		phase:  PhaseIdle,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Status returns the configuration, a copy of the state, and whether a
// trigger is currently executing.
func (s *Scheduler) Status() (Config, State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.snapshotLocked(), s.phase == PhaseTriggered || s.phase == PhasePerSlotExecuting
}

func (s *Scheduler) snapshotLocked() State {
	st := s.state
	st.CreatedRunIDs = append([]uuid.UUID(nil), s.state.CreatedRunIDs...)
	st.SlotErrors = append([]string(nil), s.state.SlotErrors...)
	return st
}

// Trigger starts one trigger out of band. It is rejected while a prior
// trigger has not been recorded, and executes asynchronously once accepted.
func (s *Scheduler) Trigger() error {
	s.mu.Lock()
	if s.phase == PhaseTriggered || s.phase == PhasePerSlotExecuting {
		phase := s.phase
		s.mu.Unlock()
		return &ErrTriggerInFlight{Phase: phase}
	}

	now := s.now().UTC()
	s.phase = PhaseTriggered
	s.state.LastTriggeredAt = &now
	s.state.CreatedRunIDs = nil
	s.state.SlotErrors = nil
	s.mu.Unlock()

	go s.execute()
	return nil
}

// slotResult is one slot's outcome: a created run id, an error, or both when
// the run was created but the pipeline failed partway.
type slotResult struct {
	runID uuid.UUID
	err   error
}

func (s *Scheduler) execute() {
	s.mu.Lock()
	s.phase = PhasePerSlotExecuting
	cfg := s.cfg
	s.mu.Unlock()

	enabled := cfg.EnabledSlots()
	results := make([]slotResult, len(enabled))

	// Slot failures are captured into results, never returned, so no slot
	// can abort a sibling through the group.
	g := new(errgroup.Group)
	for i, slotIdx := range enabled {
		g.Go(func() error {
			results[i] = s.runSlot(context.Background(), cfg, cfg.Slots[slotIdx])
			return nil
		})
	}
	_ = g.Wait()

	s.record(enabled, results)
}

func (s *Scheduler) record(enabled []int, results []slotResult) {
	var runIDs []uuid.UUID
	var slotErrors []string
	failed := 0
	for i, res := range results {
		if res.runID != uuid.Nil {
			runIDs = append(runIDs, res.runID)
		}
		if res.err != nil {
			failed++
			slotErrors = append(slotErrors, fmt.Sprintf("slot %d: %v", enabled[i], res.err))
		}
	}

	outcome := OutcomeSuccess
	switch {
	case len(runIDs) == 0 && len(enabled) > 0:
		outcome = OutcomeError
	case failed > 0:
		outcome = OutcomePartial
	}

	s.mu.Lock()
	s.phase = PhaseRecorded
	s.state.LastOutcome = outcome
	s.state.CreatedRunIDs = runIDs
	s.state.SlotErrors = slotErrors
	s.phase = PhaseIdle
	s.mu.Unlock()

	log.Printf("[SCHEDULER] trigger recorded: outcome=%s runs=%d errors=%d", outcome, len(runIDs), failed)
}

// runSlot executes one slot end to end: topic, run, then the full chain.
func (s *Scheduler) runSlot(ctx context.Context, cfg Config, slot SlotConfig) slotResult {
	topic, err := s.picker.Pick(ctx, slot.TopicMode)
	if err != nil {
		return slotResult{err: fmt.Errorf("selecting topic: %w", err)}
	}

	seed := types.Seed{
		Topic:  topic.Title,
		Source: topic.URL,
		Prompt: slot.PromptOverride,
	}
	run, err := s.driver.CreateRun(ctx, seed)
	if err != nil {
		return slotResult{err: fmt.Errorf("creating run: %w", err)}
	}

	publishAt := s.publishTime(cfg)
	taskID, err := s.driver.Submit(ctx, run.ID, tasks.TypeFastUpload, pipeline.SubmitOptions{PublishAt: publishAt})
	if err != nil {
		return slotResult{runID: run.ID, err: err}
	}

	rec, err := s.driver.Await(ctx, taskID)
	if err != nil {
		return slotResult{runID: run.ID, err: err}
	}
	if rec.Status == tasks.StatusError {
		return slotResult{runID: run.ID, err: fmt.Errorf("%s", rec.Error)}
	}
	return slotResult{runID: run.ID}
}

// publishTime applies the publish policy: nil for immediate, otherwise a
// timestamp inside the evening window (today, or tomorrow once the window
// has passed).
func (s *Scheduler) publishTime(cfg Config) *time.Time {
	if cfg.PublishPolicy != PublishEvening {
		return nil
	}

	start, err := parseClock(cfg.EveningStart)
	if err != nil {
		return nil
	}
	end, err := parseClock(cfg.EveningEnd)
	if err != nil {
		return nil
	}

	now := s.now()
	windowStart := start.on(now)
	windowEnd := end.on(now)
	if !now.Before(windowEnd) {
		windowStart = windowStart.Add(24 * time.Hour)
		windowEnd = windowEnd.Add(24 * time.Hour)
	}

	s.mu.Lock()
	offset := time.Duration(s.rng.Int63n(int64(windowEnd.Sub(windowStart))))
	s.mu.Unlock()

	at := windowStart.Add(offset).UTC()
	return &at
}

// NextTrigger returns the next daily generation time after now.
func (s *Scheduler) NextTrigger() (time.Time, error) {
	s.mu.Lock()
	generationTime := s.cfg.GenerationTime
	s.mu.Unlock()

	c, err := parseClock(generationTime)
	if err != nil {
		return time.Time{}, err
	}
	now := s.now()
	next := c.on(now)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next, nil
}

// Start runs the daily loop until ctx is cancelled. Returns immediately when
// the scheduler is disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	enabled := s.cfg.Enabled
	s.mu.Unlock()
	if !enabled {
		log.Printf("[SCHEDULER] disabled, not starting")
		return nil
	}

	for {
		next, err := s.NextTrigger()
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.state.NextTriggerAt = &next
		s.mu.Unlock()
		log.Printf("[SCHEDULER] next trigger at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.Trigger(); err != nil {
			// A manual trigger is still executing; skip this tick.
			log.Printf("[SCHEDULER] skipping tick: %v", err)
		}
	}
}
