package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process store used by tests and by the CLI when no
// persistent backend is configured. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[uuid.UUID]map[string][]byte)}
}

// Read returns the stored payload or ErrNotFound.
func (m *Memory) Read(_ context.Context, runID uuid.UUID, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.runs[runID][slot]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores a copy of the payload.
func (m *Memory) Write(_ context.Context, runID uuid.UUID, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slots, ok := m.runs[runID]
	if !ok {
		slots = make(map[string][]byte)
		m.runs[runID] = slots
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	slots[slot] = stored
	return nil
}

// Delete removes the slot's payload.
func (m *Memory) Delete(_ context.Context, runID uuid.UUID, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slots, ok := m.runs[runID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := slots[slot]; !ok {
		return ErrNotFound
	}
	delete(slots, slot)
	return nil
}

// Slots lists present slot names, sorted for stable output.
func (m *Memory) Slots(_ context.Context, runID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots := m.runs[runID]
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Runs lists run ids with at least one slot.
func (m *Memory) Runs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.runs))
	for id, slots := range m.runs {
		if len(slots) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
