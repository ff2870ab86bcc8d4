// Package topics picks what the next video should be about. Sources produce
// candidate topics; the selector picks one, either at random or scored
// against the publish history.
package topics

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"shortreel/internal/types"
)

// Mode selects how a topic is picked from the candidates.
type Mode string

const (
	ModeRandom Mode = "random"
	ModeScored Mode = "scored"
)

// KnownMode reports whether m names a selection mode.
func KnownMode(m Mode) bool {
	return m == ModeRandom || m == ModeScored
}

// Source produces candidate topics.
type Source interface {
	FetchCandidateTopics(ctx context.Context) ([]types.Topic, error)
}

// History exposes past publish outcomes for scored selection.
type History interface {
	PublishHistory(ctx context.Context) ([]types.PublishStat, error)
}

// StaticSource serves a fixed candidate list, used when topics come from
// configuration rather than the web.
type StaticSource struct {
	Topics []types.Topic
}

func (s *StaticSource) FetchCandidateTopics(ctx context.Context) ([]types.Topic, error) {
	if len(s.Topics) == 0 {
		return nil, fmt.Errorf("no topics configured")
	}
	out := make([]types.Topic, len(s.Topics))
	copy(out, s.Topics)
	return out, nil
}

// Selector picks one topic from a source's candidates. Safe for concurrent
// use: the scheduler drives every slot through one shared selector.
type Selector struct {
	source  Source
	history History

	mu  sync.Mutex // guards rng, which is not safe for concurrent use
	rng *rand.Rand
}

// NewSelector creates a selector. history may be nil, in which case scored
// mode degrades to random.
func NewSelector(source Source, history History) *Selector {
	return &Selector{
		source:  source,
		history: history,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pick fetches candidates and selects one according to the mode.
func (s *Selector) Pick(ctx context.Context, mode Mode) (*types.Topic, error) {
	if !KnownMode(mode) {
		return nil, fmt.Errorf("unknown topic mode %q", mode)
	}

	candidates, err := s.source.FetchCandidateTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate topics: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("source returned no candidate topics")
	}

	if mode == ModeScored && s.history != nil {
		stats, err := s.history.PublishHistory(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading publish history: %w", err)
		}
		scored := ScoreTopicsByHistory(candidates, stats)
		best := scored[0]
		for _, st := range scored[1:] {
			if st.Score > best.Score {
				best = st
			}
		}
		return &best.Topic, nil
	}

	s.mu.Lock()
	pick := candidates[s.rng.Intn(len(candidates))]
	s.mu.Unlock()
	return &pick, nil
}
