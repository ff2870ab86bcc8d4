package topics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortreel/internal/types"
)

type stubHistory struct {
	stats []types.PublishStat
	err   error
}

func (s *stubHistory) PublishHistory(ctx context.Context) ([]types.PublishStat, error) {
	return s.stats, s.err
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{Topics: []types.Topic{{Title: "deep sea mining"}}}
	got, err := src.FetchCandidateTopics(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	empty := &StaticSource{}
	_, err = empty.FetchCandidateTopics(context.Background())
	assert.Error(t, err)
}

func TestSelector_RandomPicksFromCandidates(t *testing.T) {
	src := &StaticSource{Topics: []types.Topic{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	}}
	sel := NewSelector(src, nil)

	seen := make(map[string]bool)
	for range 50 {
		topic, err := sel.Pick(context.Background(), ModeRandom)
		require.NoError(t, err)
		seen[topic.Title] = true
	}
	assert.Greater(t, len(seen), 1, "random mode should not be constant")
}

func TestSelector_ConcurrentRandomPicks(t *testing.T) {
	src := &StaticSource{Topics: []types.Topic{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	}}
	sel := NewSelector(src, nil)

	// All scheduler slots share one selector, so Pick must survive the race
	// detector under parallel callers.
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				_, err := sel.Pick(context.Background(), ModeRandom)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func TestSelector_RejectsUnknownMode(t *testing.T) {
	sel := NewSelector(&StaticSource{Topics: []types.Topic{{Title: "x"}}}, nil)
	_, err := sel.Pick(context.Background(), Mode("weighted"))
	assert.Error(t, err)
}

func TestSelector_ScoredAvoidsRecentRepeats(t *testing.T) {
	src := &StaticSource{Topics: []types.Topic{
		{Title: "electric ferries cross the baltic"},
		{Title: "quantum sensors find groundwater"},
	}}
	hist := &stubHistory{stats: []types.PublishStat{
		{Topic: "electric ferries cross the baltic", PublishedAt: time.Now().UTC().Add(-24 * time.Hour)},
	}}

	sel := NewSelector(src, hist)
	topic, err := sel.Pick(context.Background(), ModeScored)
	require.NoError(t, err)
	assert.Equal(t, "quantum sensors find groundwater", topic.Title)
}

func TestSelector_ScoredSurfacesHistoryError(t *testing.T) {
	sel := NewSelector(
		&StaticSource{Topics: []types.Topic{{Title: "x"}}},
		&stubHistory{err: errors.New("db down")},
	)
	_, err := sel.Pick(context.Background(), ModeScored)
	assert.ErrorContains(t, err, "db down")
}

func TestScoreTopicsByHistory_OldPublishesDoNotPenalize(t *testing.T) {
	candidates := []types.Topic{{Title: "electric ferries cross the baltic"}}
	stats := []types.PublishStat{
		{Topic: "electric ferries cross the baltic", PublishedAt: time.Now().UTC().Add(-90 * 24 * time.Hour)},
	}

	scored := ScoreTopicsByHistory(candidates, stats)
	require.Len(t, scored, 1)
	assert.InDelta(t, 1.0, scored[0].Score, 0.001)
}

func TestWebSource_ScrapesHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
			<html><body>
				<h2><a href="/s/1">Grid-scale iron batteries ship</a></h2>
				<h2><a href="/s/2">Vertical farms turn profitable</a></h2>
			</body></html>`))
	}))
	defer server.Close()

	src := NewWebSource([]string{server.URL}, false, false)
	got, err := src.FetchCandidateTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Grid-scale iron batteries ship", got[0].Title)
	assert.Equal(t, server.URL+"/s/1", got[0].URL)
	assert.Contains(t, got[0].Keywords, "batteries")
}

func TestWebSource_SkipsFailingPages(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h2><a href="/x">Working headline here</a></h2></body></html>`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	src := NewWebSource([]string{bad.URL, good.URL}, false, false)
	got, err := src.FetchCandidateTopics(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWebSource_AllPagesFailing(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	src := NewWebSource([]string{bad.URL}, false, false)
	_, err := src.FetchCandidateTopics(context.Background())
	assert.ErrorContains(t, err, "no topics from any source")
}
