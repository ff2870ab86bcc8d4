package topics

import (
	"strings"
	"time"

	"shortreel/internal/types"
)

// ScoredTopic pairs a candidate with its selection score.
type ScoredTopic struct {
	Topic types.Topic
	Score float64
}

// repeatWindow is how far back a published topic still counts against a
// similar candidate.
const repeatWindow = 30 * 24 * time.Hour

// ScoreTopicsByHistory scores candidates against past publishes. Every
// candidate starts at 1.0; overlap with a recently published topic is
// penalized so the channel does not repeat itself, with the penalty fading
// as the publish ages out of the window.
func ScoreTopicsByHistory(candidates []types.Topic, stats []types.PublishStat) []ScoredTopic {
	now := time.Now().UTC()

	out := make([]ScoredTopic, 0, len(candidates))
	for _, c := range candidates {
		score := 1.0
		words := tokenize(c.Title + " " + strings.Join(c.Keywords, " "))

		for _, stat := range stats {
			age := now.Sub(stat.PublishedAt)
			if age < 0 || age > repeatWindow {
				continue
			}
			overlap := tokenOverlap(words, tokenize(stat.Topic))
			if overlap == 0 {
				continue
			}
			recency := 1 - age.Seconds()/repeatWindow.Seconds()
			score -= overlap * recency
		}

		out = append(out, ScoredTopic{Topic: c, Score: score})
	}
	return out
}

// tokenize lowercases and splits text into words, dropping short stopword-ish
// tokens that would make everything overlap with everything.
func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if len(w) > 3 {
			words[w] = true
		}
	}
	return words
}

// tokenOverlap returns the fraction of a's tokens also present in b.
func tokenOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}
