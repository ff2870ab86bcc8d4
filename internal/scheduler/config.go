package scheduler

import (
	"fmt"
	"time"

	"shortreel/internal/topics"
)

// PublishPolicy controls when a scheduled run's video goes live.
type PublishPolicy string

const (
	// PublishImmediate publishes as soon as the upload finishes.
	PublishImmediate PublishPolicy = "immediate"
	// PublishEvening schedules the publish inside the evening window.
	PublishEvening PublishPolicy = "evening"
)

// SlotConfig is one logical run lane driven on every trigger.
type SlotConfig struct {
	Enabled        bool        `json:"enabled"`
	TopicMode      topics.Mode `json:"topic_mode"`
	PromptOverride string      `json:"prompt_override,omitempty"`
}

// Config is the scheduler configuration.
type Config struct {
	Enabled        bool          `json:"enabled"`
	GenerationTime string        `json:"generation_time"` // "HH:MM" local time
	PublishPolicy  PublishPolicy `json:"publish_policy"`
	EveningStart   string        `json:"evening_start,omitempty"` // "HH:MM"
	EveningEnd     string        `json:"evening_end,omitempty"`   // "HH:MM"
	Slots          []SlotConfig  `json:"slots"`
}

// DefaultConfig returns a disabled single-slot configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		GenerationTime: "06:00",
		PublishPolicy:  PublishImmediate,
		EveningStart:   "18:00",
		EveningEnd:     "21:00",
		Slots:          []SlotConfig{{Enabled: true, TopicMode: topics.ModeRandom}},
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if _, err := parseClock(c.GenerationTime); err != nil {
		return fmt.Errorf("scheduler config: generation_time: %w", err)
	}
	switch c.PublishPolicy {
	case PublishImmediate:
	case PublishEvening:
		start, err := parseClock(c.EveningStart)
		if err != nil {
			return fmt.Errorf("scheduler config: evening_start: %w", err)
		}
		end, err := parseClock(c.EveningEnd)
		if err != nil {
			return fmt.Errorf("scheduler config: evening_end: %w", err)
		}
		if !start.before(end) {
			return fmt.Errorf("scheduler config: evening window start %s is not before end %s", c.EveningStart, c.EveningEnd)
		}
	default:
		return fmt.Errorf("scheduler config: unknown publish_policy %q", c.PublishPolicy)
	}
	for i, slot := range c.Slots {
		if slot.Enabled && !topics.KnownMode(slot.TopicMode) {
			return fmt.Errorf("scheduler config: slot %d: unknown topic_mode %q", i, slot.TopicMode)
		}
	}
	return nil
}

// EnabledSlots returns the indices of enabled slots.
func (c *Config) EnabledSlots() []int {
	var out []int
	for i, slot := range c.Slots {
		if slot.Enabled {
			out = append(out, i)
		}
	}
	return out
}

// clock is a time of day.
type clock struct {
	hour, minute int
}

func (c clock) before(o clock) bool {
	return c.hour < o.hour || (c.hour == o.hour && c.minute < o.minute)
}

// on places the clock time on the same day as t, in t's location.
func (c clock) on(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.hour, c.minute, 0, 0, t.Location())
}

func parseClock(s string) (clock, error) {
	var c clock
	if _, err := fmt.Sscanf(s, "%d:%d", &c.hour, &c.minute); err != nil {
		return clock{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	if c.hour < 0 || c.hour > 23 || c.minute < 0 || c.minute > 59 {
		return clock{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return c, nil
}
