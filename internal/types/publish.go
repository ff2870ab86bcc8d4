package types

import "time"

// Publish status values for a publish record.
const (
	PublishStatusScheduled = "scheduled"
	PublishStatusPublic    = "public"
)

// PublishRecord is the publish-record slot payload: where the video went
// and when it goes (or went) live.
type PublishRecord struct {
	Platform    string     `json:"platform"` // currently always "youtube"
	VideoID     string     `json:"video_id"`
	URL         string     `json:"url,omitempty"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
}

// PublishMetadata is the platform-facing description of an upload.
type PublishMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// PublishStat is one historical publish used for topic scoring: what went
// out and when, so similar candidates can be penalized while the publish is
// recent.
type PublishStat struct {
	Topic       string    `json:"topic"`
	VideoID     string    `json:"video_id"`
	PublishedAt time.Time `json:"published_at"`
}
