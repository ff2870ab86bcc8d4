// Package youtube uploads rendered videos to YouTube and can retract them.
package youtube

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"shortreel/internal/types"
)

// shortsCategoryID is YouTube's "People & Blogs" category.
const shortsCategoryID = "22"

// Publisher implements the pipeline's Publisher over the YouTube Data API.
type Publisher struct {
	service *youtube.Service
}

// New creates a publisher. Credentials come in through standard client
// options (OAuth token source or credentials file).
func New(ctx context.Context, opts ...option.ClientOption) (*Publisher, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &Publisher{service: service}, nil
}

// Publish uploads the video file. A nil publishAt publishes immediately as
// public; otherwise the video is created private with a scheduled publish
// time, which YouTube flips to public on its own.
func (p *Publisher) Publish(ctx context.Context, video *types.VideoArtifact, meta types.PublishMetadata, publishAt *time.Time) (*types.PublishRecord, error) {
	file, err := os.Open(video.VideoRef)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file %s: %w", video.VideoRef, err)
	}
	defer func() { _ = file.Close() }()

	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  shortsCategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}
	if publishAt != nil {
		upload.Status.PrivacyStatus = "private"
		upload.Status.PublishAt = publishAt.UTC().Format(time.RFC3339)
	}

	call := p.service.Videos.Insert([]string{"snippet", "status"}, upload)
	inserted, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube upload failed: %w", err)
	}

	record := &types.PublishRecord{
		Platform:    "youtube",
		VideoID:     inserted.Id,
		URL:         "https://youtu.be/" + inserted.Id,
		Status:      types.PublishStatusPublic,
		PublishedAt: time.Now().UTC(),
	}
	if publishAt != nil {
		record.Status = types.PublishStatusScheduled
		at := publishAt.UTC()
		record.ScheduledAt = &at
	}
	return record, nil
}

// Retract deletes the uploaded video. The caller clears the publish record
// only after this succeeds.
func (p *Publisher) Retract(ctx context.Context, record *types.PublishRecord) error {
	if record.VideoID == "" {
		return fmt.Errorf("publish record has no video id")
	}
	if err := p.service.Videos.Delete(record.VideoID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("youtube delete failed for %s: %w", record.VideoID, err)
	}
	return nil
}
