// Package media is the REST client for the speech, image and render sidecar
// services. Each call is opaque: it either returns a finished artifact or an
// error message, which the task engine surfaces verbatim.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shortreel/internal/types"
)

// DefaultTimeout bounds a single generation call. Rendering is the slow
// path, so this is generous.
const DefaultTimeout = 10 * time.Minute

// Client talks to one media sidecar instance. It implements the pipeline's
// SpeechSynthesizer, ImageGenerator and VideoRenderer.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the sidecar at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// GenerateAudio synthesizes speech for the whole dialogue and returns the
// audio reference plus per-line timing.
func (c *Client) GenerateAudio(ctx context.Context, dialogue *types.Dialogue) (*types.AudioArtifact, error) {
	var audio types.AudioArtifact
	if err := c.post(ctx, "/tts", map[string]any{"lines": dialogue.Lines}, &audio); err != nil {
		return nil, err
	}
	return &audio, nil
}

// GenerateImages produces one image per dialogue line. Entries can come back
// individually errored without failing the call.
func (c *Client) GenerateImages(ctx context.Context, dialogue *types.Dialogue) (*types.ImageSet, error) {
	var set types.ImageSet
	if err := c.post(ctx, "/images", map[string]any{"lines": dialogue.Lines}, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// GenerateImage regenerates a single image entry.
func (c *Client) GenerateImage(ctx context.Context, dialogue *types.Dialogue, index int) (*types.ImageEntry, error) {
	if index < 0 || index >= len(dialogue.Lines) {
		return nil, fmt.Errorf("image index %d out of range", index)
	}
	var entry types.ImageEntry
	body := map[string]any{"index": index, "line": dialogue.Lines[index]}
	if err := c.post(ctx, "/image", body, &entry); err != nil {
		return nil, err
	}
	entry.Index = index
	return &entry, nil
}

// RenderVideo composes the audio and image set into the final video.
func (c *Client) RenderVideo(ctx context.Context, audio *types.AudioArtifact, images *types.ImageSet) (*types.VideoArtifact, error) {
	var video types.VideoArtifact
	body := map[string]any{"audio": audio, "images": images}
	if err := c.post(ctx, "/render", body, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// sidecarError is the error envelope the sidecar returns on failure.
type sidecarError struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("media service %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope sidecarError
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("%s", envelope.Error)
		}
		return fmt.Errorf("media service %s returned HTTP %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}
