package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortreel/internal/llm"
	"shortreel/internal/types"
)

type stubClient struct {
	response string
	err      error
	prompt   string
}

func (c *stubClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *stubClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	c.prompt = prompt
	return c.response, c.err
}

func (c *stubClient) GetModel(tier llm.ModelTier) string { return "stub-model" }
func (c *stubClient) Close() error                       { return nil }

func TestGenerateDialogue(t *testing.T) {
	client := &stubClient{response: `{
		"title": "Tidal power in 60 seconds",
		"description": "the ocean as a battery",
		"tags": ["energy"],
		"lines": [
			{"speaker": "host", "text": "What if the tide paid your power bill?", "emotion": "curious"},
			{"speaker": "guest", "text": "In Scotland, it already does.", "emotion": "excited"}
		]
	}`}

	d, err := New(client).GenerateDialogue(context.Background(), &types.Seed{
		Topic:  "tidal energy",
		Source: "news.example.com",
		Prompt: "mention Scotland",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tidal power in 60 seconds", d.Title)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, 0, d.Lines[0].Index)
	assert.Equal(t, 1, d.Lines[1].Index)

	assert.Contains(t, client.prompt, "tidal energy")
	assert.Contains(t, client.prompt, "mention Scotland")
}

func TestGenerateDialogue_SchemaRejection(t *testing.T) {
	client := &stubClient{response: `{"title": "no lines here", "lines": []}`}
	_, err := New(client).GenerateDialogue(context.Background(), &types.Seed{Topic: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dialogue")
}

func TestGenerateDialogue_ClientError(t *testing.T) {
	client := &stubClient{err: errors.New("quota exceeded")}
	_, err := New(client).GenerateDialogue(context.Background(), &types.Seed{Topic: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
