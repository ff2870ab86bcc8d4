package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("dialogue.json", "generate-dialogue")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "{{.Topic}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("dialogue.json", "no-such-key")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	got := Format("about {{.Topic}} from {{.Source}}", map[string]string{
		"Topic":  "tidal energy",
		"Source": "news.example.com",
	})
	assert.Equal(t, "about tidal energy from news.example.com", got)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("dialogue.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "generate-dialogue")
}
