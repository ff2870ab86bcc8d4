// Package gemini generates dialogue scripts with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"shortreel/internal/llm"
	"shortreel/internal/prompts"
	"shortreel/internal/schemas"
	"shortreel/internal/types"
)

// Generator produces dialogue scripts from seed topics. Implements the
// pipeline's DialogueGenerator.
type Generator struct {
	client llm.Client
	tier   llm.ModelTier
}

// New creates a generator over an LLM client.
func New(client llm.Client) *Generator {
	return &Generator{client: client, tier: llm.TierStandard}
}

// NewWithTier creates a generator pinned to a specific model tier.
func NewWithTier(client llm.Client, tier llm.ModelTier) *Generator {
	return &Generator{client: client, tier: tier}
}

// GenerateDialogue asks the model for a script, validates the JSON against
// the dialogue schema and normalizes line indices.
func (g *Generator) GenerateDialogue(ctx context.Context, seed *types.Seed) (*types.Dialogue, error) {
	template, err := prompts.Get("dialogue.json", "generate-dialogue")
	if err != nil {
		return nil, err
	}

	extra := ""
	if seed.Prompt != "" {
		extra = "Additional instructions: " + seed.Prompt
	}
	prompt := prompts.Format(template, map[string]string{
		"Topic":  seed.Topic,
		"Source": seed.Source,
		"Extra":  extra,
	})

	raw, err := g.client.GenerateJSON(ctx, prompt, g.tier)
	if err != nil {
		return nil, fmt.Errorf("dialogue generation failed: %w", err)
	}

	if err := schemas.ValidateDialogue(raw); err != nil {
		return nil, fmt.Errorf("model returned invalid dialogue: %w", err)
	}

	var dialogue types.Dialogue
	if err := json.Unmarshal([]byte(raw), &dialogue); err != nil {
		return nil, fmt.Errorf("failed to parse dialogue JSON: %w", err)
	}
	for i := range dialogue.Lines {
		dialogue.Lines[i].Index = i
	}
	return &dialogue, nil
}
