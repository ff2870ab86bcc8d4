// Package llm wraps the Gemini API behind a small client interface with
// tiered model selection, so callers ask for a capability level instead of
// hardcoding model names.
package llm

// ModelTier represents the capability level requested for a generation call
type ModelTier string

const (
	// TierLite is for cheap auxiliary calls: tags, titles, short summaries
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: dialogue script generation
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long or nuanced scripts where the standard tier
	// produces flat dialogue
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the only provider currently wired.
const ProviderGemini Provider = "gemini"

// Config maps tiers to concrete models for one provider
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini model per tier
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, falling back through
// standard and lite when the tier has no mapping.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with one tier remapped.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)),
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
