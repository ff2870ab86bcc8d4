// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"shortreel/internal/scheduler"
)

// Config is the application configuration, loadable from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags. Secrets (API keys, database URL) usually come from the
// environment instead.
type Config struct {
	// Server
	Port int `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`

	// Storage: a Postgres URL, or a local data directory when unset.
	DatabaseURL string `json:"database_url,omitempty"`
	DataDir     string `json:"data_dir,omitempty"`

	// Collaborators
	APIKey       string `json:"api_key,omitempty"`                                 // Gemini API key
	MediaBaseURL string `json:"media_base_url,omitempty" validate:"omitempty,url"` // TTS/image/render sidecar

	// Topic selection
	TopicURLs  []string `json:"topic_urls,omitempty" validate:"dive,url"` // trend pages to scrape
	UseBrowser bool     `json:"use_browser,omitempty"`                    // headless browser fallback for SPA pages

	// Behavior
	Verbose bool `json:"verbose,omitempty"`

	Scheduler *scheduler.Config `json:"scheduler,omitempty"`
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.DatabaseURL != "" && c.DataDir != "" {
		return fmt.Errorf("config error: 'database_url' and 'data_dir' are mutually exclusive")
	}

	if c.Scheduler != nil {
		if err := c.Scheduler.Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Config file values act as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.MediaBaseURL == "" {
		result.MediaBaseURL = defaults.MediaBaseURL
	}
	if len(result.TopicURLs) == 0 {
		result.TopicURLs = defaults.TopicURLs
	}
	if result.Scheduler == nil {
		result.Scheduler = defaults.Scheduler
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// FromEnv overlays environment variables onto the config: GEMINI_API_KEY,
// DATABASE_URL, MEDIA_BASE_URL. Environment wins over the file.
func (c *Config) FromEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("MEDIA_BASE_URL"); v != "" {
		c.MediaBaseURL = v
	}
}
