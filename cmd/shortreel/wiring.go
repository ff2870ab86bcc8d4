package main

import (
	"context"
	"fmt"

	"shortreel/internal/config"
	"shortreel/internal/llm"
	"shortreel/internal/pipeline"
	"shortreel/internal/providers/gemini"
	"shortreel/internal/providers/media"
	"shortreel/internal/providers/youtube"
	"shortreel/internal/runs"
	"shortreel/internal/scheduler"
	"shortreel/internal/store"
	"shortreel/internal/tasks"
	"shortreel/internal/topics"
	"shortreel/internal/types"
)

// defaultDataDir is used when neither database_url nor data_dir is configured.
const defaultDataDir = "data"

// app holds the wired application graph shared by the serve, run and
// schedule commands.
type app struct {
	cfg      config.Config
	repo     *runs.Repository
	service  *pipeline.Service
	selector *topics.Selector
	cleanup  func()
}

// loadConfig loads an optional config file, overlays the environment and
// validates the result.
func loadConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg.FromEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildStore picks the persistence backend: Postgres when database_url is
// set, a local directory otherwise.
func buildStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return pg, pg.Close, nil
	}

	dir := cfg.DataDir
	if dir == "" {
		dir = defaultDataDir
	}
	fs, err := store.NewFS(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open data directory %s: %w", dir, err)
	}
	return fs, func() {}, nil
}

// buildApp wires the store, the repository, the task engine, the external
// collaborators and the pipeline service.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or api_key config is required")
	}
	if cfg.MediaBaseURL == "" {
		return nil, fmt.Errorf("MEDIA_BASE_URL environment variable or media_base_url config is required")
	}

	backing, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	publisher, err := youtube.New(ctx)
	if err != nil {
		llmClient.Close()
		closeStore()
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	mediaClient := media.New(cfg.MediaBaseURL)

	repo := runs.NewRepository(backing)
	engine := tasks.NewEngine()
	service := pipeline.NewService(repo, engine, pipeline.Collaborators{
		Dialogue:  gemini.New(llmClient),
		Speech:    mediaClient,
		Images:    mediaClient,
		Video:     mediaClient,
		Publisher: publisher,
	})

	return &app{
		cfg:      cfg,
		repo:     repo,
		service:  service,
		selector: buildSelector(cfg, repo),
		cleanup: func() {
			llmClient.Close()
			closeStore()
		},
	}, nil
}

// buildSelector builds the topic selector over the configured trend pages.
// Without topic URLs a small static fallback keeps the scheduler usable.
func buildSelector(cfg config.Config, repo *runs.Repository) *topics.Selector {
	var source topics.Source
	if len(cfg.TopicURLs) > 0 {
		source = topics.NewWebSource(cfg.TopicURLs, cfg.UseBrowser, cfg.Verbose)
	} else {
		source = &topics.StaticSource{Topics: fallbackTopics()}
	}
	return topics.NewSelector(source, repo)
}

func fallbackTopics() []types.Topic {
	return []types.Topic{
		{Title: "Why octopuses have nine brains", Keywords: []string{"octopus", "biology"}},
		{Title: "The shortest war in history lasted 38 minutes", Keywords: []string{"history", "war"}},
		{Title: "How GPS satellites correct for relativity", Keywords: []string{"gps", "physics"}},
		{Title: "The mold that designs Tokyo's rail network", Keywords: []string{"slime mold", "networks"}},
	}
}

// buildScheduler wires a scheduler when one is configured; nil otherwise.
func (a *app) buildScheduler() *scheduler.Scheduler {
	if a.cfg.Scheduler == nil {
		return nil
	}
	return scheduler.New(*a.cfg.Scheduler, a.service, a.selector)
}
