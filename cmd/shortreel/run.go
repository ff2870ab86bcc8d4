package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/observability"
	"shortreel/internal/tasks"
	"shortreel/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and publish one video end-to-end",
	Long: `Create a run from a seed topic and drive it through the whole chain:
dialogue -> audio + images -> video -> upload. The command blocks until
the chain finishes and prints the publish record.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runGenerateCmd,
}

var (
	runConfigPath  string
	runTopic       string
	runSource      string
	runPrompt      string
	runPublishAt   string
	runAPIKey      string
	runMediaURL    string
	runDatabaseURL string
	runDataDir     string
	runVerbose     bool
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCmd.Flags().StringVarP(&runTopic, "topic", "t", "", "Seed topic for the video (required)")
	runCmd.Flags().StringVar(&runSource, "source", "", "URL the topic came from (optional)")
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "Extra prompt guidance for dialogue generation (optional)")
	runCmd.Flags().StringVar(&runPublishAt, "publish-at", "", "Schedule the YouTube publish time (RFC3339, default immediate)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCmd.Flags().StringVar(&runMediaURL, "media-url", "", "Media sidecar base URL (optional, defaults to MEDIA_BASE_URL env var)")

	// Persistence backend
	runCmd.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Local artifact directory (mutually exclusive with --db-url)")

	rootCmd.AddCommand(runCmd)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}

	// Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("media-url") {
		cfg.MediaBaseURL = runMediaURL
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = runDataDir
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	if runTopic == "" {
		return fmt.Errorf("--topic is required")
	}

	var publishAt *time.Time
	if runPublishAt != "" {
		at, err := time.Parse(time.RFC3339, runPublishAt)
		if err != nil {
			return fmt.Errorf("invalid --publish-at, want RFC3339: %w", err)
		}
		publishAt = &at
	}

	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.cleanup()

	printer := observability.NewPrinter(os.Stdout)

	run, err := application.service.CreateRun(ctx, types.Seed{
		Topic:  runTopic,
		Source: runSource,
		Prompt: runPrompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	fmt.Printf("Created run %s\n", run.ID)

	taskID, err := application.service.SubmitFastUpload(ctx, run.ID, publishAt)
	if err != nil {
		return err
	}

	rec, err := application.service.Await(ctx, taskID)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printer.PrintTask(rec)
		if d, err := application.repo.Dialogue(ctx, run.ID); err == nil {
			printer.PrintDialogue(d)
		}
	}

	if rec.Status == tasks.StatusError {
		return fmt.Errorf("run %s failed at %s: %s", run.ID, rec.Type, rec.Error)
	}

	record, err := application.repo.PublishRecord(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("run finished but publish record is missing: %w", err)
	}
	printer.PrintPublishRecord(record)
	return nil
}
