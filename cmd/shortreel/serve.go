package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"shortreel/internal/server"
)

var (
	serveConfigPath string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the run workflow: create runs, submit
generation tasks, poll their status, drop artifacts and trigger the
scheduler. When a scheduler is configured its daily loop runs alongside
the server.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = servePort
	}

	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.cleanup()

	sched := application.buildScheduler()
	if sched != nil {
		go func() {
			if err := sched.Start(ctx); err != nil {
				log.Printf("scheduler stopped: %v", err)
			}
		}()
	}

	srv := server.New(server.Config{Port: cfg.Port}, application.service, sched)
	return srv.Start()
}
