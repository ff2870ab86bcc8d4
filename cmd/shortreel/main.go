// Package main is the entry point for the shortreel CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shortreel",
	Short: "Automated short-form video generation",
	Long: `shortreel turns a seed topic into a published short-form video:
dialogue generation, speech synthesis, per-line images, video rendering
and a YouTube upload, with every step individually re-runnable.`,
}

func main() {
	// Load .env file if it exists (ignore errors, env vars take precedence)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
