package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/observability"
	"shortreel/internal/scheduler"
)

var (
	scheduleConfigPath string
	scheduleOnce       bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily generation scheduler",
	Long: `Run the scheduler as a daemon: at the configured generation time each
day it picks a topic per slot, creates a run and drives it through the
fast-upload chain. With --once it triggers a single cycle immediately
and exits when every slot has finished.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleConfigPath, "config", "", "Path to config.json file")
	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "Trigger one cycle now and exit")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(scheduleConfigPath)
	if err != nil {
		return err
	}
	if cfg.Scheduler == nil {
		return fmt.Errorf("no scheduler section in config; nothing to run")
	}

	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.cleanup()

	sched := application.buildScheduler()

	if scheduleOnce {
		return triggerOnce(sched)
	}
	return sched.Start(ctx)
}

// triggerOnce fires one cycle and polls until the scheduler returns to idle.
func triggerOnce(sched *scheduler.Scheduler) error {
	if err := sched.Trigger(); err != nil {
		return err
	}

	for {
		time.Sleep(500 * time.Millisecond)
		_, state, running := sched.Status()
		if !running {
			printer := observability.NewPrinter(os.Stdout)
			printer.PrintSchedulerState(state, false)
			if state.LastOutcome == scheduler.OutcomeError {
				return fmt.Errorf("scheduled generation failed: %v", state.SlotErrors)
			}
			return nil
		}
	}
}
