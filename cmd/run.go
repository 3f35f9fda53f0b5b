package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/config"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/pipeline"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect today's activity and write the reports",
	Args:  cobra.NoArgs,
	RunE:  runDigest,
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagDate, "date", "", "run date as YYYY-MM-DD (default: today, UTC)")
	c.Flags().StringVar(&flagOut, "out", "", "output directory for daily reports (overrides config)")
}

// loadConfig reads .env and the config file, applying the --out override.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagOut != "" {
		cfg.OutputDir = flagOut
	}
	return cfg, nil
}

// runDate returns the --date value or today's UTC date.
func runDate(flag string, now time.Time) (string, error) {
	if flag == "" {
		return now.UTC().Format(layout.DateLayout), nil
	}
	if _, err := time.Parse(layout.DateLayout, flag); err != nil {
		return "", fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", flag)
	}
	return flag, nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Stderr, flagVerbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	day, err := runDate(flagDate, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner, closeFn, err := pipeline.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	rep, err := runner.Run(ctx, day)
	// Collection failures are already part of the reports
	fmt.Fprintln(cmd.OutOrStdout(), tui.RunSummary(rep))
	if err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}
	return nil
}
