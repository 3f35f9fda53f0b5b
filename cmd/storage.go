package cmd

import (
	"fmt"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/config"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/ledger"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/spf13/cobra"
)

var (
	flagPruneOlderThan string
	flagHistoryLimit   int
	flagHistoryItems   string
)

func openLedger() (*config.Config, *ledger.Ledger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger: %w", err)
	}
	return cfg, db, nil
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old runs and items from the run ledger",
	Long: `Delete ledger rows older than the retention period and reclaim disk space.

Uses the retention value from config (default: 90d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openLedger()
		if err != nil {
			return err
		}
		defer db.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseSince(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d row(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openLedger()
		if err != nil {
			return err
		}
		defer db.Close()

		dbPath := cfg.LedgerPath()
		s, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Ledger: %s\n", dbPath)
		fmt.Fprintf(out, "Runs: %d\n", s.Runs)
		fmt.Fprintf(out, "Items: %d\n", s.Items)
		fmt.Fprintf(out, "Size: %s\n", formatBytes(s.Size))

		schema, err := db.Meta("schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		fmt.Fprintf(out, "Schema: v%s\n", schema)

		last, ok, err := db.LastRun()
		if err != nil {
			return fmt.Errorf("reading last run: %w", err)
		}
		if ok {
			fmt.Fprintf(out, "Last run: %s (%s)\n", last.Date, last.StartedAt.UTC().Format(time.RFC3339))
		}
		if id, err := db.Meta("last_run"); err == nil && id != "" {
			fmt.Fprintf(out, "Last run ID: %s\n", id)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs, or the items recorded for one category",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openLedger()
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()
		if flagHistoryItems != "" {
			c := model.Category(flagHistoryItems)
			if !validCategory(c) {
				return fmt.Errorf("unknown category %q (valid: research, docs, github)", flagHistoryItems)
			}
			items, err := db.Items(string(c), flagHistoryLimit)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(out, "%s  %s\n    %s\n", it.FirstSeen.UTC().Format("2006-01-02"), it.Title, it.URL)
			}
			return nil
		}

		runs, err := db.Runs(flagHistoryLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  research=%d docs=%d github=%d errors=%d  %s\n",
				r.Date, r.Research, r.Docs, r.GitHub, r.Errors, r.ID)
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "number of rows to show")
	historyCmd.Flags().StringVar(&flagHistoryItems, "items", "", "list recorded items of a category instead of runs")
}

func validCategory(c model.Category) bool {
	for _, known := range model.Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func parseSince(s string) (time.Duration, error) {
	return config.ParseDays(s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
