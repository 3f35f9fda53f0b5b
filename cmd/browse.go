package cmd

import (
	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/pipeline"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse generated reports in the terminal",
	Long:  "Open the report browser: dates on the left, the selected day's documents on the right.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := pipeline.RenderOptions(cfg)
		return tui.Run(tui.Options{
			Layout: layout.Layout{Root: cfg.OutputDir},
			Links: map[model.Category]string{
				model.Research: opts.ResearchSource.URL,
				model.Docs:     opts.DocsSource.URL,
				model.GitHub:   opts.GitHubSource.URL,
			},
		})
	},
}

func init() {
	browseCmd.Flags().StringVar(&flagOut, "out", "", "output directory holding daily reports (overrides config)")
}
