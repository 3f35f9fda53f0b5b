package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/collect"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/config"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/detect"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/fetch"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/index"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/ledger"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/publish"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/render"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/score"
)

// Build assembles a Runner from configuration. The returned close function
// releases the ledger when one was opened. Ledger and publisher setup
// failures are logged and the run continues without them.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Runner, func() error, error) {
	fetcher := fetch.NewCollyFetcher(cfg.UserAgent, cfg.TimeoutDuration())

	gh, err := collect.NewGitHubCollector(collect.GitHubOptions{
		Org:         cfg.GitHub.Org,
		Token:       cfg.GitHubToken(),
		BaseURL:     cfg.GitHub.BaseURL,
		Timeout:     cfg.TimeoutDuration(),
		Lookback:    cfg.LookbackDuration(),
		MaxRepos:    cfg.GitHub.MaxRepos,
		MaxCommits:  cfg.GitHub.MaxCommits,
		MaxReleases: cfg.GitHub.MaxReleases,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating github collector: %w", err)
	}

	l := layout.Layout{Root: cfg.OutputDir}
	r := &Runner{
		Research:  collect.NewPageCollector(model.Research, cfg.Research, fetcher, log),
		Docs:      collect.NewPageCollector(model.Docs, cfg.Docs, fetcher, log),
		GitHub:    gh,
		Detector:  detect.New(l.CategoryDir(model.Research), cfg.Research.SeenPrefix, log),
		Renderer:  render.New(RenderOptions(cfg), score.Score),
		Layout:    l,
		IndexPath: cfg.Index.Path,
		Index:     index.New(cfg.Index.Path, cfg.Index.Marker, cfg.Index.Rows, l, log),
		Log:       log,
	}

	closer := func() error { return nil }
	if cfg.Ledger.Enabled {
		db, err := ledger.Open(cfg.LedgerPath())
		if err != nil {
			log.Warn("ledger unavailable, continuing without it", "path", cfg.LedgerPath(), "error", err)
		} else {
			r.Ledger = db
			closer = db.Close
		}
	}

	if cfg.PublishEnabled() {
		s3cfg := cfg.Publish.S3
		p, err := publish.NewS3(ctx, s3cfg.Bucket, s3cfg.Prefix, s3cfg.Region, log)
		if err != nil {
			log.Warn("publisher unavailable, continuing without it", "bucket", s3cfg.Bucket, "error", err)
		} else {
			r.Publisher = p
		}
	}

	return r, closer, nil
}

// RenderOptions derives render limits and static links from configuration.
func RenderOptions(cfg *config.Config) render.Options {
	return render.Options{
		ResearchLimit:  cfg.Research.RenderLimit,
		DocsLimit:      cfg.Docs.RenderLimit,
		GitHubLimit:    cfg.GitHub.RenderLimit,
		ResearchSource: sourceLink(cfg.Research),
		DocsSource:     sourceLink(cfg.Docs),
		GitHubSource: render.Link{
			Label: "github.com/" + cfg.GitHub.Org,
			URL:   "https://github.com/" + cfg.GitHub.Org,
		},
	}
}

// sourceLink points at the first enabled html source, falling back to any
// enabled source.
func sourceLink(p config.PageConfig) render.Link {
	sources := config.EnabledSources(p.Sources)
	for _, s := range sources {
		if s.Type == "html" {
			return render.Link{Label: p.Label, URL: s.URL}
		}
	}
	if len(sources) > 0 {
		return render.Link{Label: p.Label, URL: sources[0].URL}
	}
	return render.Link{Label: p.Label}
}
