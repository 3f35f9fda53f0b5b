package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/config"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/extract"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/fetch"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/mmcdole/gofeed"
)

// ErrNoItems means every source was tried and none produced an item.
var ErrNoItems = errors.New("no items found in any source")

// PageCollector gathers content items for one category from an ordered list
// of sources. The first source that yields items wins.
type PageCollector struct {
	category  model.Category
	sources   []config.Source
	limit     int
	extractor *extract.Extractor
	fetcher   fetch.Fetcher
	feeds     *gofeed.Parser
	log       *slog.Logger
}

func NewPageCollector(category model.Category, cfg config.PageConfig, f fetch.Fetcher, log *slog.Logger) *PageCollector {
	return &PageCollector{
		category: category,
		sources:  config.EnabledSources(cfg.Sources),
		limit:    cfg.Limit,
		extractor: &extract.Extractor{
			Cascade: extract.BuildCascade(cfg.Selectors),
			Rules: extract.Rules{
				Source:               cfg.Label,
				MinTitleLength:       cfg.MinTitleLength,
				SkipKeywords:         cfg.SkipKeywords,
				DescriptionSelectors: cfg.DescriptionSelectors,
				DescriptionBudget:    cfg.DescriptionBudget,
			},
		},
		fetcher: f,
		feeds:   gofeed.NewParser(),
		log:     logging.Component(log, string(category)),
	}
}

// Collect never returns an error: a total failure becomes an ErrorRecord.
func (c *PageCollector) Collect(ctx context.Context) model.Collection[model.ContentItem] {
	var lastErr error
	for _, src := range c.sources {
		items, err := c.collectSource(ctx, src)
		if err != nil {
			c.log.Warn("source failed", "source", src.Name, "url", src.URL, "error", err)
			lastErr = err
			continue
		}
		if len(items) == 0 {
			c.log.Info("source yielded no items", "source", src.Name, "url", src.URL)
			continue
		}

		extract.SortByDate(items)
		if c.limit > 0 && len(items) > c.limit {
			items = items[:c.limit]
		}
		c.log.Info("collected", "source", src.Name, "items", len(items))
		return model.Collection[model.ContentItem]{Items: items}
	}

	err := ErrNoItems
	if lastErr != nil {
		err = fmt.Errorf("%w: %v", ErrNoItems, lastErr)
	}
	c.log.Error("collection failed", "error", err)
	return model.Fail[model.ContentItem](
		fmt.Sprintf("Could not retrieve %s: %v", c.category, err),
		c.suggestion(),
	)
}

func (c *PageCollector) suggestion() string {
	if len(c.sources) == 0 {
		return ""
	}
	return fmt.Sprintf("Visit %s manually", c.sources[0].URL)
}

func (c *PageCollector) collectSource(ctx context.Context, src config.Source) ([]model.ContentItem, error) {
	page, err := c.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	switch src.Type {
	case "rss", "atom":
		return c.feedItems(page.Body)
	default:
		res, err := c.extractor.Extract(page.URL, page.Body)
		if err != nil {
			return nil, err
		}
		if skipped := res.Skipped(); len(skipped) > 0 {
			c.log.Debug("skipped candidates", "source", src.Name, "strategy", res.Strategy, "reasons", skipped)
		}
		return res.Items(), nil
	}
}
