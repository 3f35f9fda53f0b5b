package collect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/extract"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

// feedItems turns an RSS or Atom body into content items using the same title
// rules as scraped pages.
func (c *PageCollector) feedItems(body []byte) ([]model.ContentItem, error) {
	feed, err := c.feeds.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	rules := c.extractor.Rules
	items := make([]model.ContentItem, 0, len(feed.Items))
	seen := map[string]bool{}
	for _, it := range feed.Items {
		link := strings.TrimSpace(it.Link)
		if !httpLink(link) || seen[link] {
			c.log.Debug("skipped feed entry", "title", it.Title, "link", link)
			continue
		}

		title := extract.CleanText(it.Title)
		if len([]rune(title)) < rules.MinTitleLength || extract.Denylisted(title, rules.SkipKeywords) {
			c.log.Debug("skipped feed entry", "title", title)
			continue
		}
		seen[link] = true

		desc := it.Description
		if desc == "" {
			desc = it.Content
		}

		date := it.Published
		if date == "" {
			date = it.Updated
		}

		items = append(items, model.ContentItem{
			Title:       title,
			Description: extract.Truncate(stripHTML(desc), rules.DescriptionBudget),
			URL:         link,
			Date:        date,
			Source:      rules.Source,
		})
	}
	return items, nil
}

func httpLink(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return extract.CleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return extract.CleanText(s)
	}
	return extract.CleanText(doc.Text())
}
