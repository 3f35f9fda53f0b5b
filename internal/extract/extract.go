package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

// Ellipsis is appended to descriptions that were cut to the budget.
const Ellipsis = "..."

// Skip reasons reported in Outcome.Skip.
const (
	SkipNoLink      = "missing link"
	SkipIndexLink   = "index link"
	SkipDuplicate   = "duplicate link"
	SkipNoTitle     = "missing title"
	SkipShortTitle  = "title too short"
	SkipDenylisted  = "denylisted title"
	SkipInvalidLink = "invalid link"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reMonthDate  = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}\b`)
)

// Rules controls how candidate nodes become items.
type Rules struct {
	Source               string
	MinTitleLength       int
	SkipKeywords         []string
	DescriptionSelectors []string
	DescriptionBudget    int
}

// Outcome is the result of extracting one candidate node.
type Outcome struct {
	Item model.ContentItem
	Skip string
}

func (o Outcome) Accepted() bool {
	return o.Skip == ""
}

// Result holds every outcome for a page and the strategy that matched.
type Result struct {
	Strategy string
	Outcomes []Outcome
}

// Items returns the accepted items in document order.
func (r Result) Items() []model.ContentItem {
	var items []model.ContentItem
	for _, o := range r.Outcomes {
		if o.Accepted() {
			items = append(items, o.Item)
		}
	}
	return items
}

// Skipped counts outcomes per skip reason.
func (r Result) Skipped() map[string]int {
	counts := map[string]int{}
	for _, o := range r.Outcomes {
		if !o.Accepted() {
			counts[o.Skip]++
		}
	}
	return counts
}

type Extractor struct {
	Cascade Cascade
	Rules   Rules
}

// Extract parses body as HTML served from pageURL and returns an outcome per
// candidate node. A page where no strategy matches yields an empty Result.
func (e *Extractor) Extract(pageURL string, body []byte) (Result, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return Result{}, fmt.Errorf("parsing page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("parsing html: %w", err)
	}
	doc.Url = base

	nodes, strategy := e.Cascade.Run(doc)
	if nodes == nil {
		return Result{}, nil
	}

	res := Result{Strategy: strategy}
	seen := map[string]bool{}
	nodes.Each(func(_ int, node *goquery.Selection) {
		o := e.outcome(base, node)
		if o.Accepted() {
			if seen[o.Item.URL] {
				o = Outcome{Item: o.Item, Skip: SkipDuplicate}
			} else {
				seen[o.Item.URL] = true
			}
		}
		res.Outcomes = append(res.Outcomes, o)
	})
	return res, nil
}

func (e *Extractor) outcome(base *url.URL, node *goquery.Selection) Outcome {
	anchor := node
	if goquery.NodeName(node) != "a" {
		anchor = node.Find("a[href]").First()
	}
	href, _ := anchor.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return Outcome{Skip: SkipNoLink}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Outcome{Skip: SkipInvalidLink}
	}
	link := base.ResolveReference(ref)
	if link.Scheme != "http" && link.Scheme != "https" {
		return Outcome{Skip: SkipInvalidLink}
	}
	if isIndexLink(base, link) {
		return Outcome{Skip: SkipIndexLink}
	}

	container := node.Closest("article, div[data-testid]")
	if container.Length() == 0 {
		container = node
	}

	item := model.ContentItem{
		URL:    link.String(),
		Source: e.Rules.Source,
	}

	item.Title = Title(container, anchor)
	if item.Title == "" {
		return Outcome{Item: item, Skip: SkipNoTitle}
	}
	if len([]rune(item.Title)) < e.Rules.MinTitleLength {
		return Outcome{Item: item, Skip: SkipShortTitle}
	}
	if Denylisted(item.Title, e.Rules.SkipKeywords) {
		return Outcome{Item: item, Skip: SkipDenylisted}
	}

	item.Description = Truncate(e.description(container), e.Rules.DescriptionBudget)
	item.Date = Date(container)
	return Outcome{Item: item}
}

// isIndexLink reports whether link points back at the listing page itself.
func isIndexLink(base, link *url.URL) bool {
	if link.Host != base.Host {
		return false
	}
	return strings.TrimSuffix(link.Path, "/") == strings.TrimSuffix(base.Path, "/") && link.Fragment == ""
}

// Title applies the title cascade: a heading around or inside the item, then
// an attribute label, then the last non-empty line of the link text.
func Title(container, anchor *goquery.Selection) string {
	if h := anchor.Closest("h2, h3, h4"); h.Length() > 0 {
		if t := CleanText(h.Text()); t != "" {
			return t
		}
	}
	if h := container.Find("h3, h2, h4").First(); h.Length() > 0 {
		if t := CleanText(h.Text()); t != "" {
			return t
		}
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := anchor.Attr(attr); ok {
			if t := CleanText(v); t != "" {
				return t
			}
		}
	}
	return lastLine(anchor.Text())
}

// lastLine returns the last non-empty line of s; link text usually ends with the title.
func lastLine(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = CleanText(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// Denylisted reports whether title contains any keyword, case-insensitively.
func Denylisted(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (e *Extractor) description(container *goquery.Selection) string {
	for _, sel := range e.Rules.DescriptionSelectors {
		if d := CleanText(container.Find(sel).First().Text()); d != "" {
			return d
		}
	}
	return ""
}

// Date prefers a <time> element and falls back to a "Month D, YYYY" pattern in the text.
func Date(container *goquery.Selection) string {
	if t := container.Find("time").First(); t.Length() > 0 {
		if dt, ok := t.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		return CleanText(t.Text())
	}
	return reMonthDate.FindString(container.Text())
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// Truncate cuts s to budget runes and appends Ellipsis, only when s is longer than budget.
func Truncate(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + Ellipsis
}
