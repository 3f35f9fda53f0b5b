// Package render turns collections into the Markdown documents of a daily report.
package render

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/extract"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

// TimestampLayout is the generation timestamp format shown in every header.
const TimestampLayout = "2006-01-02 15:04 UTC"

const (
	commitsPerRepo   = 5
	releasesPerRepo  = 2
	commitDisplayCap = 80
	releaseBodyCap   = 150
	generatedMarker  = "*Generated automatically*"
)

// Link is a static reference shown in closing sections and quick links.
type Link struct {
	Label string
	URL   string
}

func (l Link) markdown() string {
	return fmt.Sprintf("[%s](%s)", l.Label, l.URL)
}

type Options struct {
	ResearchLimit  int
	DocsLimit      int
	GitHubLimit    int
	ResearchSource Link
	DocsSource     Link
	GitHubSource   Link
}

// Renderer is pure apart from the clock; Score is passed in rather than
// looked up so tests can substitute it.
type Renderer struct {
	Now   func() time.Time
	Score func(model.RepoActivity) model.ScoreResult
	opts  Options
}

func New(opts Options, score func(model.RepoActivity) model.ScoreResult) *Renderer {
	return &Renderer{Now: time.Now, Score: score, opts: opts}
}

type builder struct {
	strings.Builder
}

func (b *builder) line(format string, args ...any) {
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

// raw writes s verbatim; scraped text may contain '%'.
func (b *builder) raw(s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}

func (b *builder) blank() {
	b.WriteByte('\n')
}

func (r *Renderer) header(b *builder, title, date string) {
	b.line("# %s - %s", title, date)
	b.blank()
	b.line("**Generated**: %s", r.Now().UTC().Format(TimestampLayout))
	b.blank()
	b.line("---")
	b.blank()
}

func footer(b *builder, source Link) {
	b.line("---")
	b.blank()
	b.line("*Source*: %s", source.markdown())
	b.blank()
	b.raw(generatedMarker)
}

func writeError(b *builder, e *model.ErrorRecord) {
	b.line("⚠️ **Error**: %s", e.Message)
	b.blank()
	if e.Suggestion != "" {
		b.line("**Suggestion**: %s", e.Suggestion)
		b.blank()
	}
}

// Research renders the research report for date.
func (r *Renderer) Research(date string, c model.Collection[model.ContentItem]) string {
	var b builder
	r.header(&b, "Research", date)
	r.contentBody(&b, c, "Papers found", "No new research papers found.", r.opts.ResearchLimit)
	footer(&b, r.opts.ResearchSource)
	return b.String()
}

// Docs renders the documentation updates report for date.
func (r *Renderer) Docs(date string, c model.Collection[model.ContentItem]) string {
	var b builder
	r.header(&b, "Docs", date)
	r.contentBody(&b, c, "Documentation updates", "No documentation updates found.", r.opts.DocsLimit)
	footer(&b, r.opts.DocsSource)
	return b.String()
}

func (r *Renderer) contentBody(b *builder, c model.Collection[model.ContentItem], heading, empty string, limit int) {
	switch {
	case c.Failed():
		writeError(b, c.Err)
		return
	case len(c.Items) == 0:
		b.raw(empty)
		b.blank()
		return
	}

	b.line("## %s: %d", heading, len(c.Items))
	b.blank()
	for _, item := range head(c.Items, limit) {
		if item.URL != "" {
			b.line("### [%s](%s)", item.Title, item.URL)
		} else {
			b.line("### %s", item.Title)
		}
		b.blank()
		if item.Date != "" {
			b.line("**Date**: %s", item.Date)
			b.blank()
		}
		if item.Description != "" {
			b.raw(item.Description)
			b.blank()
		}
		if item.URL != "" {
			b.line("**Link**: [%s](%s)", item.URL, item.URL)
			b.blank()
		}
		b.line("---")
		b.blank()
	}
}

// GitHub renders repository activity with an importance rating per repository.
func (r *Renderer) GitHub(date string, c model.Collection[model.RepoActivity]) string {
	var b builder
	r.header(&b, "GitHub", date)

	switch {
	case c.Failed():
		writeError(&b, c.Err)
	case len(c.Items) == 0:
		b.raw("No recent repository activity found.")
		b.blank()
	default:
		b.line("## Repositories with recent activity: %d", len(c.Items))
		b.blank()
		for _, repo := range head(c.Items, r.opts.GitHubLimit) {
			r.repo(&b, repo)
		}
	}

	footer(&b, r.opts.GitHubSource)
	return b.String()
}

func (r *Renderer) repo(b *builder, repo model.RepoActivity) {
	b.line("### `%s`", repo.Name)
	b.blank()
	if repo.Description != "" {
		b.line("*%s*", repo.Description)
		b.blank()
	}
	lang := repo.Language
	if lang == "" {
		lang = "Unknown"
	}
	b.line("⭐ %d stars | 📝 %s", repo.Stars, lang)
	b.blank()

	if len(repo.Commits) > 0 {
		b.line("**Commits (%d):**", len(repo.Commits))
		b.blank()
		for _, c := range head(repo.Commits, commitsPerRepo) {
			author := c.Author
			if author == "" {
				author = "Unknown"
			}
			b.line("- `%s`: [%s](%s)", author, extract.Truncate(c.Message, commitDisplayCap), c.URL)
		}
		b.blank()
	}

	if len(repo.Releases) > 0 {
		b.line("**Releases (%d):**", len(repo.Releases))
		b.blank()
		for _, rel := range head(repo.Releases, releasesPerRepo) {
			if rel.Title != "" {
				b.line("- [%s](%s) - %s", rel.Tag, rel.URL, rel.Title)
			} else {
				b.line("- [%s](%s)", rel.Tag, rel.URL)
			}
			if body := flatten(rel.Body); body != "" {
				b.line("  > %s", extract.Truncate(body, releaseBodyCap))
			}
		}
		b.blank()
	}

	if r.Score != nil {
		s := r.Score(repo)
		b.line("**Importance**: %s (%d/5)", strings.Repeat("⭐", s.Score), s.Score)
		if len(s.Reasons) > 0 {
			b.line("*Why: %s*", strings.Join(s.Reasons, ", "))
		}
		b.blank()
	}

	if repo.URL != "" {
		b.line("[View on GitHub →](%s)", repo.URL)
		b.blank()
	}
	b.line("---")
	b.blank()
}

// Summary renders the aggregate document: counts per category and links to
// the category documents of the same date. Failed collections count as zero.
// Categories listed in missing were not written, so their counts carry no link.
func (r *Renderer) Summary(date string, research, docs model.Collection[model.ContentItem], github model.Collection[model.RepoActivity], missing ...model.Category) string {
	var b builder
	b.line("# Daily Summary - %s", date)
	b.blank()
	b.line("**Generated**: %s", r.Now().UTC().Format(TimestampLayout))
	b.blank()
	b.line("---")
	b.blank()
	b.line("## 📊 Today's Stats")
	b.blank()
	stat := func(c model.Category, count int, noun string) string {
		text := fmt.Sprintf("%d %s", count, noun)
		if slices.Contains(missing, c) {
			return text
		}
		return fmt.Sprintf("[%s](./%s/%s.md)", text, c, date)
	}
	b.line("- **🔬 Research**: %s", stat(model.Research, research.Count(), "papers"))
	b.line("- **📚 Docs**: %s", stat(model.Docs, docs.Count(), "updates"))
	b.line("- **💻 GitHub**: %s", stat(model.GitHub, github.Count(), "active repos"))
	b.blank()
	b.line("---")
	b.blank()
	b.line("## 🔗 Quick Links")
	b.blank()
	for _, l := range []Link{r.opts.ResearchSource, r.opts.DocsSource, r.opts.GitHubSource} {
		if l.URL != "" {
			b.line("- %s", l.markdown())
		}
	}
	b.blank()
	b.line("---")
	b.blank()
	b.raw(generatedMarker)
	return b.String()
}

func head[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func flatten(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s))
}
