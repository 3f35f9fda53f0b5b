package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/score"
)

const day = "2025-06-10"

func testRenderer(now time.Time) *Renderer {
	r := New(Options{
		ResearchLimit:  10,
		DocsLimit:      10,
		GitHubLimit:    15,
		ResearchSource: Link{Label: "anthropic.com/research", URL: "https://www.anthropic.com/research"},
		DocsSource:     Link{Label: "docs.anthropic.com", URL: "https://docs.anthropic.com"},
		GitHubSource:   Link{Label: "github.com/anthropics", URL: "https://github.com/anthropics"},
	}, score.Score)
	r.Now = func() time.Time { return now }
	return r
}

func papers(n int) model.Collection[model.ContentItem] {
	var items []model.ContentItem
	for i := 0; i < n; i++ {
		items = append(items, model.ContentItem{
			Title:       fmt.Sprintf("Paper %d", i),
			URL:         fmt.Sprintf("https://www.anthropic.com/research/paper-%d", i),
			Description: "100% interpretable",
			Date:        "Jun 1, 2025",
		})
	}
	return model.Collection[model.ContentItem]{Items: items}
}

func TestResearchRender(t *testing.T) {
	out := testRenderer(time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)).Research(day, papers(12))

	for _, want := range []string{
		"# Research - 2025-06-10\n",
		"**Generated**: 2025-06-10 09:30 UTC",
		"## Papers found: 12",
		"### [Paper 0](https://www.anthropic.com/research/paper-0)",
		"**Date**: Jun 1, 2025",
		"100% interpretable",
		"**Link**: [https://www.anthropic.com/research/paper-9](https://www.anthropic.com/research/paper-9)",
		"*Source*: [anthropic.com/research](https://www.anthropic.com/research)",
		"*Generated automatically*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "paper-10") {
		t.Error("expected only the first 10 papers")
	}
}

func TestResearchOmitsAbsentFields(t *testing.T) {
	c := model.Collection[model.ContentItem]{Items: []model.ContentItem{{Title: "Bare item"}}}
	out := testRenderer(time.Now()).Research(day, c)
	if !strings.Contains(out, "### Bare item\n") {
		t.Error("expected plain heading without link")
	}
	for _, absent := range []string{"**Date**", "**Link**"} {
		if strings.Contains(out, absent) {
			t.Errorf("expected %q to be omitted", absent)
		}
	}
}

func TestFallbackSentences(t *testing.T) {
	r := testRenderer(time.Now())
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"research", r.Research(day, model.Collection[model.ContentItem]{}), "No new research papers found."},
		{"docs", r.Docs(day, model.Collection[model.ContentItem]{}), "No documentation updates found."},
		{"github", r.GitHub(day, model.Collection[model.RepoActivity]{}), "No recent repository activity found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.out, tt.want) {
				t.Errorf("expected %q in:\n%s", tt.want, tt.out)
			}
		})
	}
}

func TestErrorRecordRendered(t *testing.T) {
	c := model.Fail[model.ContentItem]("Could not retrieve docs", "Visit https://docs.anthropic.com manually")
	out := testRenderer(time.Now()).Docs(day, c)
	if !strings.Contains(out, "⚠️ **Error**: Could not retrieve docs") {
		t.Errorf("missing error line:\n%s", out)
	}
	if !strings.Contains(out, "**Suggestion**: Visit https://docs.anthropic.com manually") {
		t.Errorf("missing suggestion:\n%s", out)
	}
	if strings.Contains(out, "No documentation updates found.") {
		t.Error("error output should not include the empty fallback")
	}
}

func TestGitHubRender(t *testing.T) {
	repo := model.RepoActivity{
		Name:        "anthropic-sdk-python",
		URL:         "https://github.com/anthropics/anthropic-sdk-python",
		Description: "Python SDK",
		Stars:       20000,
		Language:    "Python",
		Commits: []model.CommitSummary{
			{Message: "feat: " + strings.Repeat("a", 100), URL: "https://github.com/c/1", Author: "ada"},
			{Message: "fix: thing", URL: "https://github.com/c/2"},
		},
		Releases: []model.ReleaseSummary{
			{Tag: "v1.0.0", Title: "One", URL: "https://github.com/r/1", Body: "line one\nline two"},
		},
	}
	out := testRenderer(time.Now()).GitHub(day, model.Collection[model.RepoActivity]{Items: []model.RepoActivity{repo}})

	for _, want := range []string{
		"## Repositories with recent activity: 1",
		"### `anthropic-sdk-python`",
		"*Python SDK*",
		"⭐ 20000 stars | 📝 Python",
		"**Commits (2):**",
		"- `ada`: [feat: " + strings.Repeat("a", 74) + "...](https://github.com/c/1)",
		"- `Unknown`: [fix: thing](https://github.com/c/2)",
		"**Releases (1):**",
		"- [v1.0.0](https://github.com/r/1) - One",
		"  > line one line two\n",
		"**Importance**: ⭐⭐⭐⭐⭐ (5/5)",
		"*Why: popular repository, new release available, possible major version, new features, popular language*",
		"[View on GitHub →](https://github.com/anthropics/anthropic-sdk-python)",
		"*Source*: [github.com/anthropics](https://github.com/anthropics)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGitHubUsesInjectedScorer(t *testing.T) {
	r := testRenderer(time.Now())
	r.Score = func(model.RepoActivity) model.ScoreResult {
		return model.ScoreResult{Score: 2}
	}
	repo := model.RepoActivity{Name: "x", Commits: []model.CommitSummary{{Message: "m"}}}
	out := r.GitHub(day, model.Collection[model.RepoActivity]{Items: []model.RepoActivity{repo}})
	if !strings.Contains(out, "**Importance**: ⭐⭐ (2/5)\n\n") {
		t.Errorf("expected injected score without reasons:\n%s", out)
	}
}

func TestSummaryCounts(t *testing.T) {
	r := testRenderer(time.Now())
	out := r.Summary(day,
		papers(3),
		model.Fail[model.ContentItem]("down", ""),
		model.Collection[model.RepoActivity]{Items: make([]model.RepoActivity, 4)},
	)
	for _, want := range []string{
		"# Daily Summary - 2025-06-10",
		"[3 papers](./research/2025-06-10.md)",
		"[0 updates](./docs/2025-06-10.md)",
		"[4 active repos](./github/2025-06-10.md)",
		"## 🔗 Quick Links",
		"- [docs.anthropic.com](https://docs.anthropic.com)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSummaryUnlinksMissingDocuments(t *testing.T) {
	r := testRenderer(time.Now())
	out := r.Summary(day, papers(1), papers(2), model.Collection[model.RepoActivity]{}, model.Research)
	if !strings.Contains(out, "- **🔬 Research**: 1 papers\n") {
		t.Errorf("research count should not link a missing document:\n%s", out)
	}
	if strings.Contains(out, "./research/2025-06-10.md") {
		t.Error("summary links the skipped research document")
	}
	if !strings.Contains(out, "[2 updates](./docs/2025-06-10.md)") {
		t.Error("docs link should remain")
	}
}

func TestRenderIdempotentExceptTimestamp(t *testing.T) {
	c := papers(3)
	a := testRenderer(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)).Research(day, c)
	b := testRenderer(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)).Research(day, c)
	if a != b {
		t.Fatal("same input and clock should render identical output")
	}

	later := testRenderer(time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)).Research(day, c)
	strip := func(s string) string {
		var keep []string
		for _, l := range strings.Split(s, "\n") {
			if !strings.HasPrefix(l, "**Generated**:") {
				keep = append(keep, l)
			}
		}
		return strings.Join(keep, "\n")
	}
	if strip(a) != strip(later) {
		t.Error("outputs should differ only in the generation timestamp")
	}
}

func TestTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	out := testRenderer(time.Date(2025, 6, 10, 14, 0, 0, 0, loc)).Docs(day, model.Collection[model.ContentItem]{})
	if !strings.Contains(out, "**Generated**: 2025-06-10 12:00 UTC") {
		t.Errorf("expected UTC timestamp:\n%s", out)
	}
}
