package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/config"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/detect"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/index"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/ledger"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/publish"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/render"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/score"
)

const (
	today  = "2025-06-10"
	prefix = "https://www.anthropic.com/research/"
)

type staticContent model.Collection[model.ContentItem]

func (s staticContent) Collect(context.Context) model.Collection[model.ContentItem] {
	return model.Collection[model.ContentItem](s)
}

type staticRepos model.Collection[model.RepoActivity]

func (s staticRepos) Collect(context.Context) model.Collection[model.RepoActivity] {
	return model.Collection[model.RepoActivity](s)
}

type failingIndex struct{ calls int }

func (f *failingIndex) Update() error {
	f.calls++
	return errors.New("readme locked")
}

type fakeLedger struct {
	runs  []ledger.Run
	items []ledger.Item
}

func (f *fakeLedger) RecordRun(r ledger.Run) (string, error) {
	f.runs = append(f.runs, r)
	return r.ID, nil
}

func (f *fakeLedger) UpsertItems(items []ledger.Item, _ time.Time) (int, error) {
	f.items = append(f.items, items...)
	return len(items), nil
}

type fakeUploader struct{ files []publish.File }

func (f *fakeUploader) Publish(_ context.Context, files []publish.File) (int, error) {
	f.files = append(f.files, files...)
	return len(files), nil
}

func newRunner(t *testing.T, research, docs model.Collection[model.ContentItem], repos model.Collection[model.RepoActivity]) *Runner {
	t.Helper()
	root := t.TempDir()
	l := layout.Layout{Root: filepath.Join(root, "daily")}
	log := logging.Discard()

	rend := render.New(render.Options{
		ResearchLimit:  10,
		DocsLimit:      10,
		GitHubLimit:    15,
		ResearchSource: render.Link{Label: "research", URL: "https://www.anthropic.com/research"},
		DocsSource:     render.Link{Label: "docs", URL: "https://docs.anthropic.com"},
		GitHubSource:   render.Link{Label: "github", URL: "https://github.com/anthropics"},
	}, score.Score)
	rend.Now = func() time.Time { return time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC) }

	readme := filepath.Join(root, "README.md")
	return &Runner{
		Research:  staticContent(research),
		Docs:      staticContent(docs),
		GitHub:    staticRepos(repos),
		Detector:  detect.New(l.CategoryDir(model.Research), prefix, log),
		Renderer:  rend,
		Layout:    l,
		IndexPath: readme,
		Index:     index.New(readme, "## 📅 History", 30, l, log),
		Log:       log,
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestRunEmptyCollectors(t *testing.T) {
	r := newRunner(t, model.Collection[model.ContentItem]{}, model.Collection[model.ContentItem]{}, model.Collection[model.RepoActivity]{})

	rep, err := r.Run(context.Background(), today)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Written) != 4 {
		t.Fatalf("expected 4 documents, got %v", rep.Written)
	}

	checks := map[string]string{
		r.Layout.CategoryPath(model.Research, today): "No new research papers found.",
		r.Layout.CategoryPath(model.Docs, today):     "No documentation updates found.",
		r.Layout.CategoryPath(model.GitHub, today):   "No recent repository activity found.",
		r.Layout.SummaryPath(today):                  "[0 papers](./research/2025-06-10.md)",
	}
	for path, want := range checks {
		if got := read(t, path); !strings.Contains(got, want) {
			t.Errorf("%s missing %q", path, want)
		}
	}

	summary := read(t, r.Layout.SummaryPath(today))
	for _, want := range []string{"[0 updates]", "[0 active repos]"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q", want)
		}
	}

	readme := read(t, r.IndexPath)
	if !strings.Contains(readme, "| 2025-06-10 | [Research](./daily/research/2025-06-10.md)") {
		t.Errorf("index not updated:\n%s", readme)
	}
}

func TestRunSkipsResearchWithoutNewItems(t *testing.T) {
	research := model.Collection[model.ContentItem]{Items: []model.ContentItem{{Title: "Known paper", URL: prefix + "known"}}}
	r := newRunner(t, research, model.Collection[model.ContentItem]{}, model.Collection[model.RepoActivity]{})

	prev := r.Layout.CategoryPath(model.Research, "2025-06-09")
	if err := os.MkdirAll(filepath.Dir(prev), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prev, []byte("[Known paper]("+prefix+"known)"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := r.Run(context.Background(), today)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Skipped) != 1 || rep.Skipped[0] != model.Research {
		t.Errorf("expected research to be skipped, got %v", rep.Skipped)
	}
	if layout.Exists(r.Layout.CategoryPath(model.Research, today)) {
		t.Error("research document should not be written")
	}
	if summary := read(t, r.Layout.SummaryPath(today)); !strings.Contains(summary, "**: 1 papers\n") || strings.Contains(summary, "./research/") {
		t.Errorf("summary should show the count without linking the skipped document:\n%s", summary)
	}
	if !layout.Exists(r.Layout.SummaryPath(today)) {
		t.Error("summary should still be written")
	}
}

func TestRunWritesResearchWithNewItems(t *testing.T) {
	research := model.Collection[model.ContentItem]{Items: []model.ContentItem{
		{Title: "Known paper", URL: prefix + "known"},
		{Title: "Fresh paper", URL: prefix + "fresh"},
	}}
	r := newRunner(t, research, model.Collection[model.ContentItem]{}, model.Collection[model.RepoActivity]{})
	prev := r.Layout.CategoryPath(model.Research, "2025-06-09")
	if err := os.MkdirAll(filepath.Dir(prev), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prev, []byte(prefix+"known"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := r.Run(context.Background(), today)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Decision.New || len(rep.Decision.NewURLs) != 1 {
		t.Errorf("unexpected decision %+v", rep.Decision)
	}
	if got := read(t, r.Layout.CategoryPath(model.Research, today)); !strings.Contains(got, "Fresh paper") {
		t.Error("research document missing new paper")
	}
}

func TestRunRendersErrorsAndKeepsGoing(t *testing.T) {
	research := model.Fail[model.ContentItem]("Could not retrieve research", "Visit https://www.anthropic.com/research manually")
	repos := model.Fail[model.RepoActivity]("Error accessing GitHub: 401", "")
	r := newRunner(t, research, model.Collection[model.ContentItem]{}, repos)
	idx := &failingIndex{}
	r.Index = idx

	rep, err := r.Run(context.Background(), today)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Failed() || len(rep.Errors) != 2 {
		t.Errorf("expected two recorded errors, got %v", rep.Errors)
	}
	if rep.IndexErr == nil || idx.calls != 1 {
		t.Error("expected index failure to be reported without aborting")
	}
	if got := read(t, r.Layout.CategoryPath(model.Research, today)); !strings.Contains(got, "⚠️ **Error**: Could not retrieve research") {
		t.Errorf("research error not rendered:\n%s", got)
	}
	if got := read(t, r.Layout.CategoryPath(model.GitHub, today)); !strings.Contains(got, "Error accessing GitHub") {
		t.Errorf("github error not rendered:\n%s", got)
	}
}

func TestRunContinuesAfterWriteFailure(t *testing.T) {
	r := newRunner(t, model.Collection[model.ContentItem]{}, model.Collection[model.ContentItem]{}, model.Collection[model.RepoActivity]{})
	// A regular file where the docs directory belongs makes that write fail.
	if err := os.MkdirAll(r.Layout.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(r.Layout.CategoryDir(model.Docs), []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}
	led := &fakeLedger{}
	r.Ledger = led
	idx := &failingIndex{}
	r.Index = idx

	rep, err := r.Run(context.Background(), today)
	if err == nil {
		t.Fatal("expected the docs write failure to be returned")
	}
	if len(rep.Written) != 3 {
		t.Errorf("expected the other 3 documents written, got %v", rep.Written)
	}
	summary := read(t, r.Layout.SummaryPath(today))
	if strings.Contains(summary, "./docs/") {
		t.Errorf("summary links the unwritten docs document:\n%s", summary)
	}
	if idx.calls != 1 {
		t.Error("index update should still run")
	}
	if len(led.runs) != 1 {
		t.Error("ledger should still record the run")
	}
}

func TestRunRecordsLedgerAndPublishes(t *testing.T) {
	docs := model.Collection[model.ContentItem]{Items: []model.ContentItem{{Title: "API release", URL: "https://docs.anthropic.com/en/release-notes/api#june"}}}
	repos := model.Collection[model.RepoActivity]{Items: []model.RepoActivity{{
		Name:    "sdk",
		URL:     "https://github.com/anthropics/sdk",
		Commits: []model.CommitSummary{{Message: "fix"}},
	}}}
	r := newRunner(t, model.Collection[model.ContentItem]{}, docs, repos)
	led := &fakeLedger{}
	up := &fakeUploader{}
	r.Ledger = led
	r.Publisher = up

	rep, err := r.Run(context.Background(), today)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(led.runs) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(led.runs))
	}
	run := led.runs[0]
	if run.ID != rep.RunID || run.Docs != 1 || run.GitHub != 1 || run.Errors != 0 {
		t.Errorf("unexpected run %+v", run)
	}
	if len(led.items) != 2 {
		t.Errorf("expected 2 ledger items, got %+v", led.items)
	}

	if rep.Published != 5 {
		t.Errorf("expected 4 documents plus index published, got %d", rep.Published)
	}
	keys := map[string]bool{}
	for _, f := range up.files {
		keys[filepath.ToSlash(f.Rel)] = true
	}
	for _, want := range []string{"daily/docs/2025-06-10.md", "daily/2025-06-10.md", "README.md"} {
		if !keys[want] {
			t.Errorf("missing published key %q in %v", want, keys)
		}
	}
}

func TestRenderOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Research: config.PageConfig{
			Label:       "anthropic.com/research",
			RenderLimit: 10,
			Sources: []config.Source{
				{Type: "html", URL: "https://disabled.example", Enabled: false},
				{Type: "html", URL: "https://www.anthropic.com/research", Enabled: true},
			},
		},
		Docs: config.PageConfig{
			Label: "docs",
			Sources: []config.Source{
				{Type: "atom", URL: "https://github.com/x/releases.atom", Enabled: true},
				{Type: "html", URL: "https://docs.anthropic.com/en/release-notes/api", Enabled: true},
			},
		},
		GitHub: config.GitHubConfig{Org: "anthropics", RenderLimit: 15},
	}
	opts := RenderOptions(cfg)
	if opts.ResearchSource.URL != "https://www.anthropic.com/research" {
		t.Errorf("research link = %q", opts.ResearchSource.URL)
	}
	if opts.DocsSource.URL != "https://docs.anthropic.com/en/release-notes/api" {
		t.Errorf("docs link should prefer html source, got %q", opts.DocsSource.URL)
	}
	if opts.GitHubSource.URL != "https://github.com/anthropics" || opts.GitHubLimit != 15 {
		t.Errorf("unexpected github options %+v", opts)
	}
}
