// Package pipeline runs one digest: collect, detect, render, persist, then the
// best-effort index, ledger and publish steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/detect"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/ledger"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/publish"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/render"
	"github.com/google/uuid"
)

type ContentCollector interface {
	Collect(ctx context.Context) model.Collection[model.ContentItem]
}

type RepoCollector interface {
	Collect(ctx context.Context) model.Collection[model.RepoActivity]
}

type IndexUpdater interface {
	Update() error
}

type RunRecorder interface {
	RecordRun(r ledger.Run) (string, error)
	UpsertItems(items []ledger.Item, seen time.Time) (int, error)
}

type Uploader interface {
	Publish(ctx context.Context, files []publish.File) (int, error)
}

// Runner wires the steps of a run. Index, Ledger and Publisher are optional.
type Runner struct {
	Research  ContentCollector
	Docs      ContentCollector
	GitHub    RepoCollector
	Detector  *detect.Detector
	Renderer  *render.Renderer
	Layout    layout.Layout
	IndexPath string
	Index     IndexUpdater
	Ledger    RunRecorder
	Publisher Uploader
	Now       func() time.Time
	Log       *slog.Logger
}

// Report describes what a run produced.
type Report struct {
	RunID     string
	Date      string
	Counts    map[model.Category]int
	Errors    map[model.Category]string
	Written   []string
	Skipped   []model.Category
	Decision  detect.Decision
	IndexErr  error
	Published int
}

// Failed reports whether any collector returned an error record.
func (r Report) Failed() bool {
	return len(r.Errors) > 0
}

// Run executes the digest for date (YYYY-MM-DD). Collection failures end up
// in the documents. Every step runs even when a document cannot be written;
// the write failures are joined into the returned error.
func (r *Runner) Run(ctx context.Context, date string) (Report, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	started := now()
	rep := Report{
		RunID:  uuid.NewString(),
		Date:   date,
		Counts: map[model.Category]int{},
		Errors: map[model.Category]string{},
	}
	log := logging.Component(r.Log, "pipeline").With("run_id", rep.RunID, "date", date)

	log.Info("collecting research")
	research := r.Research.Collect(ctx)
	log.Info("collecting docs")
	docs := r.Docs.Collect(ctx)
	log.Info("collecting github activity")
	github := r.GitHub.Collect(ctx)

	note := func(c model.Category, count int, e *model.ErrorRecord) {
		rep.Counts[c] = count
		if e != nil {
			rep.Errors[c] = e.Message
		}
	}
	note(model.Research, research.Count(), research.Err)
	note(model.Docs, docs.Count(), docs.Err)
	note(model.GitHub, github.Count(), github.Err)

	writeResearch := true
	if !research.Failed() && len(research.Items) > 0 && r.Detector != nil {
		rep.Decision = r.Detector.Check(date, research.Items)
		writeResearch = rep.Decision.New
		log.Info("research change check", "new", rep.Decision.New, "reason", rep.Decision.Reason)
	}

	var (
		missing   []model.Category
		writeErrs []error
	)
	docsOut := []struct {
		category model.Category
		path     string
		write    bool
		content  func() string
	}{
		{model.Research, r.Layout.CategoryPath(model.Research, date), writeResearch, func() string { return r.Renderer.Research(date, research) }},
		{model.Docs, r.Layout.CategoryPath(model.Docs, date), true, func() string { return r.Renderer.Docs(date, docs) }},
		{model.GitHub, r.Layout.CategoryPath(model.GitHub, date), true, func() string { return r.Renderer.GitHub(date, github) }},
		{"", r.Layout.SummaryPath(date), true, func() string { return r.Renderer.Summary(date, research, docs, github, missing...) }},
	}
	for _, d := range docsOut {
		if !d.write {
			log.Info("skipping document, no new items", "category", d.category)
			rep.Skipped = append(rep.Skipped, d.category)
			missing = append(missing, d.category)
			continue
		}
		if err := writeDocument(d.path, d.content()); err != nil {
			log.Error("writing document failed", "path", d.path, "error", err)
			writeErrs = append(writeErrs, err)
			missing = append(missing, d.category)
			continue
		}
		log.Info("wrote document", "path", d.path)
		rep.Written = append(rep.Written, d.path)
	}

	if r.Index != nil {
		if err := r.Index.Update(); err != nil {
			rep.IndexErr = err
			log.Error("index update failed", "error", err)
		}
	}

	if r.Ledger != nil {
		r.record(log, rep, started, research, docs, github)
	}

	if r.Publisher != nil {
		n, err := r.Publisher.Publish(ctx, r.publishFiles(rep))
		rep.Published = n
		if err != nil {
			log.Error("publishing incomplete", "error", err)
		}
	}

	return rep, errors.Join(writeErrs...)
}

func (r *Runner) record(log *slog.Logger, rep Report, started time.Time, research, docs model.Collection[model.ContentItem], github model.Collection[model.RepoActivity]) {
	if _, err := r.Ledger.RecordRun(ledger.Run{
		ID:        rep.RunID,
		Date:      rep.Date,
		StartedAt: started,
		Research:  rep.Counts[model.Research],
		Docs:      rep.Counts[model.Docs],
		GitHub:    rep.Counts[model.GitHub],
		Errors:    len(rep.Errors),
	}); err != nil {
		log.Warn("recording run failed", "error", err)
		return
	}

	var items []ledger.Item
	for _, it := range research.Items {
		items = append(items, ledger.Item{Category: string(model.Research), Title: it.Title, URL: it.URL})
	}
	for _, it := range docs.Items {
		items = append(items, ledger.Item{Category: string(model.Docs), Title: it.Title, URL: it.URL})
	}
	for _, repo := range github.Items {
		items = append(items, ledger.Item{Category: string(model.GitHub), Title: repo.Name, URL: repo.URL})
	}
	n, err := r.Ledger.UpsertItems(items, started)
	if err != nil {
		log.Warn("recording items failed", "error", err)
		return
	}
	log.Debug("ledger updated", "items", n)
}

// publishFiles lists the written documents and the index, keyed relative to
// the directory holding the index document.
func (r *Runner) publishFiles(rep Report) []publish.File {
	paths := append([]string{}, rep.Written...)
	base := "."
	if r.IndexPath != "" {
		base = filepath.Dir(r.IndexPath)
		if rep.IndexErr == nil {
			paths = append(paths, r.IndexPath)
		}
	}

	files := make([]publish.File, 0, len(paths))
	for _, p := range paths {
		rel, err := relPath(base, p)
		if err != nil {
			rel = filepath.Base(p)
		}
		files = append(files, publish.File{Path: p, Rel: rel})
	}
	return files
}

func relPath(base, target string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absBase, absTarget)
}

func writeDocument(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
