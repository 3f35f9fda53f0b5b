// Package detect decides whether today's research items warrant a new report
// by comparing them with the most recent earlier report on disk.
package detect

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

// Decision is the outcome of a comparison. New is true unless a previous
// report was read and already lists every one of today's URLs.
type Decision struct {
	New      bool
	NewURLs  []string
	Previous string
	Reason   string
}

// Detector scans Dir for earlier reports. URLs are recognized by Prefix.
type Detector struct {
	Dir    string
	Prefix string
	log    *slog.Logger
	urlRe  *regexp.Regexp
}

func New(dir, prefix string, log *slog.Logger) *Detector {
	return &Detector{
		Dir:    dir,
		Prefix: prefix,
		log:    logging.Component(log, "detect"),
		urlRe:  regexp.MustCompile(regexp.QuoteMeta(prefix) + `[^\s\)\]]+`),
	}
}

// Check never fails; any problem reading history yields New.
func (d *Detector) Check(today string, items []model.ContentItem) Decision {
	current := urlsOf(items)

	previous, err := d.previousReport(today)
	if err != nil {
		d.log.Warn("listing previous reports failed, treating items as new", "dir", d.Dir, "error", err)
		return Decision{New: true, NewURLs: current, Reason: "history unreadable"}
	}
	if previous == "" {
		return Decision{New: true, NewURLs: current, Reason: "no previous report"}
	}

	content, err := os.ReadFile(previous)
	if err != nil {
		d.log.Warn("reading previous report failed, treating items as new", "file", previous, "error", err)
		return Decision{New: true, NewURLs: current, Previous: previous, Reason: "previous report unreadable"}
	}

	seen := map[string]bool{}
	for _, u := range d.urlRe.FindAllString(string(content), -1) {
		seen[u] = true
	}

	var fresh []string
	for _, u := range current {
		if !seen[u] {
			fresh = append(fresh, u)
		}
	}

	dec := Decision{New: len(fresh) > 0, NewURLs: fresh, Previous: previous}
	if dec.New {
		dec.Reason = fmt.Sprintf("%d new of %d", len(fresh), len(current))
	} else {
		dec.Reason = "all items already in " + filepath.Base(previous)
	}
	d.log.Info("compared with previous report", "previous", filepath.Base(previous), "new", len(fresh), "current", len(current))
	return dec
}

// previousReport returns the newest *.md file whose name does not contain
// today, or "" when there is none. A missing directory is not an error.
func (d *Detector) previousReport(today string) (string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for _, name := range names {
		if !strings.Contains(name, today) {
			return filepath.Join(d.Dir, name), nil
		}
	}
	return "", nil
}

// urlsOf returns the distinct non-empty URLs of items in order.
func urlsOf(items []model.ContentItem) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it.URL == "" || seen[it.URL] {
			continue
		}
		seen[it.URL] = true
		out = append(out, it.URL)
	}
	return out
}
