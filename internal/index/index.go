// Package index rewrites the history table inside the root README.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

const (
	missingCell  = "—"
	defaultTitle = "# Daily Digest"
)

type Updater struct {
	Path   string
	Marker string
	Rows   int
	Layout layout.Layout
	log    *slog.Logger
}

func New(path, marker string, rows int, l layout.Layout, log *slog.Logger) *Updater {
	return &Updater{Path: path, Marker: marker, Rows: rows, Layout: l, log: logging.Component(log, "index")}
}

// Update replaces the section that starts at the marker heading and ends at
// the next top-level heading. A missing marker appends the section; a missing
// file is created.
func (u *Updater) Update() error {
	dates, err := u.Layout.Dates()
	if err != nil {
		return fmt.Errorf("listing report dates: %w", err)
	}
	if u.Rows > 0 && len(dates) > u.Rows {
		dates = dates[:u.Rows]
	}

	rel, err := u.relativeRoot()
	if err != nil {
		return err
	}
	section := u.Section(dates, rel)

	content, err := os.ReadFile(u.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", u.Path, err)
	}

	var updated string
	if os.IsNotExist(err) {
		u.log.Info("index document missing, creating it", "path", u.Path)
		updated = defaultTitle + "\n\n" + section
	} else {
		updated = Splice(string(content), u.Marker, section)
	}

	if err := os.MkdirAll(filepath.Dir(u.Path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := os.WriteFile(u.Path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", u.Path, err)
	}
	u.log.Info("index updated", "path", u.Path, "rows", len(dates))
	return nil
}

// relativeRoot is the output directory as seen from the index document, in
// slash form for Markdown links.
func (u *Updater) relativeRoot() (string, error) {
	base, err := filepath.Abs(filepath.Dir(u.Path))
	if err != nil {
		return "", fmt.Errorf("resolving index directory: %w", err)
	}
	root, err := filepath.Abs(u.Layout.Root)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	rel, err := filepath.Rel(base, root)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	return "./" + filepath.ToSlash(rel), nil
}

// Section builds the marker heading and the history table for dates.
func (u *Updater) Section(dates []string, rel string) string {
	var b strings.Builder
	b.WriteString(u.Marker + "\n\n")
	b.WriteString("| Date | Research | Docs | GitHub | Summary |\n")
	b.WriteString("|------|----------|------|--------|---------|\n")
	for _, date := range dates {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			date,
			u.cell("Research", u.Layout.CategoryPath(model.Research, date), fmt.Sprintf("%s/%s/%s.md", rel, model.Research, date)),
			u.cell("Docs", u.Layout.CategoryPath(model.Docs, date), fmt.Sprintf("%s/%s/%s.md", rel, model.Docs, date)),
			u.cell("GitHub", u.Layout.CategoryPath(model.GitHub, date), fmt.Sprintf("%s/%s/%s.md", rel, model.GitHub, date)),
			u.cell("Summary", u.Layout.SummaryPath(date), fmt.Sprintf("%s/%s.md", rel, date)),
		)
	}
	return b.String()
}

func (u *Updater) cell(label, path, link string) string {
	if !layout.Exists(path) {
		return missingCell
	}
	return fmt.Sprintf("[%s](%s)", label, link)
}

// Splice replaces the marker section of content with section, or appends it.
func Splice(content, marker, section string) string {
	start := markerIndex(content, marker)
	if start < 0 {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if content != "" {
			content += "\n"
		}
		return content + section
	}

	end := len(content)
	if next := nextHeading(content[start+len(marker):]); next >= 0 {
		end = start + len(marker) + next
	}

	tail := content[end:]
	if tail != "" {
		return content[:start] + section + "\n" + tail
	}
	return content[:start] + section
}

// markerIndex finds marker at the start of a line.
func markerIndex(content, marker string) int {
	offset := 0
	for {
		i := strings.Index(content[offset:], marker)
		if i < 0 {
			return -1
		}
		pos := offset + i
		if pos == 0 || content[pos-1] == '\n' {
			return pos
		}
		offset = pos + len(marker)
	}
}

// nextHeading returns the offset of the first line in s, after the first,
// that starts a "#" or "##" heading.
func nextHeading(s string) int {
	offset := 0
	for {
		nl := strings.IndexByte(s[offset:], '\n')
		if nl < 0 {
			return -1
		}
		lineStart := offset + nl + 1
		line := s[lineStart:]
		if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") {
			return lineStart
		}
		offset = lineStart
	}
}
