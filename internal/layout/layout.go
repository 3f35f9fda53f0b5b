// Package layout maps report categories and dates to paths under the output directory.
package layout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

// DateLayout is the ISO calendar date used in every file name.
const DateLayout = "2006-01-02"

type Layout struct {
	Root string
}

func (l Layout) CategoryDir(c model.Category) string {
	return filepath.Join(l.Root, string(c))
}

func (l Layout) CategoryPath(c model.Category, date string) string {
	return filepath.Join(l.Root, string(c), date+".md")
}

// SummaryPath is the aggregate document, one level above the category folders.
func (l Layout) SummaryPath(date string) string {
	return filepath.Join(l.Root, date+".md")
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Dates returns every date with a summary or category document, newest first.
func (l Layout) Dates() ([]string, error) {
	set := map[string]bool{}
	dirs := []string{l.Root}
	for _, c := range model.Categories() {
		dirs = append(dirs, l.CategoryDir(c))
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if date, ok := DateFromName(e.Name()); ok {
				set[date] = true
			}
		}
	}

	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// DateFromName extracts the date from a "YYYY-MM-DD.md" file name.
func DateFromName(name string) (string, bool) {
	date, ok := strings.CutSuffix(name, ".md")
	if !ok {
		return "", false
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", false
	}
	return date, true
}
