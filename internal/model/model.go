// Package model holds the records passed between collectors, the scorer and the renderers.
package model

import "time"

// Category names one of the report folders.
type Category string

const (
	Research Category = "research"
	Docs     Category = "docs"
	GitHub   Category = "github"
)

// Categories returns every report category in render order.
func Categories() []Category {
	return []Category{Research, Docs, GitHub}
}

// ContentItem is a research paper or documentation entry scraped from a page or feed.
type ContentItem struct {
	Title       string
	Description string
	URL         string
	Date        string
	Source      string
}

// CommitSummary is the first line of a recent commit.
type CommitSummary struct {
	Message string
	URL     string
	Author  string
	Date    time.Time
}

// ReleaseSummary is a release created inside the lookback window.
type ReleaseSummary struct {
	Tag       string
	Title     string
	URL       string
	Body      string
	CreatedAt time.Time
}

// RepoActivity is a repository with at least one commit or release inside the window.
type RepoActivity struct {
	Name        string
	URL         string
	Description string
	Stars       int
	Language    string
	UpdatedAt   time.Time
	Commits     []CommitSummary
	Releases    []ReleaseSummary
}

// HasActivity reports whether the repository belongs in a report.
func (r RepoActivity) HasActivity() bool {
	return len(r.Commits) > 0 || len(r.Releases) > 0
}

// ErrorRecord stands in for a whole collection when the fetch path failed.
type ErrorRecord struct {
	Message    string
	Suggestion string
}

// Collection is the output of a collector: either items or an error record.
type Collection[T any] struct {
	Items []T
	Err   *ErrorRecord
}

// Failed reports whether the collection was replaced by an error record.
func (c Collection[T]) Failed() bool {
	return c.Err != nil
}

// Count returns the number of usable items, zero for a failed collection.
func (c Collection[T]) Count() int {
	if c.Err != nil {
		return 0
	}
	return len(c.Items)
}

// Fail builds a collection that carries only an error record.
func Fail[T any](message, suggestion string) Collection[T] {
	return Collection[T]{Err: &ErrorRecord{Message: message, Suggestion: suggestion}}
}

// ScoreResult is the importance rating of a RepoActivity.
type ScoreResult struct {
	Score   int
	Reasons []string
}
