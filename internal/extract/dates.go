package extract

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

// ParseDate parses a free-form date. Anything unparseable sorts as the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortByDate orders items newest first. Items with equal or unparseable dates keep their order.
func SortByDate(items []model.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return ParseDate(items[i].Date).After(ParseDate(items[j].Date))
	})
}
