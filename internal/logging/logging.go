// Package logging builds the structured logger shared by every stage of a run.
package logging

import (
	"io"
	"log/slog"
)

// New creates a text logger writing to w. Debug level is enabled when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// Component returns a logger tagged with the name of the stage using it.
// A nil logger yields a logger that discards everything.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("component", name)
}

// Discard returns a logger that drops all records, used as a default in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
