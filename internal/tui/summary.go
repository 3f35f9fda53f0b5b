package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/pipeline"
)

// RunSummary renders a short table describing a finished run.
func RunSummary(rep pipeline.Report) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("Category", "Items", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(colorPrimary)
			}
			return s
		})

	for _, c := range model.Categories() {
		t.Row(string(c), strconv.Itoa(rep.Counts[c]), categoryStatus(rep, c))
	}

	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render(fmt.Sprintf("Digest %s", rep.Date)))
	b.WriteString(summaryDimStyle.Render(" run " + rep.RunID))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(summaryDimStyle.Render(fmt.Sprintf("%d document(s) written", len(rep.Written))))
	if rep.Published > 0 {
		b.WriteString(summaryDimStyle.Render(fmt.Sprintf(", %d published", rep.Published)))
	}
	if rep.IndexErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("index not updated: " + rep.IndexErr.Error()))
	}
	return b.String()
}

func categoryStatus(rep pipeline.Report, c model.Category) string {
	if msg, ok := rep.Errors[c]; ok {
		return errorStyle.Render("error: " + msg)
	}
	if slices.Contains(rep.Skipped, c) {
		return summaryDimStyle.Render("skipped, no new items")
	}
	return summaryOKStyle.Render("ok")
}
