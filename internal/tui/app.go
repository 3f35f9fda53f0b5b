package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/layout"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

const listWidth = 16

// tab is one of the documents shown for a date. The summary has no category.
type tab struct {
	label    string
	category model.Category
}

var tabs = []tab{
	{"Summary", ""},
	{"Research", model.Research},
	{"Docs", model.Docs},
	{"GitHub", model.GitHub},
}

// Options configures the report browser.
type Options struct {
	Layout layout.Layout
	// Links maps a category to the source page opened with "o".
	Links map[model.Category]string
}

type App struct {
	layout layout.Layout
	links  map[model.Category]string

	dates  []string
	cursor int
	tab    int

	viewport viewport.Model
	content  string
	path     string

	width  int
	height int
	err    error
}

func NewApp(opts Options) *App {
	return &App{
		layout:   opts.Layout,
		links:    opts.Links,
		viewport: viewport.New(0, 0),
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadDatesCmd()
}

func (a *App) loadDatesCmd() tea.Cmd {
	l := a.layout
	return func() tea.Msg {
		dates, err := l.Dates()
		if err != nil {
			return errMsg{err: err}
		}
		return datesLoadedMsg{dates: dates}
	}
}

// currentPath is the document for the selected date and tab.
func (a *App) currentPath() string {
	if len(a.dates) == 0 {
		return ""
	}
	date := a.dates[a.cursor]
	if c := tabs[a.tab].category; c != "" {
		return a.layout.CategoryPath(c, date)
	}
	return a.layout.SummaryPath(date)
}

func (a *App) loadDocCmd() tea.Cmd {
	path := a.currentPath()
	if path == "" {
		return nil
	}
	label := tabs[a.tab].label
	date := a.dates[a.cursor]
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return docLoadedMsg{path: path, content: fmt.Sprintf("No %s report for %s.", strings.ToLower(label), date)}
		}
		if err != nil {
			return errMsg{err: err}
		}
		return docLoadedMsg{path: path, content: string(data)}
	}
}

func openURLCmd(rawURL string) tea.Cmd {
	return func() tea.Msg {
		if err := OpenURL(rawURL); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case datesLoadedMsg:
		a.dates = msg.dates
		if a.cursor >= len(a.dates) {
			a.cursor = max(0, len(a.dates)-1)
		}
		return a, a.loadDocCmd()

	case docLoadedMsg:
		a.path = msg.path
		a.content = msg.content
		a.setContent()
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "j", "down":
		if a.cursor < len(a.dates)-1 {
			a.cursor++
			return a, a.loadDocCmd()
		}
		return a, nil
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
			return a, a.loadDocCmd()
		}
		return a, nil
	case "tab":
		a.tab = (a.tab + 1) % len(tabs)
		return a, a.loadDocCmd()
	case "shift+tab":
		a.tab = (a.tab + len(tabs) - 1) % len(tabs)
		return a, a.loadDocCmd()
	case "o":
		link := a.links[tabs[a.tab].category]
		if link == "" {
			a.err = fmt.Errorf("no source link for %s", tabs[a.tab].label)
			return a, nil
		}
		return a, openURLCmd(link)
	case "r":
		return a, a.loadDatesCmd()
	}

	// Remaining keys scroll the document
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) docWidth() int {
	return max(10, a.width-listWidth-6)
}

func (a *App) resize() {
	a.viewport.Width = a.docWidth()
	a.viewport.Height = max(3, a.height-5)
	a.setContent()
}

func (a *App) setContent() {
	a.viewport.SetContent(lipgloss.NewStyle().Width(a.docWidth()).Render(a.content))
	a.viewport.GotoTop()
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  orgdigest")
	}

	headerLeft := headerStyle.Render("orgdigest")
	headerRight := headerDateStyle.Render(a.selectedDate())
	gap := max(0, a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight))
	header := headerLeft + strings.Repeat(" ", gap) + headerRight

	contentHeight := a.viewport.Height
	list := listPaneStyle.Width(listWidth).Height(contentHeight).Render(renderDates(a.dates, a.cursor, contentHeight))
	doc := docPaneStyle.Width(a.docWidth() + 2).Height(contentHeight).Render(a.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, doc)

	status := renderStatusBar(a.width, a.viewport.ScrollPercent())
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, renderTabs(a.tab), body, status)
}

func (a *App) selectedDate() string {
	if len(a.dates) == 0 {
		return "no reports"
	}
	return a.dates[a.cursor]
}

func renderTabs(active int) string {
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		style := tabInactiveStyle
		if i == active {
			style = tabActiveStyle
		}
		parts[i] = style.Render(t.label)
	}
	return strings.Join(parts, " ")
}

func renderDates(dates []string, cursor, height int) string {
	if len(dates) == 0 {
		return dateStyle.Render("No reports")
	}

	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(len(dates), start+height)

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == cursor {
			b.WriteString(dateSelectedStyle.Render("> " + dates[i]))
		} else {
			b.WriteString(dateStyle.Render("  " + dates[i]))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderStatusBar(width int, scroll float64) string {
	left := fmt.Sprintf(" %3.0f%%", scroll*100)
	right := " j/k date  tab switch  o open source  r reload  q quit "
	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the report browser.
func Run(opts Options) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
