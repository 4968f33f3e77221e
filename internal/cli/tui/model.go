// Package tui implements an interactive Gantt/diagnostics browser over a
// scheduled app.ScheduleResult, using bubbletea/bubbles/lipgloss.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/cli/formatter"
)

type pane int

const (
	paneTasks pane = iota
	paneResources
	paneDiagnostics
)

var paneTitles = map[pane]string{
	paneTasks:       "Tasks",
	paneResources:   "Resources",
	paneDiagnostics: "Diagnostics",
}

// Model is the root bubbletea Model for the schedule browser.
type Model struct {
	result *app.ScheduleResult

	active pane
	tasks  table.Model
	res    table.Model
	diags  viewport.Model

	width, height int
	quitting      bool
}

var keys = struct {
	Next, Prev, Quit key.Binding
}{
	Next: key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab", "next pane")),
	Prev: key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab", "prev pane")),
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// New builds a Model over a scheduled result.
func New(result *app.ScheduleResult) Model {
	taskCols := []table.Column{
		{Title: "Task", Width: 28},
		{Title: "Start", Width: 14},
		{Title: "End", Width: 14},
		{Title: "Done", Width: 6},
		{Title: "Status", Width: 12},
	}
	taskRows := make([]table.Row, 0, len(result.Tasks))
	for _, t := range result.Tasks {
		taskRows = append(taskRows, table.Row{
			t.DotPath, formatTime(t.Start), formatTime(t.End),
			fmt.Sprintf("%3.0f%%", t.CompletePercent), t.Status,
		})
	}

	resCols := []table.Column{
		{Title: "Resource", Width: 24},
		{Title: "Utilisation", Width: 12},
		{Title: "Bookings", Width: 10},
	}
	resRows := make([]table.Row, 0, len(result.Resources))
	for _, r := range result.Resources {
		resRows = append(resRows, table.Row{
			r.Name, fmt.Sprintf("%3.0f%%", r.UtilisationPercent), fmt.Sprintf("%d", len(r.Assignments)),
		})
	}

	tasks := newStyledTable(taskCols, taskRows)
	res := newStyledTable(resCols, resRows)
	diags := viewport.New(0, 0)
	diags.SetContent(formatter.FormatDiagnostics(result.Diagnostics))

	m := Model{result: result, active: paneTasks, tasks: tasks, res: res, diags: diags}
	m.tasks.Focus()
	return m
}

func newStyledTable(cols []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(14),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(formatter.ColorDim).
		BorderBottom(true).
		Bold(true).
		Foreground(formatter.ColorHeader)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#1d2021")).
		Background(formatter.ColorGreen).
		Bold(true)
	t.SetStyles(s)
	return t
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.Format("Jan 2 15:04")
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.diags.Width = msg.Width
		m.diags.Height = msg.Height - 6
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.active = (m.active + 1) % 3
			m.refocus()
			return m, nil
		case key.Matches(msg, keys.Prev):
			m.active = (m.active + 2) % 3
			m.refocus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.active {
	case paneTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case paneResources:
		m.res, cmd = m.res.Update(msg)
	case paneDiagnostics:
		m.diags, cmd = m.diags.Update(msg)
	}
	return m, cmd
}

func (m *Model) refocus() {
	m.tasks.Blur()
	m.res.Blur()
	if m.active == paneTasks {
		m.tasks.Focus()
	} else if m.active == paneResources {
		m.res.Focus()
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var tabs []string
	for _, p := range []pane{paneTasks, paneResources, paneDiagnostics} {
		title := paneTitles[p]
		if p == m.active {
			tabs = append(tabs, formatter.StyleHeader.Render("["+title+"]"))
		} else {
			tabs = append(tabs, formatter.Dim(" "+title+" "))
		}
	}

	var body string
	switch m.active {
	case paneTasks:
		body = m.tasks.View()
	case paneResources:
		body = m.res.View()
	case paneDiagnostics:
		body = m.diags.View()
	}

	header := fmt.Sprintf("%s  %s", formatter.Bold(m.result.ScenarioName), formatter.StatusIndicator(m.result.State))
	help := formatter.Dim("tab/shift+tab: switch pane  •  ↑/↓: scroll  •  q: quit")

	return strings.Join([]string{
		header,
		strings.Join(tabs, "  "),
		"",
		body,
		"",
		help,
	}, "\n")
}
