package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arborsched/arbor/internal/app"
)

// Run blocks running the schedule browser over result until the user quits.
func Run(result *app.ScheduleResult) error {
	_, err := tea.NewProgram(New(result)).Run()
	return err
}
