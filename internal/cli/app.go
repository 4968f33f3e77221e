// Package cli wires cobra subcommands and the bubbletea TUI around
// internal/app's ScheduleService port.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/repository"
)

// App holds the service and repositories CLI commands are built against.
type App struct {
	Schedule app.ScheduleService
	Graphs   *repository.GraphRepository
	Runs     *repository.RunRepository
}

// NewRootCmd creates the top-level "arbor" command and registers every
// subcommand against app.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "arbor",
		Short: "Declarative project scheduling engine",
	}

	root.AddCommand(
		newScheduleCmd(a),
		newValidateCmd(a),
		newResourcesCmd(a),
		newExportBookingsCmd(a),
		newImportBookingsCmd(a),
		newTUICmd(a),
	)

	return root
}
