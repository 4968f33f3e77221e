package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/cli/tui"
)

func newTUICmd(a *App) *cobra.Command {
	var file string
	var scenarioName string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse a scheduled scenario's Gantt and diagnostics interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := loadGraph(file)
			if err != nil {
				return err
			}

			scenarioID, err := pickScenario(graph, scenarioName)
			if err != nil {
				return err
			}

			result, err := a.Schedule.Schedule(context.Background(), graph, scenarioID, app.Options{Now: time.Now()})
			if err != nil {
				return err
			}

			return tui.Run(result)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the project document (JSON or YAML)")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "scenario to browse; prompts if omitted and more than one exists")
	cmd.MarkFlagRequired("file")

	return cmd
}
