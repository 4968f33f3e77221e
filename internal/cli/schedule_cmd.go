package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/cli/formatter"
)

func newScheduleCmd(a *App) *cobra.Command {
	var file string
	var scenarioName string
	var tree bool
	var saveProject string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the scheduler over a project document and print the result",
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
				return fmt.Errorf("cli: %w", err)
			}

			if saveProject != "" && a.Graphs != nil {
				if err := a.Graphs.SaveGraph(context.Background(), saveProject, graph); err != nil {
					return fmt.Errorf("cli: saving graph: %w", err)
				}
			}

			if tree {
				fmt.Printf("%s  %s\n\n", formatter.Header(result.ScenarioName), formatter.StatusIndicator(result.State))
				fmt.Print(formatter.FormatTaskTree(result.Tasks))
				return nil
			}

			fmt.Print(formatter.FormatScheduleResult(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the project document (JSON or YAML)")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "scenario to schedule; prompts if omitted and more than one exists")
	cmd.Flags().BoolVar(&tree, "tree", false, "render the task forest as an indented tree instead of a flat table")
	cmd.Flags().StringVar(&saveProject, "save-project", "", "persist the ingested graph under this project id before reporting")
	cmd.MarkFlagRequired("file")

	return cmd
}
