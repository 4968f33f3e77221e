package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/cli/formatter"
)

func newResourcesCmd(a *App) *cobra.Command {
	var file string
	var scenarioName string

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List a project's resources, or their utilisation for a scheduled scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := loadGraph(file)
			if err != nil {
				return err
			}

			if scenarioName == "" {
				fmt.Print(formatter.FormatResourceRoster(graph))
				return nil
			}

			scenarioID, err := pickScenario(graph, scenarioName)
			if err != nil {
				return err
			}
			result, err := a.Schedule.Schedule(context.Background(), graph, scenarioID, app.Options{Now: time.Now()})
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatResourceTable(result.Resources))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the project document (JSON or YAML)")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "show utilisation for this scenario instead of the structural roster")
	cmd.MarkFlagRequired("file")

	return cmd
}
