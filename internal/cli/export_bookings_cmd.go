package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborsched/arbor/internal/app"
)

func newExportBookingsCmd(a *App) *cobra.Command {
	var file string
	var scenarioName string
	var out string

	cmd := &cobra.Command{
		Use:   "export-bookings",
		Short: "Schedule a scenario and write its bookings as a re-ingestable artefact",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := loadGraph(file)
			if err != nil {
				return err
			}

			scenarioID, err := pickScenario(graph, scenarioName)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if _, err := a.Schedule.Schedule(ctx, graph, scenarioID, app.Options{Now: time.Now()}); err != nil {
				return err
			}

			export, err := a.Schedule.ExportBookings(ctx, graph, scenarioID)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return fmt.Errorf("cli: encoding booking export: %w", err)
			}

			if out == "" || out == "-" {
				fmt.Println(string(data))
				return nil
			}
			return os.WriteFile(out, data, 0o644)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the project document (JSON or YAML)")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "scenario to schedule and export; prompts if omitted and more than one exists")
	cmd.Flags().StringVar(&out, "out", "-", "output path for the booking export JSON, or - for stdout")
	cmd.MarkFlagRequired("file")

	return cmd
}
