package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborsched/arbor/internal/cli/formatter"
)

func newValidateCmd(a *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a project document for structural errors without scheduling it",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := loadGraph(file)
			if err != nil {
				return err
			}
			if err := a.Schedule.Validate(context.Background(), graph); err != nil {
				return err
			}
			fmt.Println(formatter.Bold("ok") + formatter.Dim(": project document is structurally valid"))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the project document (JSON or YAML)")
	cmd.MarkFlagRequired("file")

	return cmd
}
