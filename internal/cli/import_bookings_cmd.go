package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arborsched/arbor/internal/ingest"
)

func newImportBookingsCmd(a *App) *cobra.Command {
	var file string
	var bookingsFile string
	var out string

	cmd := &cobra.Command{
		Use:   "import-bookings",
		Short: "Fold an exported booking artefact back into a project document as input bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(file)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(bookingsFile)
			if err != nil {
				return fmt.Errorf("cli: reading %s: %w", bookingsFile, err)
			}
			var export ingest.BookingExport
			if err := json.Unmarshal(data, &export); err != nil {
				return fmt.Errorf("cli: decoding booking export: %w", err)
			}

			if err := a.Schedule.ImportBookings(context.Background(), doc, export); err != nil {
				return err
			}

			// Re-build to confirm the merged document is still valid before
			// writing it out.
			if _, err := ingest.Build(doc); err != nil {
				return fmt.Errorf("cli: merged document failed validation: %w", err)
			}

			var merged []byte
			if isYAMLPath(file) {
				merged, err = yaml.Marshal(doc)
			} else {
				merged, err = json.MarshalIndent(doc, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("cli: encoding merged document: %w", err)
			}

			if out == "" || out == "-" {
				fmt.Println(string(merged))
				return nil
			}
			return os.WriteFile(out, merged, 0o644)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the project document (JSON or YAML)")
	cmd.Flags().StringVar(&bookingsFile, "bookings", "", "path to the booking export JSON to fold in")
	cmd.Flags().StringVar(&out, "out", "-", "output path for the merged document, or - for stdout")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("bookings")

	return cmd
}
