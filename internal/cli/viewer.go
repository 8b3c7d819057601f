package cli

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/croptint/internal/viewer"
)

// newViewerCmd builds the viewer command.
func newViewerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viewer <input-csv> <output-html>",
		Short: "Generate a static HTML colour viewer",
		Long: `Generate a self-contained HTML page from an augmented colour table.

The page shows one card per crop with its colour bar, hex code and source
image, plus a client-side name search. The table is expected to carry
crop_name, image_url and dominant_color columns, as written by extract.

Example:
  croptint viewer crop_colors.csv color_viewer.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := viewer.ReadRecords(args[0])
			if err != nil {
				return err
			}

			if err := viewer.Generate(records, args[1]); err != nil {
				return err
			}

			newLogger(cmd).Info("viewer generated", "path", args[1], "crops", len(records))
			return nil
		},
	}
}
