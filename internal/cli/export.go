// internal/cli/export.go
package cli

import (
	"fmt"
	"os"

	"github.com/law-makers/screengrab/internal/ui"
	"github.com/law-makers/screengrab/internal/utils/output"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/spf13/cobra"
)

var (
	exportFile   string
	exportFormat string
	exportIDs    []string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved collections as JSON, CSV, HTML or Markdown",
	Long: `Writes saved collections to a file or to stdout. The format is taken from
the output file extension unless --format is set; stdout defaults to JSON.
The HTML format is a self-contained gallery page.`,
	Example: `  screengrab export -o collections.json
  screengrab export -o gallery.html --id=acme-notes
  screengrab export --format=csv > screens.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: json, csv, html or md")
	exportCmd.Flags().StringArrayVar(&exportIDs, "id", nil, "Export only these collections (repeatable)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	ctx := cmd.Context()

	format := output.FormatJSON
	if exportFile != "" {
		format = output.FormatFromPath(exportFile)
	}
	if exportFormat != "" {
		f, err := output.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
	}

	st, err := a.Store(ctx)
	if err != nil {
		return err
	}

	var collections []models.ScreenCollection
	if len(exportIDs) == 0 {
		collections, err = st.List(ctx)
		if err != nil {
			return err
		}
	} else {
		for _, id := range exportIDs {
			c, err := st.Get(ctx, id)
			if err != nil {
				return notFound(err, id)
			}
			collections = append(collections, *c)
		}
	}

	if exportFile == "" {
		return output.Write(os.Stdout, format, collections)
	}
	if err := output.Save(exportFile, format, collections); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportFile, err)
	}
	fmt.Printf("\n%s %d collections to %s\n\n", ui.Success("✓ Exported"), len(collections), exportFile)
	return nil
}
