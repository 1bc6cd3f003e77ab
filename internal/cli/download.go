// internal/cli/download.go
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/law-makers/screengrab/internal/downloader"
	"github.com/law-makers/screengrab/internal/ui"
	"github.com/spf13/cobra"
)

var downloadDir string

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download every screen image of a saved collection",
	Long: `Downloads the screens of one collection into <output>/<id>/, numbered in
scroll order. Downloads run concurrently, are rate limited per host and
retry transient failures.`,
	Example: `  screengrab download acme-notes -o ./screens
  screengrab download "Acme Notes" -o ./screens`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", ".", "Directory to download into")
}

func runDownload(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	ctx := cmd.Context()

	st, err := a.Store(ctx)
	if err != nil {
		return err
	}
	c, err := st.Get(ctx, args[0])
	if err != nil {
		return notFound(err, args[0])
	}

	bar := newDownloadBar(len(c.Screens))
	var onDone func(*downloader.Result)
	if bar != nil {
		onDone = func(*downloader.Result) { _ = bar.Add(1) }
	}

	results := a.NewDownloader().DownloadCollection(ctx, *c, downloadDir, onDone)
	if bar != nil {
		_ = bar.Finish()
	}

	var ok, failed int
	var bytes int64
	for _, r := range results {
		if r.Success {
			ok++
			bytes += r.Size
			continue
		}
		failed++
		fmt.Printf("  %s %s: %v\n", ui.Error("✗"), r.URL, r.Error)
	}

	fmt.Printf("\n%s %d of %d screens (%s) into %s\n",
		ui.Success("✓ Downloaded"), ok, len(results), formatBytes(bytes), filepath.Join(downloadDir, c.ID))
	if failed > 0 {
		return fmt.Errorf("%d downloads failed", failed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
