// internal/cli/meta.go
package cli

import (
	"fmt"

	"github.com/law-makers/screengrab/internal/agent"
	"github.com/law-makers/screengrab/internal/reqctx"
	"github.com/law-makers/screengrab/internal/ui"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/spf13/cobra"
)

// metaCmd represents the meta command
var metaCmd = &cobra.Command{
	Use:   "meta [url]",
	Short: "Show the app name and logo detected on a page without scanning",
	Long: `Loads the page and runs only the metadata step of a scan: the app name
from the main heading (or the document title) and the best logo candidate.
Useful to check selector overrides before a full scan.`,
	Example: `  screengrab meta https://example.com/apps/ios/acme-notes
  screengrab meta --agent=127.0.0.1:7411`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMeta,
}

func init() {
	rootCmd.AddCommand(metaCmd)

	metaCmd.Flags().StringVar(&agentAddr, "agent", "", "Address of a running agent (screengrab serve)")
	addPageFlags(metaCmd)
}

func runMeta(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	ctx := reqctx.WithRequestContext(cmd.Context())

	var meta models.ScreenCollectionMeta
	if agentAddr != "" {
		client := agent.NewRemoteClient(agentAddr, nil)
		resp, err := client.Send(ctx, models.Message{Action: models.ActionGetMeta})
		if err != nil {
			return err
		}
		if resp.Status == models.StatusError {
			return fmt.Errorf("%s", resp.Message)
		}
		if resp.ScreenCollectionMeta != nil {
			meta = *resp.ScreenCollectionMeta
		}
	} else {
		if len(args) == 0 {
			return fmt.Errorf("a URL is required unless --agent is set")
		}
		opts, err := pageOptions(a, args[0])
		if err != nil {
			return err
		}
		page, closePage, err := a.OpenPage(ctx, opts)
		defer closePage()
		if err != nil {
			return err
		}
		meta, err = a.Extractor.Extract(ctx, page)
		if err != nil {
			return err
		}
	}

	fmt.Printf("\n%s\n", ui.Bold(unescape(meta.Name)))
	fmt.Printf("  %-8s %s\n", "Logo:", meta.LogoURL)
	fmt.Printf("  %-8s %s\n", "Source:", meta.SourceURL)
	fmt.Printf("  %-8s %s\n\n", "ID:", collectionID(meta))
	return nil
}
