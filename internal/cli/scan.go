// internal/cli/scan.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/law-makers/screengrab/internal/agent"
	"github.com/law-makers/screengrab/internal/app"
	"github.com/law-makers/screengrab/internal/engine/scan"
	"github.com/law-makers/screengrab/internal/reqctx"
	"github.com/law-makers/screengrab/internal/ui"
	headersutil "github.com/law-makers/screengrab/internal/utils/headers"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/spf13/cobra"
)

var (
	mode        string
	sessionName string
	headers     []string
	agentAddr   string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [url]",
	Short: "Scroll an app page and save every screen as a collection",
	Long: `Opens the app page, reads its name and logo, then scrolls until the page
stops growing, collecting every screen image in order. The result is saved
as a collection; scanning the same app again replaces its screens.

With --agent the scan is run by a "screengrab serve" process that already
has the page open, and no URL is needed.

Press Ctrl-C to abort: nothing is saved for an aborted scan.`,
	Example: `  # Scan an app page with headless Chrome
  screengrab scan https://example.com/apps/ios/acme-notes

  # Use a saved login session and a longer settle delay
  screengrab scan https://example.com/apps/ios/acme-notes --session=design --settle=1s

  # Drive an agent started with "screengrab serve"
  screengrab scan --agent=127.0.0.1:7411`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&agentAddr, "agent", "", "Address of a running agent (screengrab serve)")
	scanCmd.Flags().String("scan-timeout", "", "Abort the scan after this long (default 10m)")
	scanCmd.Flags().String("settle", "", "Delay after each scroll step (default 500ms)")
	addPageFlags(scanCmd)
}

// addPageFlags registers the flags that control how a page is opened
func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Page driver: spa (headless Chrome), static or auto")
	cmd.Flags().StringVar(&sessionName, "session", "", "Name of a saved login session to use")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (e.g., -H \"Accept-Language: en\")")
	cmd.Flags().Bool("headful", false, "Show the Chrome window")
}

// pageOptions builds page options from the page flags
func pageOptions(a *app.Application, url string) (models.PageOptions, error) {
	headerMap, err := headersutil.Parse(headers)
	if err != nil {
		return models.PageOptions{}, err
	}

	m := models.ScraperMode(strings.ToLower(mode))
	switch m {
	case "":
		m = models.ScraperMode(a.Config.Mode)
	case models.ModeStatic, models.ModeSPA, models.ModeAuto:
	default:
		return models.PageOptions{}, fmt.Errorf("invalid mode: %s (must be static, spa or auto)", mode)
	}

	return models.PageOptions{
		URL:         url,
		Mode:        m,
		Headers:     headerMap,
		SessionName: sessionName,
		Timeout:     a.Config.HTTPTimeout,
		Proxy:       a.Config.Proxy,
	}, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	ctx := reqctx.WithRequestContext(cmd.Context())
	logger := reqctx.Logger(ctx)

	if agentAddr == "" && len(args) == 0 {
		return fmt.Errorf("a URL is required unless --agent is set")
	}

	progress := newScanProgress()
	defer progress.Finish()

	var client agent.Client
	var pushed bool
	if agentAddr != "" {
		client = agent.NewRemoteClient(agentAddr, nil)
		logger.Info().Str("agent", agentAddr).Msg("Using remote agent")
	} else {
		opts, err := pageOptions(a, args[0])
		if err != nil {
			return err
		}
		page, closePage, err := a.OpenPage(ctx, opts)
		defer closePage()
		if err != nil {
			return err
		}
		ag, err := a.NewAgent(ctx, page, progress)
		if err != nil {
			return err
		}
		client = agent.LocalClient{Agent: ag}
		pushed = true
	}

	// A local agent pushes progress itself; a remote one is polled
	var notifier scan.Notifier
	if !pushed {
		notifier = progress
	}

	meta, resp, err := agent.RunScan(ctx, client, a.Config.ScanTimeout, notifier)
	progress.Finish()

	if resp.Status == models.StatusAborted {
		fmt.Println(ui.Info("Scan aborted, nothing was saved."))
		return nil
	}
	if err != nil {
		return err
	}

	verb := "Saved"
	if resp.IsUpdate {
		verb = "Updated"
	}
	fmt.Printf("\n%s %s\n", ui.Success("✓ "+verb), ui.Bold(unescape(resp.AppName)))
	fmt.Printf("  %-8s %d\n", "Screens:", resp.Count)
	fmt.Printf("  %-8s %s\n", "Source:", meta.SourceURL)
	fmt.Printf("  %-8s %s\n\n", "Logo:", meta.LogoURL)

	warnIfNearLimit(ctx, client)
	return nil
}

// warnIfNearLimit prints the soft quota warning after a save
func warnIfNearLimit(ctx context.Context, client agent.Client) {
	resp, err := client.Send(ctx, models.Message{Action: models.ActionCheckStorage})
	if err != nil || resp.StorageUsage == nil || !resp.NearLimit {
		return
	}
	fmt.Println(ui.Info(fmt.Sprintf("Storage is %.0f%% full; consider deleting old collections.", resp.PercentUsed)))
}
