// internal/cli/serve.go
package cli

import (
	"fmt"

	"github.com/law-makers/screengrab/internal/reqctx"
	"github.com/law-makers/screengrab/internal/server"
	"github.com/law-makers/screengrab/internal/ui"
	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <url>",
	Short: "Open an app page and serve a page agent for it over HTTP",
	Long: `Loads the page once and keeps it open behind a page agent. Other processes
drive it with "screengrab scan --agent" or by posting to the HTTP routes:

  GET  /ping      liveness
  GET  /meta      name, logo and source URL
  POST /scrape    run a scan and save the collection
  POST /abort     cancel the running scan
  GET  /storage   store usage
  GET  /progress  latest progress event
  POST /message   raw {"action": ...} message

Only one scan runs at a time; a second /scrape while one is running
is refused.`,
	Example: `  screengrab serve https://example.com/apps/ios/acme-notes --listen=127.0.0.1:7411
  screengrab scan --agent=127.0.0.1:7411`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default 127.0.0.1:7411)")
	serveCmd.Flags().String("settle", "", "Delay after each scroll step (default 500ms)")
	addPageFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	ctx := reqctx.WithRequestContext(cmd.Context())

	opts, err := pageOptions(a, args[0])
	if err != nil {
		return err
	}
	page, closePage, err := a.OpenPage(ctx, opts)
	defer closePage()
	if err != nil {
		return err
	}

	ag, err := a.NewAgent(ctx, page, nil)
	if err != nil {
		return err
	}

	addr := listenAddr
	if addr == "" {
		addr = a.Config.ListenAddr
	}

	fmt.Printf("\n%s %s\n", ui.Bold("Agent for"), page.URL())
	fmt.Printf("  %s %s\n", ui.ColorBold+"Listening:"+ui.ColorReset, ui.ColorWhite+"http://"+addr+ui.ColorReset)
	fmt.Printf("  %s\n\n", ui.ColorDim+"Press Ctrl-C to stop"+ui.ColorReset)

	srv := server.New(ag, server.Options{AllowedOrigins: a.Config.AllowedOrigins})
	return srv.ListenAndServe(cmd.Context(), addr)
}
