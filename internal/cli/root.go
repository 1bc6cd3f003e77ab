// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/law-makers/screengrab/internal/app"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screengrab",
	Short: "Collect app screen galleries from design-reference sites",
	Long: `Screengrab scrolls an app page on a design-reference site, collects every
screen image in order and keeps them as named collections you can list,
download and export.

Pages are driven with headless Chrome by default; --mode=static fetches
server-rendered pages over plain HTTP.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. The application is initialized lazily in
// PersistentPreRunE so -h and --version never start anything.
// Ctrl-C cancels the command context; a running scan sends abort on it.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
		defer cancel()
		_ = a.Close(ctx)
		SetApp(cmd, nil)
	}

	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for Screengrab")
	rootCmd.Flags().Bool("version", false, "Version for Screengrab")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}

// printError prints err with its code when it carries one
func printError(w io.Writer, err error) {
	if code := engine.CodeOf(err); code != "" {
		fmt.Fprintf(w, "%s %s\n", ui.Error("✗ "+engine.MessageOf(err)), ui.ColorDim+"("+string(code)+")"+ui.ColorReset)
		return
	}
	fmt.Fprintln(w, ui.Error("✗ "+err.Error()))
}
