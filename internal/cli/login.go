// internal/cli/login.go
package cli

import (
	"fmt"
	"time"

	"github.com/law-makers/screengrab/internal/auth"
	"github.com/law-makers/screengrab/internal/ui"
	headersutil "github.com/law-makers/screengrab/internal/utils/headers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	waitSelector string
	loginTimeout string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <url>",
	Short: "Log in to a gallery site in a browser window and save the session",
	Long: `Opens a visible browser window for you to log in to a design-reference site.
After a successful login the cookies are stored in your OS keyring (or in
~/.screengrab/sessions when no keyring is available).

Pass the session to scan or meta with --session to see pages that need an
account. Without a display, export cookies from your browser and use
"screengrab sessions import" instead.`,
	Example: `  # Log in and wait for an element only visible when signed in
  screengrab login https://example.com/login --session=design --wait="#account-menu"

  # Confirm with Enter once logged in
  screengrab login https://example.com/login --session=design

  # Use the saved session
  screengrab scan https://example.com/apps/ios/acme-notes --session=design`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&sessionName, "session", "s", "", "Session name to save (required)")
	loginCmd.Flags().StringVarP(&waitSelector, "wait", "w", "", "CSS selector to wait for after login (e.g., '#dashboard')")
	loginCmd.Flags().StringVar(&loginTimeout, "login-timeout", "5m", "Timeout for login process")
	loginCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Headers stored with the session and sent on every scan")
	loginCmd.MarkFlagRequired("session")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	url := args[0]

	timeout, err := time.ParseDuration(loginTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	headerMap, err := headersutil.Parse(headers)
	if err != nil {
		return err
	}

	log.Info().
		Str("url", url).
		Str("session", sessionName).
		Msg("Initiating login")

	fmt.Printf("\n%s\n", ui.Bold("🔐 Interactive Login"))
	fmt.Printf("%s\n\n", ui.ColorDim+"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"+ui.ColorReset)
	fmt.Printf("  %s %s\n", ui.ColorBold+"Session:"+ui.ColorReset, ui.ColorWhite+sessionName+ui.ColorReset)
	fmt.Printf("  %s %s\n", ui.ColorBold+"URL:"+ui.ColorReset, ui.ColorWhite+url+ui.ColorReset)
	if waitSelector != "" {
		fmt.Printf("  %s %s\n", ui.ColorBold+"Waiting:"+ui.ColorReset, ui.ColorWhite+waitSelector+ui.ColorReset)
	}
	fmt.Printf("  %s %s\n\n", ui.ColorBold+"Timeout:"+ui.ColorReset, ui.ColorWhite+timeout.String()+ui.ColorReset)

	opts := a.LoginOptions(sessionName, url)
	opts.WaitSelector = waitSelector
	opts.Timeout = timeout
	opts.Headers = headerMap

	session, err := auth.InteractiveLogin(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	log.Info().Str("backend", a.Sessions.Backend()).Msg("Saving session")
	if err := a.Sessions.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Println(ui.Success("\n✓ Session saved successfully!"))
	fmt.Printf("\n%s\n", ui.Bold("You can now use this session with:"))
	fmt.Printf("  %s %s\n\n", ui.ColorCyan+"screengrab scan <url> --session="+ui.ColorReset, ui.ColorWhite+sessionName+ui.ColorReset)

	if !session.ExpiresAt.IsZero() {
		fmt.Printf("Session expires: %s\n\n", session.ExpiresAt.Format(time.RFC1123))
	}

	return nil
}
