// internal/cli/sessions.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/screengrab/internal/auth"
	"github.com/law-makers/screengrab/internal/ui"
	"github.com/spf13/cobra"
)

var (
	importURL    string
	importFormat string
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved login sessions",
	Long: `List, view, import and delete saved login sessions.

Sessions are stored in your OS keyring when one is available and contain
the cookies and headers replayed when a scan uses --session.`,
	Example: `  # List all saved sessions
  screengrab sessions list

  # View details of a specific session
  screengrab sessions view design

  # Import cookies exported from your browser
  screengrab sessions import design cookies.txt --url=https://example.com

  # Delete a session
  screengrab sessions delete old-session`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	RunE:  runSessionsList,
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-name>",
	Short: "View details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsView,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsImportCmd = &cobra.Command{
	Use:   "import <session-name> <cookie-file>",
	Short: "Create a session from an exported cookie file",
	Long: `Creates a session from cookies exported by a browser extension, either a
JSON array or the Netscape cookies.txt format used by curl. The format is
taken from the file extension unless --format is set.`,
	Args: cobra.ExactArgs(2),
	RunE: runSessionsImport,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsImportCmd)

	sessionsDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	sessionsImportCmd.Flags().StringVar(&importURL, "url", "", "Site the cookies belong to")
	sessionsImportCmd.Flags().StringVar(&importFormat, "format", "", "Cookie file format: json or netscape")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	sessions := GetAppFromCmd(cmd).Sessions
	names, err := sessions.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("\nNo saved sessions found.")
		fmt.Println("\nCreate a session with:")
		fmt.Println("  screengrab login <url> --session=<name>")
		fmt.Println()
		return nil
	}

	fmt.Printf("\n📋 Saved Sessions (%d)\n", len(names))
	fmt.Println(ui.ColorDim + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━" + ui.ColorReset)
	fmt.Println()

	for i, name := range names {
		fmt.Printf("%d. %s\n", i+1, name)

		session, err := sessions.Load(name)
		if err != nil {
			fmt.Printf("   ⚠️  %v\n", err)
			continue
		}

		fmt.Printf("   URL: %s\n", session.URL)
		fmt.Printf("   Cookies: %d\n", len(session.Cookies))
		fmt.Printf("   Created: %s\n", session.CreatedAt.Format(time.RFC1123))
		if !session.ExpiresAt.IsZero() {
			fmt.Printf("   Expires: %s (in %s)\n",
				session.ExpiresAt.Format(time.RFC1123),
				time.Until(session.ExpiresAt).Round(time.Hour))
		}

		if i < len(names)-1 {
			fmt.Println()
		}
	}

	fmt.Println()
	return nil
}

func runSessionsView(cmd *cobra.Command, args []string) error {
	name := args[0]

	session, err := GetAppFromCmd(cmd).Sessions.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", name, err)
	}

	fmt.Printf("\n🔍 Session Details: %s\n", name)
	fmt.Println(ui.ColorDim + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━" + ui.ColorReset)
	fmt.Println()

	fmt.Printf("Name:     %s\n", session.Name)
	fmt.Printf("URL:      %s\n", session.URL)
	fmt.Printf("Created:  %s\n", session.CreatedAt.Format(time.RFC1123))
	if !session.ExpiresAt.IsZero() {
		fmt.Printf("Expires:  %s\n", session.ExpiresAt.Format(time.RFC1123))
	}

	fmt.Printf("\nCookies (%d):\n", len(session.Cookies))
	for i, cookie := range session.Cookies {
		if i >= 5 {
			fmt.Printf("  ... and %d more\n", len(session.Cookies)-5)
			break
		}
		fmt.Printf("  • %s (domain: %s)\n", cookie.Name, cookie.Domain)
	}

	if len(session.Headers) > 0 {
		fmt.Printf("\nCustom Headers (%d):\n", len(session.Headers))
		for key, value := range session.Headers {
			fmt.Printf("  • %s: %s\n", key, value)
		}
	}

	fmt.Println()
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if !confirm(fmt.Sprintf("⚠️  Delete session '%s'?", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := GetAppFromCmd(cmd).Sessions.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Printf("\n%s\n\n", ui.Success(fmt.Sprintf("✓ Session '%s' deleted successfully.", name)))
	return nil
}

func runSessionsImport(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	format := auth.ImportFormat(strings.ToLower(importFormat))
	if format == "" {
		format = auth.FormatNetscape
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = auth.FormatJSON
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	cookies, err := auth.ImportCookies(f, format)
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}

	session := auth.NewImportedSession(name, importURL, cookies, time.Now())
	sessions := GetAppFromCmd(cmd).Sessions
	if err := sessions.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("\n%s\n", ui.Success(fmt.Sprintf("✓ Imported %d cookies into session '%s'.", len(cookies), name)))
	fmt.Printf("  %s %s\n\n", ui.ColorBold+"Stored in:"+ui.ColorReset, sessions.Backend())
	return nil
}
