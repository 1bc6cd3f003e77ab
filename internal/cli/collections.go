// internal/cli/collections.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/law-makers/screengrab/internal/store"
	"github.com/law-makers/screengrab/internal/ui"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/spf13/cobra"
)

var assumeYes bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved collections",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a collection and its screens",
	Long:  `Shows one collection. The argument may be a collection id or an app name.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every collection",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Show store usage against the quota",
	Args:  cobra.NoArgs,
	RunE:  runStorage,
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd, deleteCmd, clearCmd, storageCmd)

	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	clearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := GetAppFromCmd(cmd).Store(cmd.Context())
	if err != nil {
		return err
	}
	collections, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(collections) == 0 {
		fmt.Println("\nNo collections yet.")
		fmt.Println("\nCreate one with:")
		fmt.Println("  screengrab scan <url>")
		fmt.Println()
		return nil
	}

	fmt.Printf("\n%s\n", ui.Bold(fmt.Sprintf("Collections (%d)", len(collections))))
	fmt.Println(ui.ColorDim + strings.Repeat("━", 50) + ui.ColorReset)
	for i, c := range collections {
		fmt.Printf("%2d. %s %s\n", i+1, ui.Bold(unescape(c.Name)), ui.ColorDim+"("+c.ID+")"+ui.ColorReset)
		fmt.Printf("    %d screens, updated %s\n", c.ScreenCount, formatDate(c.DateUpdated))
	}
	fmt.Println()
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := GetAppFromCmd(cmd).Store(cmd.Context())
	if err != nil {
		return err
	}
	c, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return notFound(err, args[0])
	}

	fmt.Printf("\n%s\n", ui.Bold(unescape(c.Name)))
	fmt.Println(ui.ColorDim + strings.Repeat("━", 50) + ui.ColorReset)
	fmt.Printf("ID:       %s\n", c.ID)
	fmt.Printf("Source:   %s\n", c.SourceURL)
	fmt.Printf("Logo:     %s\n", c.LogoURL)
	fmt.Printf("Added:    %s\n", formatDate(c.DateAdded))
	fmt.Printf("Updated:  %s\n", formatDate(c.DateUpdated))
	fmt.Printf("\nScreens (%d):\n", c.ScreenCount)
	for i, s := range c.Screens {
		fmt.Printf("  %3d. %s\n", i+1, s)
	}
	fmt.Println()
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !confirm(fmt.Sprintf("Delete collection '%s'?", args[0])) {
		fmt.Println("Cancelled.")
		return nil
	}
	st, err := GetAppFromCmd(cmd).Store(cmd.Context())
	if err != nil {
		return err
	}
	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return notFound(err, args[0])
	}
	fmt.Printf("\n%s\n\n", ui.Success(fmt.Sprintf("✓ Collection '%s' deleted.", args[0])))
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !confirm("Delete ALL collections?") {
		fmt.Println("Cancelled.")
		return nil
	}
	st, err := GetAppFromCmd(cmd).Store(cmd.Context())
	if err != nil {
		return err
	}
	if err := st.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("\n%s\n\n", ui.Success("✓ All collections deleted."))
	return nil
}

func runStorage(cmd *cobra.Command, args []string) error {
	st, err := GetAppFromCmd(cmd).Store(cmd.Context())
	if err != nil {
		return err
	}
	usage, err := st.Usage(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("\n%s %s\n", ui.Bold("Store:"), st.Backend().Name())
	fmt.Printf("%s %s of %s (%.1f%%)\n", ui.Bold("Used: "), formatBytes(usage.BytesInUse), formatBytes(usage.QuotaBytes), usage.PercentUsed)
	if usage.NearLimit {
		fmt.Println(ui.Info("Storage is nearly full; delete old collections to make room."))
	}
	fmt.Println()
	return nil
}

func confirm(question string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("\n%s [y/N]: ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}

func notFound(err error, id string) error {
	if errors.Is(err, store.ErrCollectionNotFound) {
		return fmt.Errorf("no collection with id or name %q", id)
	}
	return err
}

// collectionID is the id a scan of meta will be saved under
func collectionID(meta models.ScreenCollectionMeta) string {
	return store.CollectionID(meta.SourceURL, meta.Name)
}

// unescape reverses the HTML escaping applied to stored names
func unescape(s string) string {
	return html.UnescapeString(s)
}

func formatDate(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
