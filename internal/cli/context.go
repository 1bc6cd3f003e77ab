// Package cli provides the command-line interface for screengrab.
package cli

import (
	"sync"

	"github.com/law-makers/screengrab/internal/app"
	"github.com/spf13/cobra"
)

var (
	appMu     sync.Mutex
	globalApp *app.Application
)

// SetApp records the Application for the running command
func SetApp(cmd *cobra.Command, a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	globalApp = a
}

// GetAppFromCmd returns the Application initialized for cmd, or nil
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	appMu.Lock()
	defer appMu.Unlock()
	return globalApp
}
