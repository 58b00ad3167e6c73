// Package cli provides the command-line interface for the scrapejob application.
package cli

import (
	"context"

	"github.com/law-makers/scrapejob/internal/app"
	"github.com/spf13/cobra"
)

// ctxKey is used for storing app context in cobra commands
type ctxKey string

const appKey ctxKey = "app"

// SetApp stores the Application in the command's context
func SetApp(cmd *cobra.Command, a *app.Application) {
	globalApp = a
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey, a))
}

// GetAppFromCmd retrieves the Application stored by SetApp, falling back to the process-wide one
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	if cmd != nil && cmd.Context() != nil {
		if a, ok := cmd.Context().Value(appKey).(*app.Application); ok && a != nil {
			return a
		}
	}
	return globalApp
}

var globalApp *app.Application
