// internal/cli/serve.go
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/scrapejob/internal/config"
	"github.com/law-makers/scrapejob/internal/devserver"
	"github.com/law-makers/scrapejob/internal/ui"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local development backend",
	Long: `Runs a reference scraping backend on the local machine. It accepts the same job
requests as the production backend, fetches the page and returns one record per
element matching the root selector.

Point submit or edit at it with --backend http://localhost:3000/scrap/ (the default).`,
	Example: `  # Serve on the default address
  scrapejob serve

  # Serve on another port and allow a browser form on localhost:5173
  scrapejob serve --addr :8080 --allow-origin http://localhost:5173`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", config.DefaultServeAddr, "Address to listen on")
	serveCmd.Flags().StringSlice("allow-origin", nil, "Origin allowed to call the backend from a browser (repeatable, default any)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application is not initialized")
	}

	cfg := a.Config
	log.Debug().
		Str("addr", cfg.ServeAddr).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("proxies", a.Proxies.Size()).
		Msg("Starting development backend")
	fmt.Fprintf(cmd.ErrOrStderr(), "%s listening on %s (POST %s)\n",
		ui.Success("✓"), cfg.ServeAddr, devserver.SubmitPath)

	return devserver.Run(cmd.Context(), cfg.ServeAddr, devserver.NewRouter(a.Engine, cfg.AllowedOrigins))
}
