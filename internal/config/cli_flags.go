package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (default ~/.scrapejob/config.yaml)")
	cmd.PersistentFlags().String("backend", "", "Scraping backend submission endpoint (default "+DefaultBackendURL+")")
	cmd.PersistentFlags().String("timeout", "", "Timeout for each backend request (e.g. 30s)")
	cmd.PersistentFlags().String("user-agent", "", "User agent sent to the backend and by the development backend")
	cmd.PersistentFlags().StringSlice("proxy", nil, "Proxy for the development backend's page fetches (repeatable)")
	cmd.PersistentFlags().Int("concurrency", DefaultConcurrency, "Parallel submissions for batches (0 = auto)")
}
