package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/KaramelBytes/edareport/internal/server"
	"github.com/spf13/cobra"
)

var (
	srvAddr    string
	srvMaxRuns int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive report over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := c.ServerAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		maxRuns := c.MaxRuns
		if srvMaxRuns > 0 {
			maxRuns = srvMaxRuns
		}
		s := server.New(server.Config{
			Options: pipeline.FromConfig(c),
			Logger:  logger,
			MaxRuns: maxRuns,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (Ctrl+C to stop)\n", addr)
		return s.ListenAndServe(commandContext(cmd), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config server_addr)")
	serveCmd.Flags().IntVar(&srvMaxRuns, "max-runs", 0, "runs kept in memory (default from config max_runs)")
}
