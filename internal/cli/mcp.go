package cli

import (
	"os"

	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/ragctx/internal/logger"
	mcpTransport "github.com/kailas-cloud/ragctx/internal/transport/mcp"
	"github.com/kailas-cloud/ragctx/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve search, context and catalog tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// stdout carries protocol frames only; the cli logger writes to stderr.
		a, logger, err := openApp(cmd.Context(), logpkg.EnvCLI)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		srv := mcpTransport.NewServer(version.Version, a.Search, a.Context, a.Catalog, logger)
		return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
