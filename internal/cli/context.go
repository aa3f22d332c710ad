package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/ragctx/internal/logger"
)

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Print the grounding context block for a query",
	Long: `Print the grounding context block a chat turn would receive for the query.
Retrieval failures are logged to stderr and the no-context marker is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is required")
		}

		a, logger, err := openApp(cmd.Context(), logpkg.EnvCLI)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer a.Close()

		gc := a.Context.Build(cmd.Context(), query)
		fmt.Fprint(cmd.OutOrStdout(), gc.Block)
		if sources := gc.Sources(); len(sources) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", dimText("sources:"), titleText(strings.Join(sources, "; ")))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
}
