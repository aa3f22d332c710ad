// Package cli implements the ragctx command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/app"
	"github.com/kailas-cloud/ragctx/internal/config"
	logpkg "github.com/kailas-cloud/ragctx/internal/logger"
)

var (
	envName  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "ragctx",
	Short:         "ragctx retrieves, ranks and quotes passages to ground LLM answers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", config.GetEnv(),
		"config environment, reads config/<env>.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log level (debug, info, warn, error)")
}

// loadConfig reads the selected environment's config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envName)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return &cfg, nil
}

// openApp loads config and wires the services. One-shot commands log to
// stderr at warn unless --log-level says otherwise, so stdout stays clean.
func openApp(ctx context.Context, loggerEnv string) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logpkg.NewLogger(loggerEnv, logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}
