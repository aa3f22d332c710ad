package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/app"
	logpkg "github.com/kailas-cloud/ragctx/internal/logger"
	chiTransport "github.com/kailas-cloud/ragctx/internal/transport/chi"
	"github.com/kailas-cloud/ragctx/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		logger.Info("Starting ragctx API server",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("env", envName),
			zap.Int("http_port", cfg.HTTP.Port),
			zap.String("store_driver", cfg.Store.Driver),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		// Pass a nil interface, not a typed nil pointer, when chat is off.
		var responder chiTransport.Responder
		if a.Chat != nil {
			responder = a.Chat
		} else {
			logger.Warn("No generation API key configured, /v1/chat disabled")
		}

		server := chiTransport.NewServer(a.Search, a.Context, responder, a.Catalog, a.Health)
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		srv := &http.Server{
			Addr:         addr,
			Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
			ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}

		logger.Info("Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
