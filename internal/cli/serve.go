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

	logpkg "github.com/kailas-cloud/tiles/internal/logger"
	"github.com/kailas-cloud/tiles/internal/metrics"
	chiTransport "github.com/kailas-cloud/tiles/internal/transport/chi"
	"github.com/kailas-cloud/tiles/internal/version"
)

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tile HTTP server",
		Long: `Start the HTTP server rendering tiles and managing their data.

The environment selects config/<env>.yaml; ${VAR:-default} references
in the file are expanded from the process environment.

Examples:
  tiled serve
  tiled serve --env prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := envFlag(cmd)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("Starting tiles server",
				zap.String("version", version.Version),
				zap.String("commit", version.Commit),
				zap.String("env", env),
				zap.Int("http_port", cfg.HTTP.Port),
				zap.String("db_driver", cfg.Database.Driver),
				zap.Strings("db_addrs", cfg.Database.Addrs),
				zap.Int("tile_types", len(cfg.Tiles)),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			logger.Info("Connected to database")

			metrics.RegisterTileMetrics()

			server := chiTransport.NewServer(a.types, a.data, a.urls, a.health,
				chiTransport.NewTemplateRenderer(a.types),
				chiTransport.Options{
					BaseURL:    cfg.Site.BaseURL,
					ESIEnabled: cfg.ESI.Enabled,
					APIKeys:    cfg.Auth.APIKeys,
				}, logger)

			addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      server.Router(),
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
}
