package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/farmersheaven/backend/app"
	"github.com/farmersheaven/backend/routes"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Address()
			}

			deps, err := app.NewDependencies(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("services not wired: %w", err)
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      routes.SetupRoutes(deps),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", zap.String("addr", addr), zap.Bool("tls", cfg.Server.TLS.Enabled))
				if cfg.Server.TLS.Enabled {
					errCh <- srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
					return
				}
				errCh <- srv.ListenAndServe()
			}()

			var serveErr error
			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					serveErr = fmt.Errorf("http server failed: %w", err)
				}
			case <-cmd.Context().Done():
				logger.Info("shutdown signal received")
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("http server shutdown failed", zap.Error(err))
			}
			if err := deps.Close(ctx); err != nil {
				logger.Error("dependency shutdown failed", zap.Error(err))
			}
			return serveErr
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to SERVER_HOST:PORT")
	return serveCmd
}
