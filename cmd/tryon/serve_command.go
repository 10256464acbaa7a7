package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhpenta/tryon/internal/logging"
	"github.com/mhpenta/tryon/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the try-on HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Server.AllowClientKeys {
				if err := cfg.RequireAPIKey(); err != nil {
					return err
				}
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}

			a, err := buildApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			e := server.New(server.Options{
				Generator:       a.engine,
				APIKey:          cfg.Gemini.APIKey,
				AllowClientKeys: cfg.Server.AllowClientKeys,
				MaxUploadMB:     cfg.Server.MaxUploadMB,
				Metrics:         a.metrics.Handler(),
				Logger:          logging.NewComponentLogger(a.logger, "http"),
			})

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", "bind", bind, "config", ctx.configPath)
				errCh <- e.Start(bind)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-cmd.Context().Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to server.bind)")
	return cmd
}
