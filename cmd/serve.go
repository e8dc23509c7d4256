package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/measurer/internal/evalcmd"
	"github.com/lehigh-university-libraries/measurer/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var settings evalcmd.Settings

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the measurement extraction API",
		Long: `Starts an HTTP API on the specified port.

  POST /api/predict   {"image_link": "...", "entity_name": "..."} or a
                      multipart upload with "file" and "entity_name"
  POST /api/extract   {"text": "...", "entity_name": "..."}
  GET  /api/entities  entities and their units
  GET  /healthcheck`,
		Example: `  # Start server on default port 8888
  measurer serve

  # Start server on custom port with a vision model
  measurer serve --port 3000 --engine ollama`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := evalcmd.LoadConfig(cmd, &settings)
			if err != nil {
				return err
			}
			components, err := evalcmd.Build(cfg, settings.Mode)
			if err != nil {
				return err
			}

			api, err := components.WithDownloadDir(filepath.Join(cfg.DownloadDir, "api"), cfg.FetchTimeout)
			if err != nil {
				return err
			}

			handler := handlers.New(
				api.Predictor,
				api.OCR,
				api.Extractor,
				filepath.Join(cfg.DownloadDir, "uploads"),
			)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Measurer API available", "addr", addr, "url", "http://localhost"+addr, "engine", components.Engine.Name())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	settings.AddFlags(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
