package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/handlers"
	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
	"github.com/ajuraforce/photo-product-analyzer/internal/pipeline"
	"github.com/ajuraforce/photo-product-analyzer/internal/publish"
	"github.com/ajuraforce/photo-product-analyzer/internal/validate"
	"github.com/ajuraforce/photo-product-analyzer/internal/vision"
	"github.com/ajuraforce/photo-product-analyzer/internal/vocab"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the photo intake server",
		Long: `Starts the photo intake server on the specified port.

Photos posted to /api/products run through the full pipeline and the
outcome is returned in the response. Published photos are served
under /uploads/ so the vision provider can fetch them.`,
		Example: `  # Start server on default port 8888
  photocatalog serve

  # Start server on custom port
  photocatalog serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			types := vocab.New("productType", cfg.ProductTypes)
			colors := vocab.New("color", cfg.Colors)

			extractor, err := vision.NewClient(cfg.Provider, cfg.Model, cfg.ExtractTimeout, types, colors)
			if err != nil {
				return fmt.Errorf("unable to build vision client: %w", err)
			}

			writer, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("unable to open catalog store: %w", err)
			}

			orchestrator := pipeline.New(
				validate.Limits{
					MaxBytes:     cfg.MaxImageBytes,
					Formats:      cfg.Formats,
					MinDimension: cfg.MinDimension,
					MaxDimension: cfg.MaxDimension,
				},
				publish.New(cfg.UploadDir, cfg.DomainURL),
				extractor,
				normalize.New(types, colors),
				writer,
				nil,
			)

			handler := handlers.New(orchestrator, cfg.UploadDir, cfg.MaxImageBytes)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/products", handler.HandleSubmit)
			mux.HandleFunc("/uploads/", handler.HandleUploads)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Photocatalog intake available",
					"addr", addr,
					"provider", cfg.Provider,
					"store", cfg.StoreBackend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")

	return cmd
}
