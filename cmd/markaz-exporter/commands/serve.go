package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maltedev/markaz-exporter/internal/api"
	"github.com/maltedev/markaz-exporter/internal/batch"
	"github.com/maltedev/markaz-exporter/internal/expand"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scrape and export HTTP API",
	Long: `Start an HTTP server exposing single-product scraping, an in-memory
product list and CSV/JSON/YAML export of that list.

Routes:
  GET    /health
  GET    /api/v1/scrape?url=...
  POST   /api/v1/scrape              {"url": "..."}
  GET    /api/v1/products
  POST   /api/v1/products            {"url": "...", "variant_price_adjustment": 0, "compare_at_price_adjustment": 0}
  DELETE /api/v1/products
  DELETE /api/v1/products/{index}
  GET    /api/v1/export?format=csv|json|yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.Int("port", 0, "listen port (default from config)")
	flags.String("vendor", "", "vendor written on every product (default from config)")
	flags.Bool("tiered-markup", false, "add 500 below 2000 and 1000 from 2000 on top of the variant adjustment")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	renderer, err := newRenderer(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	defer renderer.Close()

	p, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	var publisher api.Publisher
	if p != nil {
		defer p.Close()
		publisher = p
	}

	handlers := api.NewHandlers(
		newScraper(cfg, renderer, log),
		batch.New(expand.New(cfg.Export)),
		publisher,
		log,
	)

	server := &http.Server{
		Addr: net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler: api.NewRouter(handlers, api.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.WriteTimeout,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("server starting", "addr", server.Addr, "engine", cfg.Browser.Engine, "events", cfg.Redis.Enabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}
