package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Maclenn77/ticha/api"
	"github.com/Maclenn77/ticha/cache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scraper as an HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}

		slog.Info("ticha-scraper serving",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode,
			"engine", cfg.Scrape.Engine,
		)

		// ── 1. Result cache ─────────────────────────────────────────────
		cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.DefaultMaxAge)

		// ── 2. Router ───────────────────────────────────────────────────
		router := api.NewRouter(cfg, cc, version, time.Now())

		// ── 3. HTTP server ──────────────────────────────────────────────
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		// ── 4. Graceful shutdown ────────────────────────────────────────
		select {
		case err := <-errCh:
			return reportError(fmt.Errorf("HTTP server error: %w", err))
		case <-ctx.Done():
		}
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}
		slog.Info("ticha-scraper stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
