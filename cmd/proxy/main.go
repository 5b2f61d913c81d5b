package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/config"
	"github.com/repoeli/dinner-hoting-app/internal/logging"
	"github.com/repoeli/dinner-hoting-app/internal/proxy"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadProxy()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           proxy.Router(cfg.Target, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Report whether the target answers; the proxy starts either way.
	go func() {
		proxy.Check(context.Background(), cfg.Target, logger)
	}()

	go func() {
		slog.Info("proxy starting", "addr", ":"+cfg.Port, "target", cfg.Target.String(), "prefix", proxy.Prefix)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
