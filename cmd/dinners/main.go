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
	"github.com/repoeli/dinner-hoting-app/internal/imagesearch"
	"github.com/repoeli/dinner-hoting-app/internal/logging"
	"github.com/repoeli/dinner-hoting-app/internal/metrics"
	"github.com/repoeli/dinner-hoting-app/internal/server"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWeb()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	srv, err := server.New(server.Config{
		Candidates:     cfg.Candidates,
		RequestTimeout: cfg.RequestTimeout,
		OwnFirstDinner: cfg.OwnFirstDinner,
		DatastoreURL:   cfg.DatastoreURL,
		Images:         imagesearch.Config{AccessKey: cfg.UnsplashKey},
	}, metrics.New(), logger)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	// Resolve the data source up front so the first page is fast.
	go func() {
		ctx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
		defer cancel()
		st := srv.Session().Load(ctx)
		slog.Info("initial load", "source", st.Source.String(), "baseUrl", st.BaseURL, "owned", len(st.Owned), "discoverable", len(st.Discoverable))
	}()

	go func() {
		slog.Info("dinners app starting", "addr", ":"+cfg.Port, "candidates", len(cfg.Candidates))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
