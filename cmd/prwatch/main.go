package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/prwatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/prwatch/internal/adapter/driven/jsonstate"
	httphandler "github.com/ericfisherdev/prwatch/internal/adapter/driving/http"
	"github.com/ericfisherdev/prwatch/internal/application"
	"github.com/ericfisherdev/prwatch/internal/config"
	"github.com/ericfisherdev/prwatch/internal/domain/model"
	"github.com/ericfisherdev/prwatch/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Install the console log handler.
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"state_path", cfg.StatePath,
		"interval_seconds", cfg.IntervalSeconds,
	)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Wire adapters and the watch service.
	store := jsonstate.NewStore(cfg.StatePath)
	factory := func(token string) driven.StatusClient {
		return githubadapter.NewClient(token)
	}
	svc := application.NewWatchService(store, factory, func(prs []model.WatchedPR) {
		slog.Debug("watch list updated", "prs", len(prs))
	})

	// 5. Restore persisted state. A stored credential takes priority over the
	// environment token.
	if err := svc.Restore(ctx); err != nil {
		return err
	}
	if !svc.HasCredential() && cfg.GitHubToken != "" {
		svc.SetCredential(ctx, cfg.GitHubToken)
	}

	// 6. Register routes and start the HTTP server.
	handler := httphandler.NewServeMux(httphandler.NewHandler(svc, slog.Default()), slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("prwatch started", "prs", len(svc.Snapshot()))

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Stop monitoring (persists the final snapshot) and drain the server.
	if err := svc.StopMonitoring(context.Background()); err != nil && !errors.Is(err, model.ErrNotMonitoring) {
		slog.Error("error stopping monitor", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
