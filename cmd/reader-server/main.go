package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dreschagin/reader-server/internal/alias"
	"github.com/dreschagin/reader-server/internal/metrics"
	"github.com/dreschagin/reader-server/internal/ratelimit"
	"github.com/dreschagin/reader-server/internal/server"
	"github.com/dreschagin/reader-server/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	// Roots and the alias map are fixed before the listener exists.
	mounts, aliases, err := server.OpenMounts(server.MountConfig{
		WorkRoot:  cfg.Assets.WorkRoot,
		IndexFile: cfg.Assets.IndexFile,
		JSDir:     cfg.Assets.JSDir,
		CSSDir:    cfg.Assets.CSSDir,
		EPUBDir:   cfg.Assets.EPUBDir,
		Alias: alias.Rule{
			Name:    cfg.Assets.DefaultAlias,
			Fixed:   cfg.Assets.DefaultFile,
			Pattern: cfg.Assets.DefaultGlob,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to open asset roots", "error", err)
		os.Exit(1)
	}
	defer mounts.Close()

	if aliases != nil {
		for _, entry := range aliases.Entries() {
			logger.Info("alias resolved",
				"alias", entry.Name,
				"target", entry.Target,
				"strategy", string(entry.Strategy),
			)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	handler := server.NewRouter(server.RouterConfig{
		Mounts:      mounts,
		Logger:      logger,
		Metrics:     m,
		Gatherer:    registry,
		Limiter:     limiter,
		Compression: cfg.Compression,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("reader server started",
			"port", cfg.ServerPort,
			"work_root", cfg.Assets.WorkRoot,
			"epub_dir", cfg.Assets.EPUBDir,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("reader server failed", "error", err)
			mounts.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown reader server", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler)
}
