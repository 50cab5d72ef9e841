package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/af-corp/campaign-relay/internal/config"
	"github.com/af-corp/campaign-relay/internal/gateway"
	"github.com/af-corp/campaign-relay/internal/telemetry"
	"github.com/af-corp/campaign-relay/internal/upstream"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	cfg := loader.Config()

	logger = telemetry.NewLogger(cfg.Telemetry, os.Stdout)
	slog.SetDefault(logger)

	if cfg.Upstream.BaseURL == "" {
		logger.Warn("API_BASE_URL is not set, relay requests will fail with CONFIGURATION_ERROR")
	}
	if cfg.Upstream.InsecureSkipVerify {
		logger.Warn("upstream TLS certificate verification is disabled")
	}

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.Telemetry, version)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	client := upstream.NewClient(loader.Upstream, metrics)
	loader.OnReload(client.Rebuild)

	handler := gateway.NewHandler(client, metrics, func() bool {
		return loader.Config().Telemetry.DebugErrors
	})

	r := gateway.NewRouter(handler, gateway.RouterOptions{
		Version:      version,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Metrics:      metrics,
		Gatherer:     prometheus.DefaultGatherer,
	})

	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}
	logger.Info("relay stopped")
}
