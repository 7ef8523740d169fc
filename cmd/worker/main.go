package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echo-journal/echo-backend/internal/airuns"
	"github.com/echo-journal/echo-backend/internal/aiworker"
	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/db"
	"github.com/echo-journal/echo-backend/pkg/logger"
	"github.com/echo-journal/echo-backend/pkg/metrics"
	"github.com/echo-journal/echo-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ai-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "ai-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	store, err := local.New(cfg.Storage.DataDir)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare storage", err)
		os.Exit(1)
	}

	pipeline, err := aiworker.NewOpenAIPipeline(cfg.AI)
	if err != nil {
		logg.Error(context.Background(), "failed to build pipeline", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	runMetrics := metrics.NewRunMetrics(registry)

	worker, err := aiworker.NewWorker(
		airuns.NewRepository(dbClient.DB()),
		store,
		pipeline,
		logg,
		runMetrics,
		cfg.Worker,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go serveMetrics(ctx, logg, registry, cfg.Worker.MetricsPort)

	if err := worker.Start(ctx); err != nil && err != context.Canceled {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func serveMetrics(ctx context.Context, logg *logger.Logger, registry *prometheus.Registry, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	logg.Info(ctx, "metrics server listening on :"+port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
