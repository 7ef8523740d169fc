package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/echo-journal/echo-backend/api/routes"
	"github.com/echo-journal/echo-backend/internal/airuns"
	"github.com/echo-journal/echo-backend/internal/entries"
	"github.com/echo-journal/echo-backend/internal/questions"
	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/db"
	"github.com/echo-journal/echo-backend/pkg/logger"
	"github.com/echo-journal/echo-backend/pkg/migrate"
	"github.com/echo-journal/echo-backend/pkg/redis"
	"github.com/echo-journal/echo-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := local.New(cfg.Storage.DataDir)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare storage", err)
		os.Exit(1)
	}

	questionRepo := questions.NewRepository(dbClient.DB())
	questionService, err := questions.NewService(questionRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create question service", err)
		os.Exit(1)
	}

	entryService, err := entries.NewService(
		entries.NewRepository(dbClient.DB()),
		questionRepo,
		store,
		cfg.Storage.MaxUploadBytes(),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create entry service", err)
		os.Exit(1)
	}

	runService, err := airuns.NewService(
		dbClient,
		airuns.NewRepository(dbClient.DB()),
		store,
		cfg.AI.PipelineVersion,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create run service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, store, questionService, entryService, runService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
