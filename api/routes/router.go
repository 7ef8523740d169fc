package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echo-journal/echo-backend/api/controllers"
	"github.com/echo-journal/echo-backend/api/middleware"
	"github.com/echo-journal/echo-backend/internal/airuns"
	"github.com/echo-journal/echo-backend/internal/entries"
	"github.com/echo-journal/echo-backend/internal/questions"
	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/db"
	"github.com/echo-journal/echo-backend/pkg/logger"
	"github.com/echo-journal/echo-backend/pkg/redis"
	"github.com/echo-journal/echo-backend/pkg/storage/local"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	store *local.Store,
	questionService questions.Service,
	entryService entries.Service,
	runService airuns.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var idemStore redis.IdempotencyStore
	var redisPinger controllers.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger, store))
	})
	r.Get("/version", controllers.Version(cfg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/questions/today", controllers.QuestionToday(questionService, logg))

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", controllers.EntryCreate(entryService, logg, cfg.Storage.MaxUploadBytes()))
			r.Get("/", controllers.EntryList(entryService, logg))
			r.Route("/{entryID}", func(r chi.Router) {
				r.Get("/", controllers.EntryDetail(entryService, logg))
				r.Get("/audio", controllers.EntryAudio(entryService, logg))
				r.Delete("/", controllers.EntryDelete(entryService, logg))
				r.Post("/ai/process", controllers.EntryProcess(runService, logg))
				r.Get("/ai", controllers.EntryAIStatus(runService, logg))
			})
		})

		r.Get("/ai/runs/{runID}", controllers.RunDetail(runService, logg))
	})

	return r
}
