package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/echo-journal/echo-backend/api/responses"
	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/logger"
)

// Pinger is the health-check surface every readiness dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status":  "ok",
			"service": cfg.App.Name,
		})
	}
}

// HealthReady checks every dependency the API needs to serve traffic.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, storageP Pinger) http.HandlerFunc {
	deps := map[string]Pinger{
		"database": dbP,
		"redis":    redisP,
		"storage":  storageP,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+name, err)
				}
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		overall := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}

// Version reports the running build.
func Version(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"name":    cfg.App.Name,
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
		})
	}
}
