package controllers

import (
	"net/http"

	"github.com/sweetkart/sweetshop-backend/api/responses"
	"github.com/sweetkart/sweetshop-backend/pkg/config"
	"github.com/sweetkart/sweetshop-backend/pkg/db"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/logger"
	"github.com/sweetkart/sweetshop-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sweetshop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when postgres and redis both answer.
func HealthReady(cfg *config.Config, dbPing db.Pinger, redisPing redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sweetshop-Env", cfg.App.Env)

		checks := map[string]string{"database": "ok", "redis": "ok"}
		failed := false
		if dbPing != nil {
			if err := dbPing.Ping(r.Context()); err != nil {
				checks["database"] = "unreachable"
				failed = true
			}
		}
		if redisPing != nil {
			if err := redisPing.Ping(r.Context()); err != nil {
				checks["redis"] = "unreachable"
				failed = true
			}
		}

		if failed {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").
				WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
