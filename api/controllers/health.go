package controllers

import (
	"net/http"

	"github.com/jmamani/cooperativa-backend/api/responses"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	"github.com/jmamani/cooperativa-backend/pkg/db"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Coop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, pinger db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Coop-Env", cfg.App.Env)
		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
