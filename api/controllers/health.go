package controllers

import (
	"net/http"

	"github.com/angelmondragon/loyaltyhub-backend/api/responses"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/config"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/loyaltyhub-backend/pkg/errors"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/logger"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LoyaltyHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LoyaltyHub-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
