package controllers

import (
	"context"
	"net/http"

	"github.com/threepillars/storefront-backend/api/responses"
	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/logger"
)

// Pinger is the health probe the stateful dependencies expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports liveness plus the state of the two stateful dependencies.
func Healthz(cfg *config.Config, dbP, redisP Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"db": "ok", "redis": "ok"}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["db"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "health.db", err)
				}
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "health.redis", err)
				}
			}
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}
