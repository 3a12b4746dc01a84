package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/castellan-io/backoffice/api/responses"
	"github.com/castellan-io/backoffice/pkg/config"
	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
	"github.com/castellan-io/backoffice/pkg/logger"
)

const readyProbeTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness by pinging the datastore dependencies.
// A nil probe is skipped so optional dependencies do not fail the check.
func HealthReady(cfg *config.Config, logg *logger.Logger, probes map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]string{}
		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe.Ping(ctx); err != nil {
				checks[name] = "down"
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"checks": checks})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// ReadyProbes assembles the named probe set for the ready endpoint.
func ReadyProbes(dbClient, redisClient, gcsClient Pinger) map[string]Pinger {
	probes := map[string]Pinger{}
	if dbClient != nil {
		probes["postgres"] = dbClient
	}
	if redisClient != nil {
		probes["redis"] = redisClient
	}
	if gcsClient != nil {
		probes["gcs"] = gcsClient
	}
	return probes
}
