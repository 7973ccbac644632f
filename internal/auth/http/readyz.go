package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
)

// Pinger is a dependency readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database, the signing secret and the lockout counter store.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	secretConfigured func() bool,
	counters Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Secret:   "ok",
			Counters: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		degrade := func(field *string, msg string) {
			*field = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := db.Ping(r.Context()); err != nil {
			degrade(&checks.Database, err.Error())
		}

		if !secretConfigured() {
			degrade(&checks.Secret, "no signing secret configured")
		}

		// Counters without their own backend share the database.
		if counters != nil {
			if err := counters.Ping(r.Context()); err != nil {
				degrade(&checks.Counters, err.Error())
			}
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
