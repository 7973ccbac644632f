package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// writeError renders err as the service error envelope. Causes that map to
// the generic 500 are logged here since the body never carries them.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := service.APIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("code", apiErr.Code),
			slog.Any("error", err),
			slog.Bool("lockout_unavailable", errors.Is(err, lockout.ErrUnavailable)),
		)
	}
	apiErr.WriteError(w)
}
