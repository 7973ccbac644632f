package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// admit checks the failure counter for key. When the client is locked out,
// or the counters cannot be read, the response is written and false is
// returned.
func admit(w http.ResponseWriter, r *http.Request, l *lockout.Limiter, key, client string) bool {
	ctx := r.Context()

	err := l.Check(ctx, key)
	if err == nil {
		return true
	}

	if errors.Is(err, lockout.ErrRateLimited) {
		retry := l.RetryAfter(ctx, key)
		w.Header().Set("Retry-After", strconv.Itoa(httpx.RetryAfterSeconds(retry)))
		slogx.FromContext(ctx).Warn("client locked out",
			slog.String("key", key),
			slog.String("client_ip", client),
			slog.Duration("retry_after", retry),
		)
	}

	writeError(w, r, err)
	return false
}

// recordFailure counts err against key when the client caused it.
func recordFailure(r *http.Request, lim *lockout.Limiter, key, client string, err error) {
	if !service.CountsAsFailure(err) {
		return
	}

	l := slogx.FromContext(r.Context())
	n, ferr := lim.RecordFailure(r.Context(), key)
	if ferr != nil {
		l.Error("failed to record authentication failure", slog.Any("error", ferr))
		return
	}

	l.Warn("authentication failed",
		slog.String("key", key),
		slog.String("client_ip", client),
		slog.Int("attempts", n),
		slog.Any("error", err),
	)
}
