package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// PublicPaths stay reachable without a token: the token endpoints
// themselves never go through request authentication.
var PublicPaths = []string{"/token", "/validate"}

// Resolution is the outcome of request authentication so far. A zero value
// means unauthenticated.
type Resolution struct {
	UserID int64
	Err    error
}

// RequestScope carries what request authentication needs, plus a one-shot
// slot for an error to surface once the route has been chosen. One scope
// exists per request.
type RequestScope struct {
	Path          string
	Authorization string
	ClientAddr    string

	mu  sync.Mutex
	err error
}

// NewRequestScope captures the parts of r that authentication looks at.
func NewRequestScope(r *http.Request, clientAddr string) *RequestScope {
	return &RequestScope{
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		ClientAddr:    clientAddr,
	}
}

// SetError records err for later surfacing. A later error replaces an
// earlier one.
func (rs *RequestScope) SetError(err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.err = err
}

// TakeError returns the recorded error and clears the slot.
func (rs *RequestScope) TakeError() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	err := rs.err
	rs.err = nil
	return err
}

type scopeKey struct{}

func WithScope(ctx context.Context, rs *RequestScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, rs)
}

func ScopeFromContext(ctx context.Context) (*RequestScope, bool) {
	rs, ok := ctx.Value(scopeKey{}).(*RequestScope)
	return rs, ok && rs != nil
}

func isPublicPath(path string) bool {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for _, p := range PublicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// AuthenticateFromRequest resolves the user behind a request's bearer token.
// It never fails the request itself: a bad token is parked in scope and the
// previous resolution is returned unchanged.
func (s *AuthService) AuthenticateFromRequest(ctx context.Context, prev Resolution, scope *RequestScope) Resolution {
	// An upstream error is not an identity.
	if prev.Err != nil {
		prev = Resolution{}
	}

	if prev.UserID != 0 || scope == nil || isPublicPath(scope.Path) {
		return prev
	}

	// No bearer credentials means another scheme, or none, is in use.
	if scope.Authorization == "" || !strings.HasPrefix(scope.Authorization, "Bearer") {
		return prev
	}

	p, err := s.Validate(ctx, scope.Authorization)
	if err != nil {
		slogx.FromContext(ctx).Info("request authentication failed",
			slog.Any("error", err),
			slog.String("client_ip", scope.ClientAddr),
		)
		scope.SetError(err)
		return prev
	}

	return Resolution{UserID: p.UserID}
}

// SurfaceDeferredError returns a handler writing the error parked in scope,
// or candidate untouched when there is none.
func (s *AuthService) SurfaceDeferredError(scope *RequestScope, candidate http.Handler) http.Handler {
	if scope == nil {
		return candidate
	}

	err := scope.TakeError()
	if err == nil {
		return candidate
	}

	apiErr := APIError(err)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apiErr.WriteError(w)
	})
}
