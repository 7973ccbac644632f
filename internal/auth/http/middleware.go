package http

import (
	"net/http"

	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// AuthenticateMiddleware opens the request scope and resolves the bearer
// token, if any, to a user id in the context. It never rejects a request;
// a bad token is parked in the scope for DeferredErrorMiddleware.
func AuthenticateMiddleware(svc *service.AuthService, ci *httpx.ClientIdentifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ci.Identify(r)
			scope := service.NewRequestScope(r, client)
			ctx := service.WithScope(slogx.With(r.Context(), "client", client), scope)

			var prev service.Resolution
			if id, ok := httpx.UserIDFromContext(ctx); ok {
				prev.UserID = id
			}

			res := svc.AuthenticateFromRequest(ctx, prev, scope)
			if res.UserID != 0 {
				ctx = httpx.ContextWithUserID(ctx, res.UserID)
				ctx = slogx.With(ctx, "user_id", res.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeferredErrorMiddleware answers with the error parked by authentication
// instead of running the route.
func DeferredErrorMiddleware(svc *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, _ := service.ScopeFromContext(r.Context())
			svc.SurfaceDeferredError(scope, next).ServeHTTP(w, r)
		})
	}
}
