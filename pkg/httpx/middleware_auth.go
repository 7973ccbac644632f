package httpx

import (
	"context"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// RoleResolver looks up the roles of a user.
type RoleResolver func(ctx context.Context, userID int64) ([]string, error)

// RequireUser lets the request through only when an upstream middleware put
// a user id in the context. Otherwise denied serves the response.
func RequireUser(denied http.Handler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				denied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole the caller must hold at least one of the provided roles.
// Must run after RequireUser.
func RequireAnyRole(resolve RoleResolver, forbidden http.Handler, required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := UserIDFromContext(ctx)
			if !ok {
				forbidden.ServeHTTP(w, r)
				return
			}

			have := rolesFromCtx(ctx)
			if have == nil {
				roles, err := resolve(ctx, userID)
				if err != nil {
					slogx.FromContext(ctx).Warn("role lookup failed", "user_id", userID, "err", err)
					forbidden.ServeHTTP(w, r)
					return
				}
				have = roles
				ctx = ContextWithRoles(ctx, roles)
			}

			for _, want := range required {
				if slices.Contains(have, want) {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			forbidden.ServeHTTP(w, r)
		})
	}
}
