package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func scopeFor(path, authorization string) *RequestScope {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	return NewRequestScope(r, "203.0.113.7")
}

func TestAuthenticateFromRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)
	valid := "Bearer " + issued.Token

	t.Run("resolves a valid token", func(t *testing.T) {
		scope := scopeFor("/v1/me", valid)
		res := env.svc.AuthenticateFromRequest(ctx, Resolution{}, scope)
		require.Equal(t, env.bob.ID, res.UserID)
		require.NoError(t, scope.TakeError())
	})

	t.Run("keeps an already resolved user", func(t *testing.T) {
		scope := scopeFor("/v1/me", "Bearer garbage")
		res := env.svc.AuthenticateFromRequest(ctx, Resolution{UserID: 42}, scope)
		require.EqualValues(t, 42, res.UserID)
		require.NoError(t, scope.TakeError())
	})

	t.Run("coerces an upstream error to unauthenticated", func(t *testing.T) {
		scope := scopeFor("/v1/me", "")
		res := env.svc.AuthenticateFromRequest(ctx, Resolution{UserID: 42, Err: errors.New("upstream")}, scope)
		require.Equal(t, Resolution{}, res)
	})

	t.Run("skips public endpoints", func(t *testing.T) {
		for _, path := range []string{"/token", "/validate", "/validate/"} {
			scope := scopeFor(path, "Bearer garbage")
			res := env.svc.AuthenticateFromRequest(ctx, Resolution{}, scope)
			require.Equal(t, Resolution{}, res, path)
			require.NoError(t, scope.TakeError(), path)
		}
	})

	t.Run("skips requests without bearer credentials", func(t *testing.T) {
		for _, header := range []string{"", "Basic Ym9iOnB3"} {
			scope := scopeFor("/v1/me", header)
			res := env.svc.AuthenticateFromRequest(ctx, Resolution{}, scope)
			require.Equal(t, Resolution{}, res)
			require.NoError(t, scope.TakeError())
		}
	})

	t.Run("parks the error for a bad token", func(t *testing.T) {
		scope := scopeFor("/v1/me", "Bearer garbage")
		res := env.svc.AuthenticateFromRequest(ctx, Resolution{}, scope)
		require.Equal(t, Resolution{}, res)
		require.ErrorIs(t, scope.TakeError(), ErrInvalidToken)
	})
}

func TestSurfaceDeferredError(t *testing.T) {
	env := newTestEnv(t)

	candidate := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("passes the candidate through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.svc.SurfaceDeferredError(scopeFor("/v1/me", ""), candidate).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)

		rec = httptest.NewRecorder()
		env.svc.SurfaceDeferredError(nil, candidate).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("replaces it with the parked error once", func(t *testing.T) {
		scope := scopeFor("/v1/me", "")
		scope.SetError(ErrBadToken)

		rec := httptest.NewRecorder()
		env.svc.SurfaceDeferredError(scope, candidate).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body authsdk.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, authsdk.CodeBadToken, body.Code)
		require.Equal(t, "Invalid token.", body.Message)
		require.Equal(t, http.StatusUnauthorized, body.Data.Status)

		rec = httptest.NewRecorder()
		env.svc.SurfaceDeferredError(scope, candidate).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestScopeContext(t *testing.T) {
	_, ok := ScopeFromContext(context.Background())
	require.False(t, ok)

	scope := scopeFor("/v1/me", "")
	got, ok := ScopeFromContext(WithScope(context.Background(), scope))
	require.True(t, ok)
	require.Same(t, scope, got)
	require.Equal(t, "203.0.113.7", got.ClientAddr)
}
