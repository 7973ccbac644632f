package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var (
	okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	deniedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	forbiddenHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
)

func withUser(id int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(httpx.ContextWithUserID(req.Context(), id))
}

func TestRequireUser(t *testing.T) {
	h := httpx.RequireUser(deniedHandler)(okHandler)

	t.Run("no user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("zero user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withUser(0))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withUser(5))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireAnyRole(t *testing.T) {
	calls := 0
	resolve := func(_ context.Context, id int64) ([]string, error) {
		calls++
		switch id {
		case 1:
			return []string{"administrator"}, nil
		case 2:
			return []string{"subscriber"}, nil
		default:
			return nil, errors.New("no such user")
		}
	}

	h := httpx.RequireAnyRole(resolve, forbiddenHandler, "administrator", "editor")(okHandler)

	for _, tc := range []struct {
		user int64
		want int
	}{
		{1, http.StatusOK},
		{2, http.StatusForbidden},
		{3, http.StatusForbidden},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withUser(tc.user))
		require.Equal(t, tc.want, rec.Code, "user %d", tc.user)
	}
	require.Equal(t, 3, calls)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("first"), mw("second"), mw("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestWriteProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteProblem(rec, http.StatusUnauthorized, "jwt_auth_bad_token", "Invalid token.")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"code":"jwt_auth_bad_token","message":"Invalid token.","data":{"status":401}}`, rec.Body.String())
}
