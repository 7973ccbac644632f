package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestThrottle(t *testing.T) {
	now := time.Now()
	th := newThrottle(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})

	ok, _ := th.allow("203.0.113.1", now)
	require.True(t, ok)
	ok, _ = th.allow("203.0.113.1", now)
	require.True(t, ok)

	ok, delay := th.allow("203.0.113.1", now)
	require.False(t, ok)
	require.InDelta(t, 30*time.Second, delay, float64(time.Millisecond))

	// Keys do not share buckets.
	ok, _ = th.allow("203.0.113.2", now)
	require.True(t, ok)

	// A denied call must not consume the token it was told to wait for.
	ok, _ = th.allow("203.0.113.1", now.Add(31*time.Second))
	require.True(t, ok)
}

func TestThrottleEvictsIdleKeys(t *testing.T) {
	now := time.Now()
	th := newThrottle(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

	th.allow("198.51.100.1", now)
	th.allow("198.51.100.2", now.Add(5*time.Minute))
	require.Len(t, th.buckets, 2)

	th.allow("198.51.100.3", now.Add(idleEvictAfter+time.Minute))
	require.Len(t, th.buckets, 2)
	require.NotContains(t, th.buckets, "198.51.100.1")
}

func TestRateLimitByClient(t *testing.T) {
	ci := NewClientIdentifier("X-Forwarded-For")
	h := RateLimitByClient(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, ci)(okHandler())

	send := func(forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "10.0.0.5:41000"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send("203.0.113.9").Code)

	rec := send("203.0.113.9")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))

	var body struct {
		Code string `json:"code"`
		Data struct {
			Status int `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ThrottledCode, body.Code)
	require.Equal(t, http.StatusTooManyRequests, body.Data.Status)

	require.Equal(t, http.StatusOK, send("203.0.113.10").Code)

	// A private forwarded address falls back to the socket address.
	require.Equal(t, http.StatusOK, send("192.168.1.20").Code)
	require.Equal(t, http.StatusTooManyRequests, send("").Code)
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{59*time.Second + 999*time.Millisecond, 60},
		{60 * time.Second, 60},
		{60*time.Second + time.Nanosecond, 61},
		{15 * time.Minute, 900},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RetryAfterSeconds(tt.in), "wait %s", tt.in)
	}
}

func TestRateLimitLetsUnidentifiedThrough(t *testing.T) {
	h := RateLimitByIP(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/livez", nil)
		req.RemoteAddr = "not-an-address"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitProfiles(t *testing.T) {
	profiles := []RateLimitConfig{StrictLimit, ModerateLimit, LenientLimit, PublicLimit}
	for i, p := range profiles {
		require.Positive(t, p.RequestsPerWindow)
		require.Positive(t, p.Burst)
		require.Positive(t, p.Window)
		if i > 0 {
			require.Greater(t, p.RequestsPerWindow, profiles[i-1].RequestsPerWindow)
		}
	}
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	tests := []struct {
		name string
		env  map[string]string
		want RateLimitConfig
	}{
		{"defaults", nil, def},
		{
			"all overrides",
			map[string]string{
				"RATELIMIT_TEST_REQUESTS":   "1000",
				"RATELIMIT_TEST_WINDOW_SEC": "30",
				"RATELIMIT_TEST_BURST":      "50",
			},
			RateLimitConfig{RequestsPerWindow: 1000, Window: 30 * time.Second, Burst: 50},
		},
		{
			"burst only",
			map[string]string{"RATELIMIT_TEST_BURST": "3"},
			RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 3},
		},
		{
			"garbage and zero are ignored",
			map[string]string{
				"RATELIMIT_TEST_REQUESTS":   "lots",
				"RATELIMIT_TEST_WINDOW_SEC": "0",
				"RATELIMIT_TEST_BURST":      "-4",
			},
			def,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			require.Equal(t, tt.want, ParseRateLimitFromEnv("TEST", def))
		})
	}
}
