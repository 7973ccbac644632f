package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.9:5555",
			want:       "203.0.113.9",
		},
		{
			name:       "cloudflare header wins over forwarded-for",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.7",
		},
		{
			name:       "first public entry of forwarded-for",
			headers:    map[string]string{"X-Forwarded-For": "10.1.1.1, 203.0.113.5, 198.51.100.1"},
			remoteAddr: "10.0.0.1:80",
			want:       "203.0.113.5",
		},
		{
			name:       "private header falls through to next header",
			headers:    map[string]string{"CF-Connecting-IP": "192.168.0.8", "X-Real-IP": "198.51.100.3"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.3",
		},
		{
			name:       "loopback and reserved rejected",
			headers:    map[string]string{"X-Forwarded-For": "127.0.0.1, 0.1.2.3, 255.255.255.255, 169.254.1.1, 240.0.0.1"},
			remoteAddr: "10.0.0.1:80",
			want:       "10.0.0.1",
		},
		{
			name:       "garbage header ignored",
			headers:    map[string]string{"Client-IP": "not-an-ip"},
			remoteAddr: "198.51.100.20:1234",
			want:       "198.51.100.20",
		},
		{
			name:       "ipv6 with brackets and port",
			headers:    map[string]string{"X-Forwarded-For": "[2001:db8::1]:443"},
			remoteAddr: "10.0.0.1:80",
			want:       "2001:db8::1",
		},
		{
			name:       "ipv6 unique local rejected",
			headers:    map[string]string{"X-Forwarded-For": "fd00::1"},
			remoteAddr: "[2001:db8::2]:80",
			want:       "2001:db8::2",
		},
		{
			name:       "ipv4-mapped private header rejected",
			headers:    map[string]string{"X-Forwarded-For": "::ffff:10.0.0.3"},
			remoteAddr: "198.51.100.4:80",
			want:       "198.51.100.4",
		},
		{
			name:       "ipv4-mapped public header rejected",
			headers:    map[string]string{"X-Forwarded-For": "::ffff:8.8.8.8, 203.0.113.12"},
			remoteAddr: "10.0.0.1:80",
			want:       "203.0.113.12",
		},
		{
			name:       "mapped socket address reported as ipv4",
			headers:    map[string]string{"X-Forwarded-For": "[::ffff:8.8.4.4]:443"},
			remoteAddr: "[::ffff:198.51.100.30]:5555",
			want:       "198.51.100.30",
		},
		{
			name:       "nothing usable",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1"},
			remoteAddr: "pipe",
			want:       httpx.UnknownClientIP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			require.Equal(t, tt.want, httpx.ClientIP(req))
		})
	}
}

func TestClientIdentifier_CustomHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:80"
	req.Header.Set("CF-Connecting-IP", "198.51.100.7")
	req.Header.Set("X-Client", "203.0.113.77")

	ci := httpx.NewClientIdentifier("X-Client")
	require.Equal(t, "203.0.113.77", ci.Identify(req))

	none := &httpx.ClientIdentifier{}
	require.Equal(t, "10.0.0.1", none.Identify(req))
}
