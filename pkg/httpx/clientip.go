package httpx

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// UnknownClientIP is reported when no usable address can be found.
const UnknownClientIP = "0.0.0.0"

// DefaultClientIPHeaders lists proxy headers in the order they are trusted.
var DefaultClientIPHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
	"Client-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

var (
	reservedV4Zero      = netip.MustParsePrefix("0.0.0.0/8")
	reservedV4Future    = netip.MustParsePrefix("240.0.0.0/4")
	reservedV4LinkLocal = netip.MustParsePrefix("169.254.0.0/16")
)

// ClientIdentifier derives a best-effort client address from a request.
//
// Proxy headers are walked in order and the first public address wins.
// Private, loopback, reserved and IPv4-mapped addresses are skipped.
// RemoteAddr is the fallback and is accepted as long as it parses; a mapped
// socket address from a dual-stack listener is reported as plain IPv4.
type ClientIdentifier struct {
	Headers []string
}

// NewClientIdentifier returns an identifier trusting the given headers, or
// DefaultClientIPHeaders when none are given.
func NewClientIdentifier(headers ...string) *ClientIdentifier {
	if len(headers) == 0 {
		headers = DefaultClientIPHeaders
	}
	return &ClientIdentifier{Headers: headers}
}

var defaultIdentifier = NewClientIdentifier()

// ClientIP identifies r with the default header list.
func ClientIP(r *http.Request) string {
	return defaultIdentifier.Identify(r)
}

// Identify never fails; UnknownClientIP is the last resort.
func (ci *ClientIdentifier) Identify(r *http.Request) string {
	for _, h := range ci.Headers {
		for _, v := range r.Header.Values(h) {
			for candidate := range strings.SplitSeq(v, ",") {
				addr, ok := parseAddr(candidate)
				if ok && isPublic(addr) {
					return addr.String()
				}
			}
		}
	}

	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.Unmap().String()
	}

	return UnknownClientIP
}

// parseAddr accepts "ip", "ip:port", "[v6]" and "[v6]:port".
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.WithZone(""), true
}

func isPublic(addr netip.Addr) bool {
	switch {
	case !addr.IsValid(),
		addr.Is4In6(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}

	if addr.Is4() {
		if reservedV4Zero.Contains(addr) || reservedV4Future.Contains(addr) || reservedV4LinkLocal.Contains(addr) {
			return false
		}
	}
	return true
}
