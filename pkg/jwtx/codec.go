package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is the single error surfaced by Decode. The cause is
	// wrapped for logging but callers should never branch on it.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	ErrMissingSecret = errors.New("jwtx: missing secret")

	ErrIssuer = errors.New("jwtx: issuer mismatch")
)

// MaxLeeway caps the clock skew tolerance.
const MaxLeeway = 5 * time.Minute

// Codec encodes and decodes signed tokens with a shared secret.
type Codec interface {
	Encode(claims Claims, secret []byte) (string, error)
	Decode(token string, secret []byte) (Claims, error)
}

// HS256Codec signs with HMAC SHA-256. Nothing else is accepted on decode,
// so a token whose header names "none" or an asymmetric alg is rejected
// before its signature is looked at.
type HS256Codec struct {
	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now is the clock used for exp/nbf. Defaults to time.Now.
	Now func() time.Time
}

// NewHS256Codec returns a codec with the given leeway, clamped to MaxLeeway.
func NewHS256Codec(leeway time.Duration) *HS256Codec {
	if leeway < 0 {
		leeway = 0
	}
	return &HS256Codec{Leeway: min(leeway, MaxLeeway), Now: time.Now}
}

func (c *HS256Codec) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Encode signs claims into a compact JWS.
func (c *HS256Codec) Encode(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and the time claims of token. Every
// failure, including a missing secret, is reported as ErrInvalidToken.
func (c *HS256Codec) Decode(token string, secret []byte) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrMissingSecret)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(c.Leeway),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
