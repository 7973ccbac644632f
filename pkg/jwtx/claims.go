package jwtx

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token TTL bounds accepted by the service configuration.
const (
	// DefaultTokenTTL is how long an issued token stays valid (7 days).
	DefaultTokenTTL = 7 * 24 * time.Hour

	MinTokenTTL = time.Hour
	MaxTokenTTL = 365 * 24 * time.Hour
)

// Claims are the claims carried by every token we issue. The user payload
// sits under "data.user" so existing consumers keep parsing it.
type Claims struct {
	jwt.RegisteredClaims

	Data ClaimsData `json:"data"`
}

// ClaimsData wraps the principal snapshot.
type ClaimsData struct {
	User UserClaims `json:"user"`
}

// UserClaims is the principal snapshot taken at issuance.
type UserClaims struct {
	ID    int64    `json:"id"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// NewClaims builds claims with iat == nbf == now and exp == now + ttl.
func NewClaims(issuer string, userID int64, email string, roles []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Data: ClaimsData{
			User: UserClaims{
				ID:    userID,
				Email: email,
				Roles: roles,
			},
		},
	}
}

// UserID returns the principal id, zero when absent.
func (c *Claims) UserID() int64 { return c.Data.User.ID }

// ValidateIssuer checks the issuer in constant time.
func (c *Claims) ValidateIssuer(expected string) error {
	if subtle.ConstantTimeCompare([]byte(c.Issuer), []byte(expected)) != 1 {
		return ErrIssuer
	}
	return nil
}
