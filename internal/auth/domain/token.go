package domain

import "time"

// MaxTokensPerUser is how many records a user keeps after issuance trims.
const MaxTokensPerUser = 5

// TokenRecord is the persisted bookkeeping for an issued token. The token
// itself is never stored, only its SHA-256 hex digest.
type TokenRecord struct {
	ID         string
	UserID     int64
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	IPAddress  string
}

// Expired reports whether the record is past its expiry at now.
func (r TokenRecord) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

// IssuedToken is what a successful login returns.
type IssuedToken struct {
	Token     string
	Principal Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidatedPrincipal is what a valid token tells us about its bearer.
type ValidatedPrincipal struct {
	UserID    int64
	Email     string
	Roles     []string
	ExpiresAt time.Time
}
