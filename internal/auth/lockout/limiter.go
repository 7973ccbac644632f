// Package lockout throttles repeated authentication failures per client and
// endpoint. Counters live in a store.Counters so every replica sees the same
// state.
package lockout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
)

const (
	DefaultMaxAttempts = 5
	DefaultLockout     = 15 * time.Minute

	keyPrefix = "jwt_shield_rate_limit_"
)

var (
	ErrRateLimited = errors.New("lockout: too many attempts")

	// ErrUnavailable wraps counter store failures. Callers should fail closed.
	ErrUnavailable = errors.New("lockout: counter store unavailable")
)

type Config struct {
	MaxAttempts int
	Lockout     time.Duration
}

// Limiter is a sliding-window failure counter. Every failure re-arms the
// full lockout window, so sustained guessing keeps the client locked out.
type Limiter struct {
	counters store.Counters
	cfg      Config
}

// New builds a Limiter, filling zero config fields with the defaults.
func New(counters store.Counters, cfg Config) *Limiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = DefaultLockout
	}
	return &Limiter{counters: counters, cfg: cfg}
}

func (l *Limiter) Config() Config { return l.cfg }

// Key derives the counter key for a client and endpoint. The raw address is
// hashed so it never appears in the counter store.
func Key(client, endpoint string) string {
	sum := sha256.Sum256([]byte(client + "_" + endpoint))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Check returns ErrRateLimited once key has reached MaxAttempts failures.
func (l *Limiter) Check(ctx context.Context, key string) error {
	n, err := l.counters.GetCounter(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if n >= l.cfg.MaxAttempts {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure counts one failure and returns the new total.
func (l *Limiter) RecordFailure(ctx context.Context, key string) (int, error) {
	n, err := l.counters.IncrementCounter(ctx, key, l.cfg.Lockout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n, nil
}

// Clear forgets every failure for key.
func (l *Limiter) Clear(ctx context.Context, key string) error {
	if err := l.counters.DeleteCounter(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// RetryAfter is how long key stays locked. It falls back to the full
// lockout window when the store cannot say.
func (l *Limiter) RetryAfter(ctx context.Context, key string) time.Duration {
	d, err := l.counters.CounterTTL(ctx, key)
	if err != nil || d <= 0 {
		return l.cfg.Lockout
	}
	return d
}
