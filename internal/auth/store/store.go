package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are handed out per call so a Tx-scoped
// Store can hand out the same repos bound to the transaction.
type Store interface {
	Users() Users
	TokenRecords() TokenRecords
	Counters() Counters

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByLogin is used during token issuance.
	GetUserByLogin(ctx context.Context, login string) (domain.User, error)

	// GetUserByEmail lets users sign in with their email address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a user and returns it with its assigned id.
	// A duplicate login or email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateUserStatus locks or unlocks an account.
	UpdateUserStatus(ctx context.Context, id int64, status string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type TokenRecords interface {
	// CreateTokenRecord stores a record and returns it with its assigned id.
	// token_hash is unique; a duplicate yields ErrAlreadyExists.
	CreateTokenRecord(ctx context.Context, rec domain.TokenRecord) (domain.TokenRecord, error)

	GetTokenRecord(ctx context.Context, id string) (domain.TokenRecord, error)
	GetTokenRecordByHash(ctx context.Context, hash string) (domain.TokenRecord, error)

	// ListUserTokenRecords returns a user's records, most recently created first.
	ListUserTokenRecords(ctx context.Context, userID int64) ([]domain.TokenRecord, error)

	DeleteTokenRecord(ctx context.Context, id string) error

	// TrimUserTokenRecords keeps the keep most recently created records of
	// a user and deletes the rest, returning how many were deleted.
	TrimUserTokenRecords(ctx context.Context, userID int64, keep int) (int64, error)

	// DeleteExpiredTokenRecords removes every record whose expires_at precedes
	// now. A record expiring exactly at now is kept.
	DeleteExpiredTokenRecords(ctx context.Context, now time.Time) (int64, error)

	// TouchLastUsed sets last_used_at on the user's most recently created
	// record only. ErrNotFound when the user has none.
	TouchLastUsed(ctx context.Context, userID int64, now time.Time) error

	// TouchLastUsedByHash sets last_used_at on the record with this hash.
	// ErrNotFound when there is no such record.
	TouchLastUsedByHash(ctx context.Context, hash string, now time.Time) error
}

// Counters are expiring integer counters keyed by an opaque string.
type Counters interface {
	// GetCounter returns the live count for key, zero if absent or expired.
	GetCounter(ctx context.Context, key string) (int, error)

	// IncrementCounter atomically adds one to key (creating it at 1 if absent
	// or expired) and re-arms its expiry to ttl from now. Returns the new count.
	IncrementCounter(ctx context.Context, key string, ttl time.Duration) (int, error)

	// CounterTTL returns the remaining lifetime of key, zero if absent.
	CounterTTL(ctx context.Context, key string) (time.Duration, error)

	DeleteCounter(ctx context.Context, key string) error

	// DeleteExpiredCounters is housekeeping; backends with native expiry
	// may return 0.
	DeleteExpiredCounters(ctx context.Context, now time.Time) (int64, error)
}
