// Package sqldb holds the SQL shared by the sqlite and postgres drivers.
// Queries are written with "?" placeholders and rebound per dialect; times
// are stored as unix milliseconds so both engines order them identically.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures what differs between engines.
type Dialect struct {
	Name string

	// Rebind rewrites "?" placeholders for the engine.
	Rebind func(query string) string

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for counter expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store implements everything in store.Store except ApplyMigrations, which
// the driver provides.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sql.DB, d Dialect, opts ...Option) *Store {
	if d.Rebind == nil {
		d.Rebind = func(q string) string { return q }
	}
	if d.IsUniqueViolation == nil {
		d.IsUniqueViolation = func(error) bool { return false }
	}

	s := &Store{db: db, dialect: d, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the handle for migrations.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) repos(q querier) repoBase {
	return repoBase{q: q, d: s.dialect, now: s.now}
}

func (s *Store) Users() store.Users               { return &usersRepo{s.repos(s.db)} }
func (s *Store) TokenRecords() store.TokenRecords { return &tokenRecordsRepo{s.repos(s.db)} }
func (s *Store) Counters() store.Counters         { return &countersRepo{s.repos(s.db)} }

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, parent: s}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Safe to call after commit; it just reports ErrTxDone.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer DB stays open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return sql.ErrTxDone }

func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Users() store.Users               { return &usersRepo{t.parent.repos(t.tx)} }
func (t *txStore) TokenRecords() store.TokenRecords { return &tokenRecordsRepo{t.parent.repos(t.tx)} }
func (t *txStore) Counters() store.Counters         { return &countersRepo{t.parent.repos(t.tx)} }

type repoBase struct {
	q   querier
	d   Dialect
	now func() time.Time
}

func (r repoBase) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.d.Rebind(query), args...)
}

func (r repoBase) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.d.Rebind(query), args...)
}

func (r repoBase) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.d.Rebind(query), args...)
}

func (r repoBase) mapWriteErr(err error) error {
	if err != nil && r.d.IsUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// requireAffected turns a zero-row update into ErrNotFound.
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func mapNullMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}
