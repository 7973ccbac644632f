package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/sqldb"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ store.Store = (*Store)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store is the postgres driver, going through pgx's database/sql adapter.
type Store struct {
	*sqldb.Store
}

// Dialect is the postgres flavour of the shared SQL.
var Dialect = sqldb.Dialect{
	Name:              "postgres",
	Rebind:            sqldb.RebindDollar,
	IsUniqueViolation: isUniqueViolation,
}

// NewStore connects to url (a postgres:// URL or key=value DSN) and checks
// the connection before returning.
func NewStore(ctx context.Context, url string, opts ...sqldb.Option) (*Store, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Store{Store: sqldb.New(db, Dialect, opts...)}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
