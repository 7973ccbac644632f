package postgres

import (
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/postgres/migrations"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/sqldb"

	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
)

// ApplyMigrations brings the schema up to date from the embedded files.
// The migrate driver takes an advisory lock, so replicas starting together
// apply each migration once.
func (s *Store) ApplyMigrations() error {
	driver, err := pgx.WithInstance(s.DB(), &pgx.Config{})
	if err != nil {
		return err
	}
	return sqldb.Migrate(migrations.Migrations, "pgx5", driver)
}
