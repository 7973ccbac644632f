package sqlite

import (
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/sqldb"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4/database/sqlite"
)

// ApplyMigrations brings the schema up to date from the embedded files.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.DB(), &sqlite.Config{})
	if err != nil {
		return err
	}
	return sqldb.Migrate(migrations.Migrations, "sqlite", driver)
}
