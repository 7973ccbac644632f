package sqldb

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies the pending migrations in files (the driver's embedded
// migrations directory) through an already opened migrate driver. Running
// it against an up-to-date schema is a no-op.
func Migrate(files fs.FS, dialect string, driver database.Driver) error {
	src, err := iofs.New(files, ".")
	if err != nil {
		return fmt.Errorf("%s: migration source: %w", dialect, err)
	}

	instance, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("%s: migrate: %w", dialect, err)
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: migrate up: %w", dialect, err)
	}
	return nil
}
