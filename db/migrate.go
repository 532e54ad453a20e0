package db

import (
	"errors"
	"fmt"

	"saveai-api/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsPath is where the schema migrations live relative to the repository root.
const DefaultMigrationsPath = "file://db/migrations"

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies (Up) or reverts (Down) all migrations found at source
// against the database at url. Having nothing to do is not an error.
func Migrate(source, url string, dir Direction) error {
	log := logger.Log.WithField("direction", string(dir))
	log.Info("Running database migrations")

	mig, err := migrate.New(source, url)
	if err != nil {
		return fmt.Errorf("cannot create migrate instance: %w", err)
	}
	defer mig.Close()

	switch dir {
	case Up:
		err = mig.Up()
	case Down:
		err = mig.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate %s: %w", dir, err)
	}

	version, dirty, verr := mig.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("reading migration version: %w", verr)
	}
	log.WithField("version", version).WithField("dirty", dirty).Info("Migrations finished")
	return nil
}
