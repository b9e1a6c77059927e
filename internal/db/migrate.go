package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/deojon/studio/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewMigrator returns a migrator for the envelope log schema. The SQL
// files are compiled into the binary, so it works from any directory.
func NewMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(cfg config.DatabaseConfig) error {
	return withMigrator(cfg, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(cfg config.DatabaseConfig) error {
	return withMigrator(cfg, func(m *migrate.Migrate) error {
		return m.Steps(-1)
	})
}

// SchemaVersion reports the applied migration version.
func SchemaVersion(cfg config.DatabaseConfig) (uint, bool, error) {
	m, err := NewMigrator(cfg)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func withMigrator(cfg config.DatabaseConfig, fn func(*migrate.Migrate) error) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		log.Printf("[db] closing migrator: %v", err)
	}
}
