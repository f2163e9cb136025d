package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
)

//go:embed migrations
var migrations embed.FS

// Direction selects which way Migrate moves the schema
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MigrationStatus reports the schema version after a migration command
type MigrationStatus struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	if cfg.Driver != config.DriverSQLite && cfg.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("driver %q does not use migrations", cfg.Driver)
	}

	src, err := iofs.New(migrations, "migrations/"+cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	// migrate opens its own connection so closing it leaves the shared pool intact
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrationURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Migrate applies every pending migration in the given direction
func Migrate(cfg config.DatabaseConfig, direction Direction) (MigrationStatus, error) {
	m, err := newMigrator(cfg)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	switch direction {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return MigrationStatus{}, fmt.Errorf("unknown migration direction %q", direction)
	}

	status := MigrationStatus{NoChange: errors.Is(err, migrate.ErrNoChange)}
	if err != nil && !status.NoChange {
		return status, fmt.Errorf("migration %s failed: %w", direction, err)
	}

	status.Version, status.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return status, fmt.Errorf("failed to get migration version: %w", err)
	}
	return status, nil
}

// Version reports the current schema version without changing it
func Version(cfg config.DatabaseConfig) (MigrationStatus, error) {
	m, err := newMigrator(cfg)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}
