package postgres

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"triguard/internal/adapters/config"
	"triguard/migrations"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Migrate applies the embedded schema migrations (stg tables, predictions).
func Migrate(cfg config.PostgresConfig) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return errors.Wrap(err, "load embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return errors.Wrapf(errors.ErrConnection, "open migrate connection: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "apply migrations")
	}

	logger.Get().Info("Schema migrations up to date")
	return nil
}
