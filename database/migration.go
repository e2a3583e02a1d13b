package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/pulsekit/pulse-survey/log"
)

//go:embed migrations
var dbMigrations embed.FS

func migrateDB(db *sql.DB) error {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return err
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
		break
	case err != nil:
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("db schema version %d is dirty", version)
	}
	log.Debugf("db schema at version %d", version)
	return nil
}
