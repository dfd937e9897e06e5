// Package sqlite stores babies, recipes and plans in a local SQLite file,
// the on-device store of the offline-first client.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"babyplate/internal/adapter/sqlstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dialect is the sqlstore dialect for modernc.org/sqlite.
var Dialect = sqlstore.Dialect{
	BindTime: sqlstore.RFC3339,
	Unique: func(err error) (bool, bool) {
		var se *sqlite.Error
		if !errors.As(err, &se) || se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return false, false
		}
		return true, strings.Contains(se.Error(), "plans.planned_date")
	},
}

// DB is the SQLite-backed store.
type DB struct {
	*sqlstore.Store
	sql *sql.DB
}

// Open migrates and opens the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := RunMigrations(path); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time keeps transactions from failing with SQLITE_BUSY.
	s.SetMaxOpenConns(1)
	if err := s.PingContext(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{Store: sqlstore.New(s, Dialect), sql: s}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.sql.Close()
}

// RunMigrations applies the embedded migrations using golang-migrate.
func RunMigrations(path string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close() //nolint:errcheck

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
