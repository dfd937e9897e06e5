// Package postgres stores babies, recipes and plans in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"babyplate/internal/adapter/sqlstore"
)

// slotIndex guards the (baby, date, meal period) key of live plans.
const slotIndex = "plans_slot_key"

// Dialect is the sqlstore dialect for lib/pq.
var Dialect = sqlstore.Dialect{
	Numbered: true,
	BindTime: func(t time.Time) any { return t.UTC() },
	Unique: func(err error) (bool, bool) {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
			return false, false
		}
		return true, pqErr.Constraint == slotIndex
	},
}

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	*sqlstore.Store
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := newDB(s)
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func newDB(s *sql.DB) *DB {
	return &DB{Store: sqlstore.New(s, Dialect), sql: s}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS babies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		allergies JSONB NOT NULL DEFAULT '[]',
		dislikes JSONB NOT NULL DEFAULT '[]',
		nutrition_goal JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		min_age_months INTEGER NOT NULL,
		max_age_months INTEGER NOT NULL DEFAULT 0,
		cooking_method TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		ingredients JSONB NOT NULL DEFAULT '[]',
		nutrition JSONB NOT NULL DEFAULT '{}',
		meal_periods JSONB NOT NULL DEFAULT '[]'
	);`,
	`CREATE TABLE IF NOT EXISTS plans (
		id BIGSERIAL PRIMARY KEY,
		baby_id BIGINT NOT NULL,
		recipe_id BIGINT NOT NULL,
		planned_date TEXT NOT NULL,
		meal_period SMALLINT NOT NULL CHECK(meal_period BETWEEN 0 AND 3),
		status TEXT NOT NULL CHECK(status IN ('PLANNED','TRIED','SKIPPED')),
		notes TEXT NOT NULL DEFAULT '',
		cloud_id TEXT UNIQUE,
		sync_status TEXT NOT NULL CHECK(sync_status IN ('PENDING_UPLOAD','SYNCED')),
		last_sync_time TIMESTAMPTZ,
		version INTEGER NOT NULL CHECK(version >= 1),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL
	);`,
	"CREATE UNIQUE INDEX IF NOT EXISTS " + slotIndex + " ON plans(baby_id, planned_date, meal_period) WHERE NOT is_deleted;",
	"CREATE INDEX IF NOT EXISTS idx_plans_pending ON plans(sync_status) WHERE sync_status = 'PENDING_UPLOAD';",
	`CREATE TABLE IF NOT EXISTS merge_audit (
		id TEXT PRIMARY KEY,
		plan_id BIGINT NOT NULL,
		cloud_id TEXT NOT NULL,
		winner TEXT NOT NULL CHECK(winner IN ('LOCAL','REMOTE')),
		resolution TEXT NOT NULL,
		local_version INTEGER NOT NULL,
		remote_version INTEGER NOT NULL,
		local_updated_at TIMESTAMPTZ NOT NULL,
		remote_updated_at TIMESTAMPTZ NOT NULL,
		losing_write TEXT NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL
	);`,
	"CREATE INDEX IF NOT EXISTS idx_merge_audit_detected_at ON merge_audit(detected_at);",
	`CREATE TABLE IF NOT EXISTS sync_state (
		id SMALLINT PRIMARY KEY CHECK(id = 1),
		pulled_at TIMESTAMPTZ NOT NULL
	);`,
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
