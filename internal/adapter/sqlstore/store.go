// Package sqlstore implements the domain repositories on database/sql. The
// postgres and sqlite adapters open the connection, own the schema and pick
// the Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"babyplate/internal/domain"
)

// Dialect captures what differs between the supported databases.
type Dialect struct {
	// Numbered placeholders ($1, $2) instead of ?.
	Numbered bool
	// BindTime converts a timestamp into a query argument.
	BindTime func(t time.Time) any
	// Unique reports whether err is a unique violation and whether it hit the
	// plan slot index.
	Unique func(err error) (unique, slot bool)
}

// Store implements every repository port on one *sql.DB.
type Store struct {
	db *sql.DB
	d  Dialect
}

var (
	_ domain.BabyRepository       = (*Store)(nil)
	_ domain.RecipeRepository     = (*Store)(nil)
	_ domain.PlanRepository       = (*Store)(nil)
	_ domain.AuditRepository      = (*Store)(nil)
	_ domain.SyncCursorRepository = (*Store)(nil)
)

// New wraps db.
func New(db *sql.DB, d Dialect) *Store {
	if d.BindTime == nil {
		d.BindTime = func(t time.Time) any { return t.UTC() }
	}
	if d.Unique == nil {
		d.Unique = func(error) (bool, bool) { return false, false }
	}
	return &Store{db: db, d: d}
}

// SQL returns the underlying handle.
func (s *Store) SQL() *sql.DB { return s.db }

// q rewrites ? placeholders for the dialect.
func (s *Store) q(query string) string {
	if !s.d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func optString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *Store) bindTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return s.d.BindTime(*t)
}

// fail wraps a storage error, mapping unique violations.
func (s *Store) fail(op string, err error) error {
	if unique, slot := s.d.Unique(err); unique {
		if slot {
			return fmt.Errorf("%w: %s", domain.ErrSlotTaken, op)
		}
		return fmt.Errorf("%w: %s: duplicate key", domain.ErrPersistence, op)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}

// timeCol scans timestamps stored natively or as RFC 3339 text.
type timeCol struct {
	t     time.Time
	valid bool
}

func (c *timeCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.valid = false
		return nil
	case time.Time:
		c.t, c.valid = v.UTC(), true
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into a timestamp", src)
}

func (c *timeCol) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	c.t, c.valid = t.UTC(), true
	return nil
}

func (c timeCol) ptr() *time.Time {
	if !c.valid {
		return nil
	}
	t := c.t
	return &t
}

// jsonCol scans a JSON document into v.
type jsonCol struct{ v any }

func (c jsonCol) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into JSON", src)
	}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, c.v)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// textTime is RFC 3339 with a fixed-width fraction so stored text sorts in
// time order.
const textTime = "2006-01-02T15:04:05.000000000Z07:00"

// RFC3339 binds timestamps as UTC RFC 3339 text.
func RFC3339(t time.Time) any {
	return t.UTC().Format(textTime)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
