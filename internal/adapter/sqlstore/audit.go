package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"babyplate/internal/domain"
)

// AppendAudit records a merge decision.
func (s *Store) AppendAudit(ctx context.Context, a domain.MergeAudit) error {
	return s.insertAudit(ctx, s.db, a)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertAudit(ctx context.Context, db execer, a domain.MergeAudit) error {
	_, err := db.ExecContext(ctx, s.q(`INSERT INTO merge_audit(id, plan_id, cloud_id, winner, resolution, local_version,
remote_version, local_updated_at, remote_updated_at, losing_write, detected_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`),
		a.ID, a.PlanID, a.CloudID, string(a.Winner), a.Resolution, a.LocalVersion, a.RemoteVersion,
		s.d.BindTime(a.LocalUpdatedAt), s.d.BindTime(a.RemoteUpdatedAt), a.LosingWrite, s.d.BindTime(a.DetectedAt))
	if err != nil {
		return s.fail("append audit", err)
	}
	return nil
}

// ListAudit returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]domain.MergeAudit, error) {
	query := `SELECT id, plan_id, cloud_id, winner, resolution, local_version, remote_version,
local_updated_at, remote_updated_at, losing_write, detected_at FROM merge_audit ORDER BY detected_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query+";"), args...)
	if err != nil {
		return nil, s.fail("list audit", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.MergeAudit{}
	for rows.Next() {
		var a domain.MergeAudit
		var localAt, remoteAt, detected timeCol
		if err := rows.Scan(&a.ID, &a.PlanID, &a.CloudID, &a.Winner, &a.Resolution, &a.LocalVersion, &a.RemoteVersion,
			&localAt, &remoteAt, &a.LosingWrite, &detected); err != nil {
			return nil, s.fail("list audit", err)
		}
		a.LocalUpdatedAt, a.RemoteUpdatedAt, a.DetectedAt = localAt.t, remoteAt.t, detected.t
		out = append(out, a)
	}
	return out, rows.Err()
}

// SyncCursor returns the stored pull cursor.
func (s *Store) SyncCursor(ctx context.Context) (*time.Time, error) {
	var c timeCol
	err := s.db.QueryRowContext(ctx, "SELECT pulled_at FROM sync_state WHERE id=1;").Scan(&c)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("sync cursor", err)
	}
	return c.ptr(), nil
}

// SetSyncCursor stores the pull cursor.
func (s *Store) SetSyncCursor(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO sync_state(id, pulled_at) VALUES(1, ?) ON CONFLICT(id) DO UPDATE SET pulled_at=excluded.pulled_at;"),
		s.d.BindTime(t))
	if err != nil {
		return s.fail("set sync cursor", err)
	}
	return nil
}
