package sqlstore

import (
	"context"
	"fmt"

	"babyplate/internal/domain"
)

const planColumns = "id, baby_id, recipe_id, planned_date, meal_period, status, notes, cloud_id, sync_status, last_sync_time, version, is_deleted, updated_at"

func scanPlan(row interface{ Scan(...any) error }) (domain.Plan, error) {
	var p domain.Plan
	var lastSync, updated timeCol
	err := row.Scan(&p.ID, &p.BabyID, &p.RecipeID, &p.PlannedDate, &p.MealPeriod, &p.Status, &p.Notes,
		&p.CloudID, &p.SyncStatus, &lastSync, &p.Version, &p.IsDeleted, &updated)
	p.LastSyncTime = lastSync.ptr()
	p.UpdatedAt = updated.t
	return p, err
}

func (s *Store) queryPlans(ctx context.Context, op, where string, args ...any) ([]domain.Plan, error) {
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+planColumns+" FROM plans "+where), args...)
	if err != nil {
		return nil, s.fail(op, err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, s.fail(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err)
	}
	return out, nil
}

func (s *Store) queryPlan(ctx context.Context, op, where string, args ...any) (*domain.Plan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx, s.q("SELECT "+planColumns+" FROM plans "+where), args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(op, err)
	}
	return &p, nil
}

// GetPlan returns the plan with id, tombstones included.
func (s *Store) GetPlan(ctx context.Context, id int64) (*domain.Plan, error) {
	return s.queryPlan(ctx, "get plan", "WHERE id=?;", id)
}

// FindPlanByCloudID returns the plan with the given remote identity.
func (s *Store) FindPlanByCloudID(ctx context.Context, cloudID string) (*domain.Plan, error) {
	return s.queryPlan(ctx, "find plan", "WHERE cloud_id=?;", cloudID)
}

// ListPlans returns the non-deleted plans of a baby.
func (s *Store) ListPlans(ctx context.Context, babyID int64) ([]domain.Plan, error) {
	return s.queryPlans(ctx, "list plans", "WHERE baby_id=? AND is_deleted=? ORDER BY planned_date, meal_period, id;", babyID, false)
}

// PendingPlans returns every plan waiting for upload.
func (s *Store) PendingPlans(ctx context.Context) ([]domain.Plan, error) {
	return s.queryPlans(ctx, "pending plans", "WHERE sync_status=? ORDER BY id;", string(domain.SyncPendingUpload))
}

// WritePlans applies writes in one transaction.
func (s *Store) WritePlans(ctx context.Context, writes []domain.PlanWrite) ([]domain.Plan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail("begin", err)
	}
	defer rollback(tx)

	out := make([]domain.Plan, 0, len(writes))
	for _, w := range writes {
		p := w.Plan
		switch w.Kind {
		case domain.WriteInsert:
			err := tx.QueryRowContext(ctx, s.q(`INSERT INTO plans(baby_id, recipe_id, planned_date, meal_period, status, notes,
cloud_id, sync_status, last_sync_time, version, is_deleted, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id;`),
				p.BabyID, p.RecipeID, p.PlannedDate, int(p.MealPeriod), string(p.Status), p.Notes,
				optString(p.CloudID), string(p.SyncStatus), s.bindTime(p.LastSyncTime), p.Version, p.IsDeleted, s.d.BindTime(p.UpdatedAt),
			).Scan(&p.ID)
			if err != nil {
				return nil, s.fail("insert plan", err)
			}
		case domain.WriteUpdate:
			res, err := tx.ExecContext(ctx, s.q(`UPDATE plans SET baby_id=?, recipe_id=?, planned_date=?, meal_period=?, status=?,
notes=?, cloud_id=?, sync_status=?, last_sync_time=?, version=?, is_deleted=?, updated_at=? WHERE id=?;`),
				p.BabyID, p.RecipeID, p.PlannedDate, int(p.MealPeriod), string(p.Status), p.Notes,
				optString(p.CloudID), string(p.SyncStatus), s.bindTime(p.LastSyncTime), p.Version, p.IsDeleted, s.d.BindTime(p.UpdatedAt), p.ID)
			if err != nil {
				return nil, s.fail("update plan", err)
			}
			if err := expectRow(res, fmt.Sprintf("plan %d", p.ID)); err != nil {
				return nil, err
			}
		case domain.WritePurge:
			if _, err := tx.ExecContext(ctx, s.q("DELETE FROM plans WHERE id=?;"), p.ID); err != nil {
				return nil, s.fail("purge plan", err)
			}
		default:
			return nil, fmt.Errorf("%w: unknown write kind %d", domain.ErrPersistence, w.Kind)
		}
		if w.Audit != nil {
			if err := s.insertAudit(ctx, tx, *w.Audit); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail("commit", err)
	}
	return out, nil
}
