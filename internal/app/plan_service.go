// Package app holds the application services and business logic.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"babyplate/internal/clock"
	"babyplate/internal/conflict"
	"babyplate/internal/domain"
	"babyplate/internal/replica"
	"babyplate/internal/watch"
)

// PlanStore is the persistence a PlanService needs.
type PlanStore interface {
	domain.PlanRepository
	domain.AuditRepository
	domain.SyncCursorRepository
}

// PlanService is the plan repository contract: every write goes through the
// sync state machine under a per-baby lock, and reads are live subscriptions.
type PlanService struct {
	store PlanStore
	clock clock.Clock
	log   *zap.Logger
	locks *keyedMutex
	hub   *watch.Hub[int64, []domain.Plan]
}

var _ replica.LocalStore = (*PlanService)(nil)

// NewPlanService creates a PlanService backed by store.
func NewPlanService(store PlanStore, clk clock.Clock, log *zap.Logger) *PlanService {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlanService{
		store: store,
		clock: clk,
		log:   log,
		locks: newKeyedMutex(),
		hub:   watch.NewHub[int64, []domain.Plan](),
	}
}

// ListPlans returns the current non-deleted plans of a baby.
func (s *PlanService) ListPlans(ctx context.Context, babyID int64) ([]domain.Plan, error) {
	return s.store.ListPlans(ctx, babyID)
}

// PlansForBaby subscribes to the non-deleted plans of a baby. The channel
// yields the current snapshot, then a new snapshot after every write, and is
// closed when ctx is done.
func (s *PlanService) PlansForBaby(ctx context.Context, babyID int64) (<-chan []domain.Plan, error) {
	unlock := s.locks.Lock(babyID)
	defer unlock()

	snapshot, err := s.store.ListPlans(ctx, babyID)
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, babyID, snapshot), nil
}

// InsertPlan stores a new plan as NEW_LOCAL.
func (s *PlanService) InsertPlan(ctx context.Context, p domain.Plan) (domain.Plan, error) {
	if p.Status == "" {
		p.Status = domain.StatusPlanned
	}
	if err := p.Validate(); err != nil {
		return domain.Plan{}, err
	}

	unlock := s.locks.Lock(p.BabyID)
	defer unlock()

	existing, err := s.store.ListPlans(ctx, p.BabyID)
	if err != nil {
		return domain.Plan{}, err
	}
	if occupant(existing, p.Slot(), 0) != nil {
		return domain.Plan{}, fmt.Errorf("%w: %s", domain.ErrSlotTaken, p.Slot())
	}

	written, err := s.store.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: replica.PrepareInsert(p, s.clock.Now())},
	})
	if err != nil {
		return domain.Plan{}, err
	}
	s.publish(ctx, p.BabyID)
	return written[0], nil
}

// UpdatePlan applies a local edit to a stored plan.
func (s *PlanService) UpdatePlan(ctx context.Context, p domain.Plan) (domain.Plan, error) {
	if err := p.Validate(); err != nil {
		return domain.Plan{}, err
	}

	unlock := s.locks.Lock(p.BabyID)
	defer unlock()

	cur, err := s.live(ctx, p.ID)
	if err != nil {
		return domain.Plan{}, err
	}
	if cur.BabyID != p.BabyID {
		return domain.Plan{}, domain.Invalid("babyId", "plan %d belongs to baby %d", p.ID, cur.BabyID)
	}
	if p.Slot() != cur.Slot() {
		existing, err := s.store.ListPlans(ctx, p.BabyID)
		if err != nil {
			return domain.Plan{}, err
		}
		if occupant(existing, p.Slot(), p.ID) != nil {
			return domain.Plan{}, fmt.Errorf("%w: %s", domain.ErrSlotTaken, p.Slot())
		}
	}

	written, err := s.store.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteUpdate, Plan: replica.PrepareUpdate(p, *cur, false, s.clock.Now())},
	})
	if err != nil {
		return domain.Plan{}, err
	}
	s.publish(ctx, p.BabyID)
	return written[0], nil
}

// DeletePlan tombstones the plan with p.ID. The row is purged once the
// remote confirms the deletion. Deleting a tombstone is a no-op.
func (s *PlanService) DeletePlan(ctx context.Context, p domain.Plan) error {
	found, err := s.store.GetPlan(ctx, p.ID)
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("plan %d: %w", p.ID, domain.ErrNotFound)
	}

	unlock := s.locks.Lock(found.BabyID)
	defer unlock()

	cur, err := s.store.GetPlan(ctx, p.ID)
	if err != nil {
		return err
	}
	if cur == nil || cur.IsDeleted {
		return nil
	}
	if _, err := s.store.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteUpdate, Plan: replica.PrepareDelete(*cur, s.clock.Now())},
	}); err != nil {
		return err
	}
	s.publish(ctx, cur.BabyID)
	return nil
}

// Apply runs resolve against the baby's current plans and writes the
// operations it returns as one atomic batch. Nothing is written when resolve
// fails or returns no operations.
func (s *PlanService) Apply(ctx context.Context, babyID int64, resolve func(existing []domain.Plan) ([]conflict.Operation, error)) ([]domain.Plan, error) {
	unlock := s.locks.Lock(babyID)
	defer unlock()

	existing, err := s.store.ListPlans(ctx, babyID)
	if err != nil {
		return nil, err
	}
	ops, err := resolve(existing)
	if err != nil || len(ops) == 0 {
		return nil, err
	}

	byID := make(map[int64]domain.Plan, len(existing))
	for _, p := range existing {
		byID[p.ID] = p
	}
	now := s.clock.Now()
	writes := make([]domain.PlanWrite, 0, len(ops))
	for _, op := range ops {
		if op.Plan.BabyID != babyID {
			return nil, domain.Invalid("babyId", "operation for baby %d in batch for baby %d", op.Plan.BabyID, babyID)
		}
		if err := op.Plan.Validate(); err != nil {
			return nil, err
		}
		switch op.Kind {
		case conflict.OpInsert:
			writes = append(writes, domain.PlanWrite{Kind: domain.WriteInsert, Plan: replica.PrepareInsert(op.Plan, now)})
		case conflict.OpUpdate:
			cur, ok := byID[op.Plan.ID]
			if !ok {
				return nil, fmt.Errorf("plan %d: %w", op.Plan.ID, domain.ErrNotFound)
			}
			writes = append(writes, domain.PlanWrite{Kind: domain.WriteUpdate, Plan: replica.PrepareUpdate(op.Plan, cur, false, now)})
		}
	}

	written, err := s.store.WritePlans(ctx, writes)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, babyID)
	return written, nil
}

// AuditLog returns the most recent merge decisions.
func (s *PlanService) AuditLog(ctx context.Context, limit int) ([]domain.MergeAudit, error) {
	return s.store.ListAudit(ctx, limit)
}

// live returns the stored, non-deleted plan with id.
func (s *PlanService) live(ctx context.Context, id int64) (*domain.Plan, error) {
	cur, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil || cur.IsDeleted {
		return nil, fmt.Errorf("plan %d: %w", id, domain.ErrNotFound)
	}
	return cur, nil
}

// publish pushes the baby's current plans to subscribers. Callers hold the
// baby's lock.
func (s *PlanService) publish(ctx context.Context, babyID int64) {
	if s.hub.Subscribers(babyID) == 0 {
		return
	}
	plans, err := s.store.ListPlans(context.WithoutCancel(ctx), babyID)
	if err != nil {
		s.log.Warn("refresh plan subscribers", zap.Int64("baby_id", babyID), zap.Error(err))
		return
	}
	s.hub.Publish(babyID, plans)
}

func occupant(plans []domain.Plan, slot domain.Slot, exceptID int64) *domain.Plan {
	for i := range plans {
		if plans[i].ID != exceptID && !plans[i].IsDeleted && plans[i].Slot() == slot {
			return &plans[i]
		}
	}
	return nil
}
