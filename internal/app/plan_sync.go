package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"babyplate/internal/domain"
	"babyplate/internal/replica"
)

// PendingPlans implements replica.LocalStore.
func (s *PlanService) PendingPlans(ctx context.Context) ([]domain.Plan, error) {
	return s.store.PendingPlans(ctx)
}

// ConfirmUpload implements replica.LocalStore.
func (s *PlanService) ConfirmUpload(ctx context.Context, sent domain.Plan, ack domain.RemoteAck) (replica.Confirmation, error) {
	unlock := s.locks.Lock(sent.BabyID)
	defer unlock()

	cur, err := s.store.GetPlan(ctx, sent.ID)
	if err != nil {
		return replica.Confirmation{}, err
	}
	if cur == nil {
		return replica.Confirmation{}, fmt.Errorf("plan %d: %w", sent.ID, domain.ErrNotFound)
	}

	c := replica.Confirm(*cur, sent, ack, s.clock.Now())
	w := domain.PlanWrite{Kind: domain.WriteUpdate, Plan: c.Plan}
	if c.Purge {
		w.Kind = domain.WritePurge
	}
	if _, err := s.store.WritePlans(ctx, []domain.PlanWrite{w}); err != nil {
		return replica.Confirmation{}, err
	}
	s.publish(ctx, sent.BabyID)
	return c, nil
}

// PurgeUnsynced implements replica.LocalStore.
func (s *PlanService) PurgeUnsynced(ctx context.Context, sent domain.Plan) (bool, error) {
	unlock := s.locks.Lock(sent.BabyID)
	defer unlock()

	cur, err := s.store.GetPlan(ctx, sent.ID)
	if err != nil || cur == nil {
		return false, err
	}
	if !cur.IsDeleted || cur.CloudID != nil {
		return false, nil
	}
	if _, err := s.store.WritePlans(ctx, []domain.PlanWrite{{Kind: domain.WritePurge, Plan: *cur}}); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyRemote implements replica.LocalStore. The local match is the row with
// the same cloud id, or else a never-uploaded row in the same slot.
func (s *PlanService) ApplyRemote(ctx context.Context, rp domain.RemotePlan) (replica.MergeAction, error) {
	if rp.CloudID == "" {
		return replica.MergeIgnore, domain.Invalid("cloudId", "remote plan without identity")
	}
	if err := rp.ToPlan().Validate(); err != nil && !rp.Deleted {
		return replica.MergeIgnore, err
	}

	unlock := s.locks.Lock(rp.BabyID)
	defer unlock()

	local, err := s.store.FindPlanByCloudID(ctx, rp.CloudID)
	if err != nil {
		return replica.MergeIgnore, err
	}
	if local != nil && local.BabyID != rp.BabyID {
		return replica.MergeIgnore, domain.Invalid("babyId", "remote plan %s moved from baby %d to %d", rp.CloudID, local.BabyID, rp.BabyID)
	}
	if local == nil && !rp.Deleted {
		existing, err := s.store.ListPlans(ctx, rp.BabyID)
		if err != nil {
			return replica.MergeIgnore, err
		}
		if occ := occupant(existing, rp.ToPlan().Slot(), 0); occ != nil {
			if occ.CloudID != nil {
				s.log.Warn("remote plan targets an occupied slot, ignoring",
					zap.String("cloud_id", rp.CloudID), zap.String("occupant", *occ.CloudID))
				return replica.MergeIgnore, nil
			}
			local = occ
		}
	}

	dec := replica.Merge(local, rp, s.clock.Now())
	w := domain.PlanWrite{Plan: dec.Plan, Audit: dec.Audit}
	switch dec.Action {
	case replica.MergeIgnore:
		return dec.Action, nil
	case replica.MergeInsert:
		w.Kind = domain.WriteInsert
	case replica.MergeOverwrite, replica.MergeKeepLocal:
		w.Kind = domain.WriteUpdate
	case replica.MergePurge:
		w.Kind = domain.WritePurge
	}
	if _, err := s.store.WritePlans(ctx, []domain.PlanWrite{w}); err != nil {
		return replica.MergeIgnore, err
	}
	if dec.Audit != nil {
		s.log.Info("resolved write-write race",
			zap.String("cloud_id", rp.CloudID),
			zap.String("winner", string(dec.Audit.Winner)),
			zap.String("resolution", dec.Audit.Resolution))
	}
	s.publish(ctx, rp.BabyID)
	return dec.Action, nil
}

// SyncCursor implements replica.LocalStore.
func (s *PlanService) SyncCursor(ctx context.Context) (*time.Time, error) {
	return s.store.SyncCursor(ctx)
}

// SetSyncCursor implements replica.LocalStore.
func (s *PlanService) SetSyncCursor(ctx context.Context, t time.Time) error {
	return s.store.SetSyncCursor(ctx, t)
}
