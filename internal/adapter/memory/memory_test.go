package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"babyplate/internal/domain"
)

func plan(babyID int64, date string, period domain.MealPeriod) domain.Plan {
	return domain.Plan{
		BabyID:      babyID,
		RecipeID:    1,
		PlannedDate: date,
		MealPeriod:  period,
		Status:      domain.StatusPlanned,
		SyncStatus:  domain.SyncPendingUpload,
		Version:     1,
	}
}

func TestBabyRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	saved, err := db.SaveBaby(ctx, domain.Baby{Name: "Mia", BirthDate: "2026-01-01", Allergies: []string{"peanut"}})
	if err != nil {
		t.Fatalf("SaveBaby: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := db.GetBaby(ctx, saved.ID)
	if err != nil || got == nil {
		t.Fatalf("GetBaby: %v, %v", got, err)
	}
	got.Allergies[0] = "changed"
	again, _ := db.GetBaby(ctx, saved.ID)
	if again.Allergies[0] != "peanut" {
		t.Error("stored baby was mutated through a returned copy")
	}

	missing, err := db.GetBaby(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing baby, got %v, %v", missing, err)
	}

	if _, err := db.SaveBaby(ctx, domain.Baby{ID: 999, Name: "x", BirthDate: "2026-01-01"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecipeRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	if err := db.SaveRecipes(ctx, []domain.Recipe{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("SaveRecipes: %v", err)
	}
	if err := db.SaveRecipes(ctx, []domain.Recipe{{ID: 2, Name: "b2"}}); err != nil {
		t.Fatalf("SaveRecipes: %v", err)
	}
	list, _ := db.ListRecipes(ctx)
	if len(list) != 2 || list[0].ID != 1 || list[1].Name != "b2" {
		t.Errorf("unexpected recipes: %+v", list)
	}
}

func TestWritePlansAssignsIDsAndOrders(t *testing.T) {
	db := New()
	ctx := context.Background()

	written, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-20", domain.Dinner)},
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-19", domain.Snack)},
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-20", domain.Breakfast)},
	})
	if err != nil {
		t.Fatalf("WritePlans: %v", err)
	}
	if written[0].ID != 1 || written[2].ID != 3 {
		t.Errorf("unexpected ids: %d, %d", written[0].ID, written[2].ID)
	}

	list, _ := db.ListPlans(ctx, 1)
	if len(list) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(list))
	}
	if list[0].PlannedDate != "2026-10-19" || list[1].MealPeriod != domain.Breakfast || list[2].MealPeriod != domain.Dinner {
		t.Errorf("unexpected order: %+v", list)
	}
}

func TestWritePlansIsAtomic(t *testing.T) {
	db := New()
	ctx := context.Background()

	if _, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-19", domain.Lunch)},
	}); err != nil {
		t.Fatalf("WritePlans: %v", err)
	}

	_, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-20", domain.Lunch)},
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-19", domain.Lunch)},
	})
	if !errors.Is(err, domain.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	list, _ := db.ListPlans(ctx, 1)
	if len(list) != 1 {
		t.Errorf("expected the failed batch to leave 1 plan, got %d", len(list))
	}

	// The id counter is not consumed by a rolled back batch.
	written, _ := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-21", domain.Lunch)},
	})
	if written[0].ID != 2 {
		t.Errorf("expected id 2, got %d", written[0].ID)
	}
}

func TestTombstonesFreeTheSlot(t *testing.T) {
	db := New()
	ctx := context.Background()

	written, _ := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-19", domain.Lunch)},
	})
	tomb := written[0]
	tomb.IsDeleted = true
	tomb.Version++
	if _, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteUpdate, Plan: tomb},
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-19", domain.Lunch)},
	}); err != nil {
		t.Fatalf("WritePlans: %v", err)
	}

	list, _ := db.ListPlans(ctx, 1)
	if len(list) != 1 || list[0].ID != 2 {
		t.Errorf("expected only the new plan to be listed, got %+v", list)
	}
	got, _ := db.GetPlan(ctx, tomb.ID)
	if got == nil || !got.IsDeleted {
		t.Error("expected tombstone to remain readable by id")
	}
	pending, _ := db.PendingPlans(ctx)
	if len(pending) != 2 || pending[0].ID != 1 {
		t.Errorf("expected tombstone among pending plans, got %+v", pending)
	}

	if _, err := db.WritePlans(ctx, []domain.PlanWrite{{Kind: domain.WritePurge, Plan: tomb}}); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if got, _ := db.GetPlan(ctx, tomb.ID); got != nil {
		t.Error("expected purged plan to be gone")
	}
}

func TestCloudIDIsUnique(t *testing.T) {
	db := New()
	ctx := context.Background()
	id := "c-1"

	a := plan(1, "2026-10-19", domain.Lunch)
	a.CloudID = &id
	b := plan(1, "2026-10-20", domain.Lunch)
	b.CloudID = &id
	if _, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: a},
		{Kind: domain.WriteInsert, Plan: b},
	}); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	if _, err := db.WritePlans(ctx, []domain.PlanWrite{{Kind: domain.WriteInsert, Plan: a}}); err != nil {
		t.Fatalf("WritePlans: %v", err)
	}
	found, _ := db.FindPlanByCloudID(ctx, id)
	if found == nil || found.PlannedDate != "2026-10-19" {
		t.Errorf("FindPlanByCloudID: %+v", found)
	}
}

func TestUpdateMissingPlan(t *testing.T) {
	db := New()
	p := plan(1, "2026-10-19", domain.Lunch)
	p.ID = 42
	if _, err := db.WritePlans(context.Background(), []domain.PlanWrite{{Kind: domain.WriteUpdate, Plan: p}}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditAndCursor(t *testing.T) {
	db := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := db.AppendAudit(ctx, domain.MergeAudit{ID: id}); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}
	list, _ := db.ListAudit(ctx, 2)
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Errorf("unexpected audit: %+v", list)
	}

	cur, _ := db.SyncCursor(ctx)
	if cur != nil {
		t.Error("expected no cursor initially")
	}
	ts := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	if err := db.SetSyncCursor(ctx, ts); err != nil {
		t.Fatalf("SetSyncCursor: %v", err)
	}
	cur, _ = db.SyncCursor(ctx)
	if cur == nil || !cur.Equal(ts) {
		t.Errorf("expected cursor %v, got %v", ts, cur)
	}
}

func TestWritePlansRecordsAuditWithTheWrite(t *testing.T) {
	db := New()
	ctx := context.Background()

	written, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: plan(1, "2026-10-19", domain.Lunch)},
	})
	if err != nil {
		t.Fatalf("WritePlans: %v", err)
	}

	race := &domain.MergeAudit{ID: "a-1", PlanID: written[0].ID, CloudID: "c-1", Winner: domain.WinnerRemote}
	clash := plan(1, "2026-10-19", domain.Lunch)
	if _, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteInsert, Plan: clash, Audit: race},
	}); !errors.Is(err, domain.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if audit, _ := db.ListAudit(ctx, 0); len(audit) != 0 {
		t.Fatalf("expected a failed write to record no audit, got %d", len(audit))
	}

	upd := written[0]
	upd.RecipeID = 9
	if _, err := db.WritePlans(ctx, []domain.PlanWrite{
		{Kind: domain.WriteUpdate, Plan: upd, Audit: race},
	}); err != nil {
		t.Fatalf("WritePlans: %v", err)
	}
	audit, _ := db.ListAudit(ctx, 0)
	if len(audit) != 1 || audit[0].ID != "a-1" {
		t.Errorf("expected audit a-1, got %+v", audit)
	}
}
