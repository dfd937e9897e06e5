package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babyplate/internal/domain"
)

const day = "2026-10-19"

func meal(date string, p domain.MealPeriod, recipeID int64) domain.PlannedMeal {
	return domain.PlannedMeal{Date: date, MealPeriod: p, Recipe: &domain.Recipe{ID: recipeID}}
}

func weekly(meals ...domain.PlannedMeal) domain.WeeklyMealPlan {
	plan := domain.WeeklyMealPlan{BabyID: 1, StartDate: day, EndDate: day}
	byDate := map[string]int{}
	for _, m := range meals {
		i, ok := byDate[m.Date]
		if !ok {
			plan.Days = append(plan.Days, domain.DailyMealPlan{Date: m.Date})
			i = len(plan.Days) - 1
			byDate[m.Date] = i
		}
		plan.Days[i].Meals = append(plan.Days[i].Meals, m)
	}
	return plan
}

func persisted(id, recipeID int64, p domain.MealPeriod, status domain.PlanStatus) domain.Plan {
	cloud := "cloud-" + p.String()
	return domain.Plan{
		ID: id, BabyID: 1, RecipeID: recipeID, PlannedDate: day, MealPeriod: p, Status: status,
		CloudID: &cloud, SyncStatus: domain.SyncSynced, Version: 3,
	}
}

func TestDetect(t *testing.T) {
	plan := weekly(meal(day, domain.Breakfast, 4), meal(day, domain.Lunch, 9), meal(day, domain.Dinner, 2))

	tests := []struct {
		name     string
		existing []domain.Plan
		want     int
	}{
		{"empty store", nil, 0},
		{"different recipe", []domain.Plan{persisted(10, 5, domain.Lunch, domain.StatusPlanned)}, 1},
		{"same recipe planned", []domain.Plan{persisted(10, 9, domain.Lunch, domain.StatusPlanned)}, 0},
		{"same recipe tried", []domain.Plan{persisted(10, 9, domain.Lunch, domain.StatusTried)}, 1},
		{"same recipe skipped", []domain.Plan{persisted(10, 2, domain.Dinner, domain.StatusSkipped)}, 1},
		{"other slot", []domain.Plan{persisted(10, 5, domain.Snack, domain.StatusPlanned)}, 0},
		{"tombstoned", []domain.Plan{func() domain.Plan {
			p := persisted(10, 5, domain.Lunch, domain.StatusPlanned)
			p.IsDeleted = true
			return p
		}()}, 0},
		{"other baby", []domain.Plan{func() domain.Plan {
			p := persisted(10, 5, domain.Lunch, domain.StatusPlanned)
			p.BabyID = 2
			return p
		}()}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, Detect(1, plan, tc.existing), tc.want)
		})
	}
}

func TestDetectIgnoresUnfilledSlots(t *testing.T) {
	plan := weekly(domain.PlannedMeal{Date: day, MealPeriod: domain.Snack, Unfilled: true})
	assert.Empty(t, Detect(1, plan, []domain.Plan{persisted(10, 5, domain.Snack, domain.StatusPlanned)}))
}

func TestResolveLunchCollision(t *testing.T) {
	existing := []domain.Plan{persisted(10, 5, domain.Lunch, domain.StatusPlanned)}
	plan := weekly(meal(day, domain.Breakfast, 4), meal(day, domain.Lunch, 9))

	conflicts := Detect(1, plan, existing)
	require.Len(t, conflicts, 1)
	assert.Equal(t, int64(5), conflicts[0].Existing.RecipeID)
	assert.Equal(t, int64(9), conflicts[0].Proposed.RecipeID)

	t.Run("skip conflicts", func(t *testing.T) {
		res, err := Resolve(1, plan, existing, domain.ResolveSkipConflicts, nil)
		require.NoError(t, err)
		require.Len(t, res.Operations, 1)
		assert.Equal(t, OpInsert, res.Operations[0].Kind)
		assert.Equal(t, domain.Breakfast, res.Operations[0].Plan.MealPeriod)
		assert.Equal(t, 1, res.Skipped)
	})

	t.Run("overwrite all", func(t *testing.T) {
		res, err := Resolve(1, plan, existing, domain.ResolveOverwriteAll, nil)
		require.NoError(t, err)
		require.Len(t, res.Operations, 2)
		assert.Equal(t, OpInsert, res.Operations[0].Kind)

		upd := res.Operations[1]
		assert.Equal(t, OpUpdate, upd.Kind)
		assert.Equal(t, int64(10), upd.Plan.ID)
		assert.Equal(t, int64(9), upd.Plan.RecipeID)
		assert.Equal(t, existing[0].CloudID, upd.Plan.CloudID)

		after := applyOps(existing, res.Operations)
		assert.Empty(t, Detect(1, plan, after))
	})

	t.Run("cancel", func(t *testing.T) {
		res, err := Resolve(1, plan, existing, domain.ResolveCancel, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Operations)
	})
}

func TestResolveOverwriteResetsStatus(t *testing.T) {
	existing := []domain.Plan{persisted(10, 9, domain.Lunch, domain.StatusTried)}
	plan := weekly(meal(day, domain.Lunch, 9))

	res, err := Resolve(1, plan, existing, domain.ResolveOverwriteAll, nil)
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, domain.StatusPlanned, res.Operations[0].Plan.Status)
}

func TestResolveUnchangedSlotEmitsNothing(t *testing.T) {
	existing := []domain.Plan{persisted(10, 9, domain.Lunch, domain.StatusPlanned)}
	plan := weekly(meal(day, domain.Lunch, 9))

	for _, r := range []domain.ConflictResolution{domain.ResolveOverwriteAll, domain.ResolveSkipConflicts} {
		res, err := Resolve(1, plan, existing, r, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Operations, string(r))
		assert.Equal(t, 1, res.Unchanged)
	}
}

func TestResolveEditsOverrideGenerator(t *testing.T) {
	existing := []domain.Plan{persisted(10, 5, domain.Lunch, domain.StatusPlanned)}
	plan := weekly(meal(day, domain.Breakfast, 4), meal(day, domain.Lunch, 9),
		domain.PlannedMeal{Date: day, MealPeriod: domain.Snack, Unfilled: true})

	edits := []domain.PlannedMeal{
		meal(day, domain.Lunch, 5),
		meal(day, domain.Snack, 12),
		{Date: day, MealPeriod: domain.Breakfast},
	}

	for _, r := range []domain.ConflictResolution{domain.ResolveOverwriteAll, domain.ResolveSkipConflicts} {
		t.Run(string(r), func(t *testing.T) {
			res, err := Resolve(1, plan, existing, r, edits)
			require.NoError(t, err)
			assert.Empty(t, res.Conflicts)
			require.Len(t, res.Operations, 1)
			assert.Equal(t, domain.Snack, res.Operations[0].Plan.MealPeriod)
			assert.Equal(t, int64(12), res.Operations[0].Plan.RecipeID)
		})
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	plan := weekly(meal(day, domain.Lunch, 9))

	_, err := Resolve(1, plan, nil, "MERGE", nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = Resolve(1, plan, nil, domain.ResolveOverwriteAll, []domain.PlannedMeal{meal("2026-12-01", domain.Lunch, 3)})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestApplyEditsDoesNotMutateInput(t *testing.T) {
	plan := weekly(meal(day, domain.Lunch, 9))
	_, err := ApplyEdits(plan, []domain.PlannedMeal{meal(day, domain.Lunch, 3)})
	require.NoError(t, err)
	assert.Equal(t, int64(9), plan.Days[0].Meals[0].RecipeID())
}

func applyOps(existing []domain.Plan, ops []Operation) []domain.Plan {
	out := append([]domain.Plan(nil), existing...)
	for _, op := range ops {
		if op.Kind == OpInsert {
			out = append(out, op.Plan)
			continue
		}
		for i := range out {
			if out[i].ID == op.Plan.ID {
				out[i] = op.Plan
			}
		}
	}
	return out
}
