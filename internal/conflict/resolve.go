package conflict

import (
	"sort"

	"babyplate/internal/domain"
)

// OpKind is the kind of write a resolution emits.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
)

func (k OpKind) String() string {
	if k == OpUpdate {
		return "update"
	}
	return "insert"
}

// Operation is one write for the sync state machine. For updates Plan
// carries the existing plan's id and sync fields with the new content.
type Operation struct {
	Kind OpKind
	Plan domain.Plan
}

// Result is the outcome of Resolve.
type Result struct {
	Operations []Operation
	// Conflicts are the conflicts found after edits were applied.
	Conflicts []domain.PlanConflict
	// Skipped counts conflicting slots left untouched.
	Skipped int
	// Unchanged counts slots already persisted with the proposed recipe.
	Unchanged int
}

// Resolve applies edits to plan, detects conflicts against existing and
// emits the writes the resolution calls for. Operations come out in date and
// period order.
func Resolve(babyID int64, plan domain.WeeklyMealPlan, existing []domain.Plan, resolution domain.ConflictResolution, edits []domain.PlannedMeal) (Result, error) {
	if !resolution.Valid() {
		return Result{}, domain.Invalid("resolution", "unknown conflict resolution %q", resolution)
	}
	if resolution == domain.ResolveCancel {
		return Result{}, nil
	}
	edited, err := ApplyEdits(plan, edits)
	if err != nil {
		return Result{}, err
	}

	index := indexBySlot(babyID, existing)
	var res Result
	for _, p := range Proposed(babyID, edited) {
		cur, ok := index[p.Slot()]
		switch {
		case !ok:
			res.Operations = append(res.Operations, Operation{Kind: OpInsert, Plan: p})
		case !conflicts(cur, p):
			res.Unchanged++
		case resolution == domain.ResolveOverwriteAll:
			res.Conflicts = append(res.Conflicts, domain.PlanConflict{Existing: cur, Proposed: p})
			next := cur
			next.RecipeID = p.RecipeID
			next.Status = domain.StatusPlanned
			next.Notes = p.Notes
			res.Operations = append(res.Operations, Operation{Kind: OpUpdate, Plan: next})
		default:
			res.Conflicts = append(res.Conflicts, domain.PlanConflict{Existing: cur, Proposed: p})
			res.Skipped++
		}
	}
	return res, nil
}

// ApplyEdits returns a copy of plan where each edited (date, period) slot is
// replaced by the edit. An edit without a recipe clears the slot.
func ApplyEdits(plan domain.WeeklyMealPlan, edits []domain.PlannedMeal) (domain.WeeklyMealPlan, error) {
	if len(edits) == 0 {
		return plan, nil
	}
	out := plan
	out.Days = make([]domain.DailyMealPlan, len(plan.Days))
	for i, d := range plan.Days {
		out.Days[i] = d
		out.Days[i].Meals = append([]domain.PlannedMeal(nil), d.Meals...)
	}

	for _, e := range edits {
		if !e.MealPeriod.Valid() {
			return domain.WeeklyMealPlan{}, domain.Invalid("editedMeals", "unknown meal period %d", int(e.MealPeriod))
		}
		if e.Recipe != nil && e.Recipe.ID <= 0 {
			return domain.WeeklyMealPlan{}, domain.Invalid("editedMeals", "edit for %s %s has no recipe id", e.Date, e.MealPeriod)
		}
		if !replaceMeal(&out, e) {
			return domain.WeeklyMealPlan{}, domain.Invalid("editedMeals", "%s %s is outside the plan", e.Date, e.MealPeriod)
		}
	}
	return out, nil
}

func replaceMeal(plan *domain.WeeklyMealPlan, e domain.PlannedMeal) bool {
	for i := range plan.Days {
		if plan.Days[i].Date != e.Date {
			continue
		}
		meal := e
		meal.Unfilled = e.Recipe == nil
		for j := range plan.Days[i].Meals {
			if plan.Days[i].Meals[j].MealPeriod == e.MealPeriod {
				plan.Days[i].Meals[j] = meal
				return true
			}
		}
		meals := append(plan.Days[i].Meals, meal)
		sort.Slice(meals, func(a, b int) bool { return meals[a].MealPeriod < meals[b].MealPeriod })
		plan.Days[i].Meals = meals
		return true
	}
	return false
}
