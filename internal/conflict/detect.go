package conflict

import "babyplate/internal/domain"

// Proposed converts the filled meals of a plan into Plan-shaped values for
// babyID. Unfilled slots produce nothing.
func Proposed(babyID int64, plan domain.WeeklyMealPlan) []domain.Plan {
	var out []domain.Plan
	for _, m := range plan.Meals() {
		if m.Unfilled || m.Recipe == nil {
			continue
		}
		out = append(out, domain.Plan{
			BabyID:      babyID,
			RecipeID:    m.Recipe.ID,
			PlannedDate: m.Date,
			MealPeriod:  m.MealPeriod,
			Status:      domain.StatusPlanned,
			Notes:       m.Notes,
		})
	}
	return out
}

// Detect flags every proposed slot whose persisted, non-deleted plan has a
// different recipe or has already been acted on.
func Detect(babyID int64, plan domain.WeeklyMealPlan, existing []domain.Plan) []domain.PlanConflict {
	index := indexBySlot(babyID, existing)
	var out []domain.PlanConflict
	for _, p := range Proposed(babyID, plan) {
		cur, ok := index[p.Slot()]
		if !ok {
			continue
		}
		if conflicts(cur, p) {
			out = append(out, domain.PlanConflict{Existing: cur, Proposed: p})
		}
	}
	return out
}

func conflicts(existing, proposed domain.Plan) bool {
	return existing.RecipeID != proposed.RecipeID || existing.Status != domain.StatusPlanned
}

func indexBySlot(babyID int64, existing []domain.Plan) map[domain.Slot]domain.Plan {
	index := make(map[domain.Slot]domain.Plan, len(existing))
	for _, p := range existing {
		if p.IsDeleted || p.BabyID != babyID {
			continue
		}
		index[p.Slot()] = p
	}
	return index
}
