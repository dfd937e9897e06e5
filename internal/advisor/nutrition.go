// Package advisor provides the default nutrition, safety, cooking-method and
// freshness collaborators used by the recommendation pipeline.
package advisor

import "babyplate/internal/domain"

// AgeTable returns daily nutrition targets by age bracket.
type AgeTable struct{}

var _ domain.NutritionTargetProvider = AgeTable{}

// GoalForAge implements domain.NutritionTargetProvider.
func (AgeTable) GoalForAge(ageMonths int) domain.NutritionGoal {
	switch {
	case ageMonths < 9:
		return domain.NutritionGoal{Calories: 500, Protein: 20, Calcium: 260, Iron: 8.8}
	case ageMonths < 12:
		return domain.NutritionGoal{Calories: 600, Protein: 25, Calcium: 350, Iron: 9}
	case ageMonths < 18:
		return domain.NutritionGoal{Calories: 700, Protein: 30, Calcium: 500, Iron: 9}
	case ageMonths < 24:
		return domain.NutritionGoal{Calories: 800, Protein: 35, Calcium: 600, Iron: 9}
	default:
		return domain.NutritionGoal{Calories: 1000, Protein: 40, Calcium: 800, Iron: 12}
	}
}
