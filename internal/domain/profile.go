package domain

import "time"

// BabyProfile is the snapshot of a baby used during one generation cycle.
type BabyProfile struct {
	BabyID    int64    `json:"babyId"`
	AgeMonths int      `json:"ageMonths"`
	Allergies []string `json:"allergies"`
	Dislikes  []string `json:"dislikes"`
}

// Profile captures the baby's state on the given day.
func (b Baby) Profile(on time.Time) BabyProfile {
	return BabyProfile{
		BabyID:    b.ID,
		AgeMonths: b.AgeInMonths(on),
		Allergies: append([]string(nil), b.Allergies...),
		Dislikes:  append([]string(nil), b.Dislikes...),
	}
}

// NutritionTargetProvider returns daily targets for an age.
type NutritionTargetProvider interface {
	GoalForAge(ageMonths int) NutritionGoal
}

// SafetyFilter classifies how safe a recipe is for a baby.
type SafetyFilter interface {
	Risk(r Recipe, b BabyProfile) RiskLevel
}
