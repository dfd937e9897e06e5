package domain

import "math"

// NutritionGoal is a daily nutrition target. Calcium and iron are in mg,
// protein in g.
type NutritionGoal struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Calcium  float64 `json:"calcium"`
	Iron     float64 `json:"iron"`
}

var goalLimits = []struct {
	field string
	get   func(NutritionGoal) float64
	max   float64
}{
	{"calories", func(g NutritionGoal) float64 { return g.Calories }, 4000},
	{"protein", func(g NutritionGoal) float64 { return g.Protein }, 200},
	{"calcium", func(g NutritionGoal) float64 { return g.Calcium }, 2500},
	{"iron", func(g NutritionGoal) float64 { return g.Iron }, 45},
}

// Validate rejects non-finite, non-positive or implausibly large targets.
func (g NutritionGoal) Validate() error {
	for _, l := range goalLimits {
		v := l.get(g)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Invalid("nutritionGoal."+l.field, "must be a finite number")
		}
		if v <= 0 || v > l.max {
			return Invalid("nutritionGoal."+l.field, "%.2f is outside (0, %.0f]", v, l.max)
		}
	}
	return nil
}

// Nutrition returns the goal as a Nutrition value for arithmetic.
func (g NutritionGoal) Nutrition() Nutrition {
	return Nutrition{Calories: g.Calories, Protein: g.Protein, Calcium: g.Calcium, Iron: g.Iron}
}
