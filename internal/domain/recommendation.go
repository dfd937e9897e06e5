package domain

// PlannedMeal is an unpersisted recommendation for one slot. Recipe is nil
// and Unfilled is set when no eligible candidate existed.
type PlannedMeal struct {
	Date       string     `json:"date"`
	MealPeriod MealPeriod `json:"mealPeriod"`
	Recipe     *Recipe    `json:"recipe"`
	Unfilled   bool       `json:"unfilled"`
	Notes      string     `json:"notes,omitempty"`
}

// RecipeID returns the chosen recipe id or zero for an unfilled slot.
func (m PlannedMeal) RecipeID() int64 {
	if m.Recipe == nil {
		return 0
	}
	return m.Recipe.ID
}

// DailyMealPlan holds one planned meal per period, in period order.
type DailyMealPlan struct {
	Date      string        `json:"date"`
	Meals     []PlannedMeal `json:"meals"`
	Nutrition Nutrition     `json:"nutrition"`
}

// Deficiency marks a slot the generator could not fill.
type Deficiency struct {
	Date       string     `json:"date"`
	MealPeriod MealPeriod `json:"mealPeriod"`
	Reason     string     `json:"reason"`
}

// DailyShortfall is what remained of the daily goal after planning.
type DailyShortfall struct {
	Date    string    `json:"date"`
	Missing Nutrition `json:"missing"`
}

// NutritionSummary aggregates a generated plan.
type NutritionSummary struct {
	Goal         NutritionGoal    `json:"goal"`
	Total        Nutrition        `json:"total"`
	DailyAverage Nutrition        `json:"dailyAverage"`
	Shortfalls   []DailyShortfall `json:"shortfalls"`
	Deficiencies []Deficiency     `json:"deficiencies"`
	Highlights   []string         `json:"highlights"`
}

// WeeklyMealPlan is the ephemeral output of the generator over a date range.
type WeeklyMealPlan struct {
	BabyID    int64            `json:"babyId"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Days      []DailyMealPlan  `json:"days"`
	Summary   NutritionSummary `json:"summary"`
}

// Meals flattens the plan in date then period order.
func (w WeeklyMealPlan) Meals() []PlannedMeal {
	var out []PlannedMeal
	for _, d := range w.Days {
		out = append(out, d.Meals...)
	}
	return out
}

// Meal returns the planned meal for a date and period.
func (w WeeklyMealPlan) Meal(date string, p MealPeriod) (PlannedMeal, bool) {
	for _, d := range w.Days {
		if d.Date != date {
			continue
		}
		for _, m := range d.Meals {
			if m.MealPeriod == p {
				return m, true
			}
		}
	}
	return PlannedMeal{}, false
}
