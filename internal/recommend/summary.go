package recommend

import (
	"fmt"
	"math"
	"strings"

	"babyplate/internal/domain"
)

// weeklyLimits returns how many fish and egg meals a week suit a baby of the
// given age.
func weeklyLimits(ageMonths int) (fish, egg int) {
	switch {
	case ageMonths < 12:
		return 1, 2
	case ageMonths < 24:
		return 2, 3
	}
	return 2, 4
}

func summarize(plan *domain.WeeklyMealPlan, goal domain.NutritionGoal, ageMonths int) {
	s := &plan.Summary
	s.Goal = goal

	fish, egg := 0, 0
	for _, d := range plan.Days {
		s.Total = s.Total.Add(d.Nutrition)
		missing := domain.Nutrition{
			Calories: math.Max(0, goal.Calories-d.Nutrition.Calories),
			Protein:  math.Max(0, goal.Protein-d.Nutrition.Protein),
			Calcium:  math.Max(0, goal.Calcium-d.Nutrition.Calcium),
			Iron:     math.Max(0, goal.Iron-d.Nutrition.Iron),
		}
		if missing != (domain.Nutrition{}) {
			s.Shortfalls = append(s.Shortfalls, domain.DailyShortfall{Date: d.Date, Missing: missing})
		}
		for _, m := range d.Meals {
			if m.Recipe == nil {
				continue
			}
			cat := strings.ToLower(m.Recipe.Category)
			if strings.Contains(cat, "fish") {
				fish++
			}
			if strings.Contains(cat, "egg") {
				egg++
			}
		}
	}
	if n := len(plan.Days); n > 0 {
		s.DailyAverage = s.Total.Scale(1 / float64(n))
	}

	weeks := int(math.Ceil(float64(len(plan.Days)) / 7))
	maxFishPerWeek, maxEggPerWeek := weeklyLimits(ageMonths)
	if fish > maxFishPerWeek*weeks {
		s.Highlights = append(s.Highlights, fmt.Sprintf("fish planned %d times, limit is %d per week", fish, maxFishPerWeek))
	}
	if egg > maxEggPerWeek*weeks {
		s.Highlights = append(s.Highlights, fmt.Sprintf("egg planned %d times, limit is %d per week", egg, maxEggPerWeek))
	}
	if avg := s.DailyAverage.Calories; avg < 0.8*goal.Calories {
		s.Highlights = append(s.Highlights, fmt.Sprintf("average %.0f kcal per day is below 80%% of the %.0f kcal goal", avg, goal.Calories))
	} else if avg > 1.2*goal.Calories {
		s.Highlights = append(s.Highlights, fmt.Sprintf("average %.0f kcal per day is above 120%% of the %.0f kcal goal", avg, goal.Calories))
	}
	if n := len(s.Deficiencies); n > 0 {
		s.Highlights = append(s.Highlights, fmt.Sprintf("%d meal slots could not be filled", n))
	}
}
