package domain

import (
	"fmt"
	"strings"
)

// MealPeriod identifies a meal slot within a day. The numeric order is the
// order in which slots are filled.
type MealPeriod int

const (
	Breakfast MealPeriod = iota
	Lunch
	Dinner
	Snack
)

// MealPeriods lists every period in fill order.
var MealPeriods = []MealPeriod{Breakfast, Lunch, Dinner, Snack}

func (p MealPeriod) String() string {
	switch p {
	case Breakfast:
		return "BREAKFAST"
	case Lunch:
		return "LUNCH"
	case Dinner:
		return "DINNER"
	case Snack:
		return "SNACK"
	}
	return fmt.Sprintf("MealPeriod(%d)", int(p))
}

// Valid reports whether p is one of the declared periods.
func (p MealPeriod) Valid() bool {
	return p >= Breakfast && p <= Snack
}

// ParseMealPeriod converts the wire name of a period.
func ParseMealPeriod(s string) (MealPeriod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BREAKFAST":
		return Breakfast, nil
	case "LUNCH":
		return Lunch, nil
	case "DINNER":
		return Dinner, nil
	case "SNACK":
		return Snack, nil
	}
	return 0, Invalid("mealPeriod", "unknown meal period %q", s)
}

func (p MealPeriod) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, Invalid("mealPeriod", "unknown meal period %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *MealPeriod) UnmarshalText(b []byte) error {
	v, err := ParseMealPeriod(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// PlanStatus records what the caregiver did with a planned meal.
type PlanStatus string

const (
	StatusPlanned PlanStatus = "PLANNED"
	StatusTried   PlanStatus = "TRIED"
	StatusSkipped PlanStatus = "SKIPPED"
)

// Valid reports whether s is one of the declared statuses.
func (s PlanStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusTried, StatusSkipped:
		return true
	}
	return false
}

func (s *PlanStatus) UnmarshalText(b []byte) error {
	v := PlanStatus(strings.ToUpper(string(b)))
	if !v.Valid() {
		return Invalid("status", "unknown plan status %q", string(b))
	}
	*s = v
	return nil
}
