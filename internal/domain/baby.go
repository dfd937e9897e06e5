package domain

import (
	"context"
	"strings"
	"time"
)

// Baby is the profile meals are planned for.
type Baby struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	BirthDate     string         `json:"birthDate"`
	Allergies     []string       `json:"allergies"`
	Dislikes      []string       `json:"dislikes"`
	NutritionGoal *NutritionGoal `json:"nutritionGoal,omitempty"`
}

// AgeInMonths returns the completed months between the birth date and on.
// A month only counts once its day-of-month has been reached.
func (b Baby) AgeInMonths(on time.Time) int {
	birth, err := time.Parse(DayLayout, b.BirthDate)
	if err != nil {
		return 0
	}
	months := (on.Year()-birth.Year())*12 + int(on.Month()) - int(birth.Month())
	if on.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Validate checks the profile before it is stored.
func (b Baby) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return Invalid("name", "must not be empty")
	}
	if _, err := ParseDay(b.BirthDate); err != nil {
		return Invalid("birthDate", "%q is not a YYYY-MM-DD day", b.BirthDate)
	}
	if b.NutritionGoal != nil {
		if err := b.NutritionGoal.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BabyRepository is the port for baby profile persistence.
type BabyRepository interface {
	ListBabies(ctx context.Context) ([]Baby, error)
	GetBaby(ctx context.Context, id int64) (*Baby, error)
	// SaveBaby inserts b when b.ID is zero and replaces it otherwise.
	SaveBaby(ctx context.Context, b Baby) (Baby, error)
}
