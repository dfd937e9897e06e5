package domain

import (
	"context"
	"slices"
	"strings"
)

// CookingMethod describes how a recipe is usually prepared.
type CookingMethod string

const (
	CookingHomemade        CookingMethod = "HOMEMADE"
	CookingStoreBought     CookingMethod = "STORE_BOUGHT"
	CookingHomemadeOrStore CookingMethod = "HOMEMADE_OR_STORE"
)

// Valid reports whether m is one of the declared methods.
func (m CookingMethod) Valid() bool {
	switch m {
	case CookingHomemade, CookingStoreBought, CookingHomemadeOrStore:
		return true
	}
	return false
}

func (m *CookingMethod) UnmarshalText(b []byte) error {
	v := CookingMethod(strings.ToUpper(string(b)))
	if v == "" {
		v = CookingHomemadeOrStore
	}
	if !v.Valid() {
		return Invalid("cookingMethod", "unknown cooking method %q", string(b))
	}
	*m = v
	return nil
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	Name       string `json:"name"`
	Amount     string `json:"amount,omitempty"`
	IsAllergen bool   `json:"isAllergen,omitempty"`
}

// Nutrition holds per-serving nutrition facts. Calcium and iron are in mg,
// protein, fat, carbohydrates and fiber in g.
type Nutrition struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat,omitempty"`
	Carbohydrates float64 `json:"carbohydrates,omitempty"`
	Fiber         float64 `json:"fiber,omitempty"`
	Calcium       float64 `json:"calcium"`
	Iron          float64 `json:"iron"`
}

// Add returns the element-wise sum of n and o.
func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories:      n.Calories + o.Calories,
		Protein:       n.Protein + o.Protein,
		Fat:           n.Fat + o.Fat,
		Carbohydrates: n.Carbohydrates + o.Carbohydrates,
		Fiber:         n.Fiber + o.Fiber,
		Calcium:       n.Calcium + o.Calcium,
		Iron:          n.Iron + o.Iron,
	}
}

// Scale multiplies every field by f.
func (n Nutrition) Scale(f float64) Nutrition {
	return Nutrition{
		Calories:      n.Calories * f,
		Protein:       n.Protein * f,
		Fat:           n.Fat * f,
		Carbohydrates: n.Carbohydrates * f,
		Fiber:         n.Fiber * f,
		Calcium:       n.Calcium * f,
		Iron:          n.Iron * f,
	}
}

// Recipe is a read-only candidate for meal planning.
type Recipe struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	MinAgeMonths  int           `json:"minAgeMonths"`
	MaxAgeMonths  int           `json:"maxAgeMonths"`
	Ingredients   []Ingredient  `json:"ingredients"`
	Nutrition     Nutrition     `json:"nutrition"`
	CookingMethod CookingMethod `json:"cookingMethod"`
	Category      string        `json:"category,omitempty"`
	// MealPeriods restricts the slots the recipe may fill. Empty means any.
	MealPeriods []MealPeriod `json:"mealPeriods,omitempty"`
}

// SuitsAge reports whether the recipe's age range covers ageMonths.
func (r Recipe) SuitsAge(ageMonths int) bool {
	if ageMonths < r.MinAgeMonths {
		return false
	}
	return r.MaxAgeMonths == 0 || ageMonths <= r.MaxAgeMonths
}

// Serves reports whether the recipe may fill period p.
func (r Recipe) Serves(p MealPeriod) bool {
	return len(r.MealPeriods) == 0 || slices.Contains(r.MealPeriods, p)
}

// IngredientNames returns the lower-cased, trimmed ingredient names.
func (r Recipe) IngredientNames() []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if n := strings.ToLower(strings.TrimSpace(ing.Name)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks a recipe before import.
func (r Recipe) Validate() error {
	if r.ID <= 0 {
		return Invalid("id", "recipe id must be positive")
	}
	if strings.TrimSpace(r.Name) == "" {
		return Invalid("name", "recipe %d has no name", r.ID)
	}
	if r.MinAgeMonths < 0 || (r.MaxAgeMonths != 0 && r.MaxAgeMonths < r.MinAgeMonths) {
		return Invalid("ageRange", "recipe %d has age range %d-%d", r.ID, r.MinAgeMonths, r.MaxAgeMonths)
	}
	if r.CookingMethod != "" && !r.CookingMethod.Valid() {
		return Invalid("cookingMethod", "recipe %d has cooking method %q", r.ID, r.CookingMethod)
	}
	for _, p := range r.MealPeriods {
		if !p.Valid() {
			return Invalid("mealPeriods", "recipe %d lists unknown period %d", r.ID, int(p))
		}
	}
	return nil
}

// RecipeRepository is the port for the recipe catalogue.
type RecipeRepository interface {
	ListRecipes(ctx context.Context) ([]Recipe, error)
	// SaveRecipes upserts the given recipes by ID.
	SaveRecipes(ctx context.Context, recipes []Recipe) error
}
