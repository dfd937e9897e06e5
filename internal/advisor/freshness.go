package advisor

import (
	"babyplate/internal/domain"
	"babyplate/internal/recommend"
)

// urgentDays is how close to expiry an item must be to earn the use-first bonus.
const urgentDays = 3

// InventoryItem is an ingredient on hand with its expiry day.
type InventoryItem struct {
	Name       string `json:"name"`
	ExpiryDate string `json:"expiryDate"`
}

// Freshness rewards recipes that use inventory items close to expiry on the
// slot's date. Expired items earn nothing.
type Freshness struct {
	Inventory []InventoryItem
}

func (Freshness) Name() string { return "freshness" }

func (f Freshness) Score(r domain.Recipe, c recommend.Context) recommend.Signal {
	if len(r.Ingredients) == 0 {
		return recommend.Signal{}
	}
	urgent := 0
	for _, ing := range r.Ingredients {
		for _, item := range f.Inventory {
			if !matchesTerm(ing.Name, item.Name) {
				continue
			}
			left := domain.DaysBetween(c.Date, item.ExpiryDate)
			if left >= 0 && left <= urgentDays {
				urgent++
				break
			}
		}
	}
	return recommend.Signal{Score: float64(urgent) / float64(len(r.Ingredients))}
}
