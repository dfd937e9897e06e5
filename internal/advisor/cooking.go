package advisor

import (
	"babyplate/internal/domain"
	"babyplate/internal/recommend"
)

// DefaultHomemadeBelowMonths is the age below which homemade food is preferred.
const DefaultHomemadeBelowMonths = 12

// CookingMethod prefers homemade preparation for young babies.
type CookingMethod struct {
	HomemadeBelowMonths int
}

func (CookingMethod) Name() string { return "cooking-method" }

func (m CookingMethod) Score(r domain.Recipe, c recommend.Context) recommend.Signal {
	threshold := m.HomemadeBelowMonths
	if threshold == 0 {
		threshold = DefaultHomemadeBelowMonths
	}
	if c.Profile.AgeMonths >= threshold {
		return recommend.Signal{}
	}
	switch r.CookingMethod {
	case domain.CookingHomemade:
		return recommend.Signal{Score: 1}
	case domain.CookingHomemadeOrStore, "":
		return recommend.Signal{Score: 0.5}
	case domain.CookingStoreBought:
		return recommend.Signal{}
	}
	return recommend.Signal{}
}
