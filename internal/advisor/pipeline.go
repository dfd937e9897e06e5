package advisor

import (
	"babyplate/internal/domain"
	"babyplate/internal/recommend"
)

// Options selects the providers of the full scoring pipeline.
type Options struct {
	Safety              domain.SafetyFilter
	HomemadeBelowMonths int
	Inventory           []InventoryItem
}

// Pipeline returns the nutrition and variety scorers followed by the safety,
// cooking-method and, when inventory is known, freshness providers.
func Pipeline(o Options) recommend.Pipeline {
	safety := o.Safety
	if safety == nil {
		safety = NewClassifier(nil, false)
	}
	p := recommend.DefaultPipeline().
		With(Safety{Filter: safety}, 1.0).
		With(CookingMethod{HomemadeBelowMonths: o.HomemadeBelowMonths}, 0.2)
	if len(o.Inventory) > 0 {
		p = p.With(Freshness{Inventory: o.Inventory}, 0.2)
	}
	return p
}

// FilterPool keeps the recipes whose age range covers the baby and whose
// risk is not forbidden.
func FilterPool(recipes []domain.Recipe, b domain.BabyProfile, f domain.SafetyFilter) []domain.Recipe {
	out := make([]domain.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if !r.SuitsAge(b.AgeMonths) {
			continue
		}
		if f.Risk(r, b) == domain.RiskForbidden {
			continue
		}
		out = append(out, r)
	}
	return out
}
