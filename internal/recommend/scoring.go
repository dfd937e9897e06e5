package recommend

import (
	"math"

	"babyplate/internal/domain"
)

// Signal is one scorer's opinion of a candidate recipe for a slot. A veto
// removes the candidate from the slot regardless of its score.
type Signal struct {
	Score  float64
	Veto   bool
	Reason string
}

// Context describes the slot being filled.
type Context struct {
	Profile domain.BabyProfile
	Goal    domain.NutritionGoal
	Date    string
	Period  domain.MealPeriod
	// Remaining is what is left of the day's goal before this slot.
	Remaining domain.Nutrition
	// UsedIngredients holds lower-cased ingredient names already planned in
	// the current range.
	UsedIngredients map[string]bool
}

// Scorer produces a signal for a recipe in a slot context.
type Scorer interface {
	Name() string
	Score(r domain.Recipe, c Context) Signal
}

// Weighted attaches a weight to a scorer.
type Weighted struct {
	Scorer Scorer
	Weight float64
}

// Pipeline is an ordered, weighted list of scorers. The total is the
// weighted sum of every signal; any veto removes the candidate.
type Pipeline []Weighted

// Evaluate runs every scorer against r.
func (p Pipeline) Evaluate(r domain.Recipe, c Context) (float64, bool) {
	total := 0.0
	for _, w := range p {
		s := w.Scorer.Score(r, c)
		if s.Veto {
			return 0, true
		}
		total += w.Weight * s.Score
	}
	return total, false
}

// With returns a copy of p with s appended.
func (p Pipeline) With(s Scorer, weight float64) Pipeline {
	out := make(Pipeline, len(p), len(p)+1)
	copy(out, p)
	return append(out, Weighted{Scorer: s, Weight: weight})
}

// NutritionFit rewards recipes that reduce the squared relative deviation
// between the remaining daily goal and zero.
type NutritionFit struct{}

func (NutritionFit) Name() string { return "nutrition" }

func (NutritionFit) Score(r domain.Recipe, c Context) Signal {
	goal := c.Goal.Nutrition()
	before := deviation(c.Remaining, goal)
	after := deviation(subtract(c.Remaining, r.Nutrition), goal)
	return Signal{Score: before - after}
}

// Variety rewards the share of a recipe's ingredients not yet used in the
// planned range.
type Variety struct{}

func (Variety) Name() string { return "variety" }

func (Variety) Score(r domain.Recipe, c Context) Signal {
	names := r.IngredientNames()
	if len(names) == 0 {
		return Signal{}
	}
	fresh := 0
	for _, n := range names {
		if !c.UsedIngredients[n] {
			fresh++
		}
	}
	return Signal{Score: float64(fresh) / float64(len(names))}
}

func deviation(remaining, goal domain.Nutrition) float64 {
	return sq(remaining.Calories, goal.Calories) +
		sq(remaining.Protein, goal.Protein) +
		sq(remaining.Calcium, goal.Calcium) +
		sq(remaining.Iron, goal.Iron)
}

func sq(v, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return math.Pow(v/scale, 2)
}

func subtract(a, b domain.Nutrition) domain.Nutrition {
	return a.Add(b.Scale(-1))
}
