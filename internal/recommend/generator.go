// Package recommend builds ephemeral meal plans from a safety-filtered recipe
// pool. Generation is pure: the same input always yields the same plan.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"babyplate/internal/domain"
)

const (
	// DefaultCooldownDays is how long a recipe rests before it is reused.
	DefaultCooldownDays = 2
	// MaxDays bounds a single generation request.
	MaxDays = 28
)

// Config tunes the generator.
type Config struct {
	CooldownDays int
	Pipeline     Pipeline
}

// DefaultPipeline scores nutrition fit and ingredient variety.
func DefaultPipeline() Pipeline {
	return Pipeline{
		{Scorer: NutritionFit{}, Weight: 1.0},
		{Scorer: Variety{}, Weight: 0.3},
	}
}

// Input is everything one generation needs.
type Input struct {
	Profile   domain.BabyProfile
	Goal      domain.NutritionGoal
	Pool      []domain.Recipe
	StartDate string
	Days      int
	// History holds recently persisted plans used for cool-down.
	History []domain.Plan
}

// Generator fills each (date, period) slot greedily.
type Generator struct {
	cooldown int
	pipeline Pipeline
}

// New creates a Generator. A zero cool-down means DefaultCooldownDays; use a
// negative value to disable cool-down.
func New(cfg Config) *Generator {
	g := &Generator{cooldown: cfg.CooldownDays, pipeline: cfg.Pipeline}
	if g.cooldown == 0 {
		g.cooldown = DefaultCooldownDays
	}
	if g.cooldown < 0 {
		g.cooldown = 0
	}
	if g.pipeline == nil {
		g.pipeline = DefaultPipeline()
	}
	return g
}

// Generate builds the plan for in. It fails only on invalid input; slots
// without candidates are reported as deficiencies.
func (g *Generator) Generate(in Input) (domain.WeeklyMealPlan, error) {
	if err := in.Goal.Validate(); err != nil {
		return domain.WeeklyMealPlan{}, err
	}
	if in.Days < 1 || in.Days > MaxDays {
		return domain.WeeklyMealPlan{}, domain.Invalid("days", "must be between 1 and %d", MaxDays)
	}
	if _, err := domain.ParseDay(in.StartDate); err != nil {
		return domain.WeeklyMealPlan{}, err
	}

	pool := append([]domain.Recipe(nil), in.Pool...)
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	st := newState(in.History)
	plan := domain.WeeklyMealPlan{
		BabyID:    in.Profile.BabyID,
		StartDate: in.StartDate,
		EndDate:   domain.AddDays(in.StartDate, in.Days-1),
	}

	for d := 0; d < in.Days; d++ {
		date := domain.AddDays(in.StartDate, d)
		day := domain.DailyMealPlan{Date: date}
		remaining := in.Goal.Nutrition()

		for _, period := range domain.MealPeriods {
			ctx := Context{
				Profile:         in.Profile,
				Goal:            in.Goal,
				Date:            date,
				Period:          period,
				Remaining:       remaining,
				UsedIngredients: st.ingredients,
			}
			r, ok := g.pick(pool, ctx, st)
			if !ok {
				day.Meals = append(day.Meals, domain.PlannedMeal{Date: date, MealPeriod: period, Unfilled: true})
				plan.Summary.Deficiencies = append(plan.Summary.Deficiencies, domain.Deficiency{
					Date:       date,
					MealPeriod: period,
					Reason:     "no eligible recipe",
				})
				continue
			}

			chosen := r
			day.Meals = append(day.Meals, domain.PlannedMeal{
				Date:       date,
				MealPeriod: period,
				Recipe:     &chosen,
				Notes:      contributionNote(r.Nutrition, in.Goal),
			})
			day.Nutrition = day.Nutrition.Add(r.Nutrition)
			remaining = subtract(remaining, r.Nutrition)
			st.use(r, date)
		}
		plan.Days = append(plan.Days, day)
	}

	summarize(&plan, in.Goal, in.Profile.AgeMonths)
	return plan, nil
}

// pick scores every candidate serving the slot and returns the best one.
// The cool-down window shrinks one day at a time until a candidate remains.
func (g *Generator) pick(pool []domain.Recipe, c Context, st *state) (domain.Recipe, bool) {
	type scored struct {
		recipe domain.Recipe
		score  float64
	}
	var eligible []scored
	for _, r := range pool {
		if !r.Serves(c.Period) {
			continue
		}
		score, veto := g.pipeline.Evaluate(r, c)
		if veto {
			continue
		}
		eligible = append(eligible, scored{recipe: r, score: score})
	}
	if len(eligible) == 0 {
		return domain.Recipe{}, false
	}

	for window := g.cooldown; window >= 0; window-- {
		best := -1
		bestScore := math.Inf(-1)
		for i, e := range eligible {
			if st.usedWithin(e.recipe.ID, c.Date, window) {
				continue
			}
			// pool is sorted by id, so strict comparison keeps the lowest id on ties
			if e.score > bestScore {
				best, bestScore = i, e.score
			}
		}
		if best >= 0 {
			return eligible[best].recipe, true
		}
	}
	return domain.Recipe{}, false
}

// state tracks what has been planned so far.
type state struct {
	usage       map[int64]map[string]bool
	ingredients map[string]bool
}

func newState(history []domain.Plan) *state {
	st := &state{usage: map[int64]map[string]bool{}, ingredients: map[string]bool{}}
	for _, p := range history {
		if p.IsDeleted {
			continue
		}
		st.mark(p.RecipeID, p.PlannedDate)
	}
	return st
}

func (s *state) mark(recipeID int64, date string) {
	if s.usage[recipeID] == nil {
		s.usage[recipeID] = map[string]bool{}
	}
	s.usage[recipeID][date] = true
}

func (s *state) use(r domain.Recipe, date string) {
	s.mark(r.ID, date)
	for _, n := range r.IngredientNames() {
		s.ingredients[n] = true
	}
}

// usedWithin reports whether the recipe was planned on date or on any of the
// window preceding days. A zero window never matches.
func (s *state) usedWithin(recipeID int64, date string, window int) bool {
	if window <= 0 {
		return false
	}
	dates := s.usage[recipeID]
	for k := 0; k <= window; k++ {
		if dates[domain.AddDays(date, -k)] {
			return true
		}
	}
	return false
}

func contributionNote(n domain.Nutrition, g domain.NutritionGoal) string {
	return fmt.Sprintf("%.0f%% calories, %.0f%% protein, %.0f%% calcium, %.0f%% iron of the daily goal",
		pct(n.Calories, g.Calories), pct(n.Protein, g.Protein), pct(n.Calcium, g.Calcium), pct(n.Iron, g.Iron))
}

func pct(v, of float64) float64 {
	if of <= 0 {
		return 0
	}
	return 100 * v / of
}
