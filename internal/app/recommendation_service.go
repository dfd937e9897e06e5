package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"babyplate/internal/advisor"
	"babyplate/internal/clock"
	"babyplate/internal/conflict"
	"babyplate/internal/domain"
	"babyplate/internal/recommend"
)

const (
	minAgeMonths = 6
	maxAgeMonths = 36
)

// RecommendationConfig selects the collaborators and tuning of generation.
// Nil providers fall back to the advisor defaults.
type RecommendationConfig struct {
	Targets             domain.NutritionTargetProvider
	Safety              domain.SafetyFilter
	CooldownDays        int
	HomemadeBelowMonths int
	Inventory           []advisor.InventoryItem
}

// RecommendationService generates meal plans and saves them after conflict
// resolution.
type RecommendationService struct {
	babies    domain.BabyRepository
	recipes   domain.RecipeRepository
	plans     *PlanService
	targets   domain.NutritionTargetProvider
	safety    domain.SafetyFilter
	generator *recommend.Generator
	cooldown  int
	clock     clock.Clock
	log       *zap.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(babies domain.BabyRepository, recipes domain.RecipeRepository, plans *PlanService, cfg RecommendationConfig, log *zap.Logger) *RecommendationService {
	if cfg.Targets == nil {
		cfg.Targets = advisor.AgeTable{}
	}
	if cfg.Safety == nil {
		cfg.Safety = advisor.NewClassifier(nil, false)
	}
	if cfg.CooldownDays == 0 {
		cfg.CooldownDays = recommend.DefaultCooldownDays
	}
	if log == nil {
		log = zap.NewNop()
	}
	pipeline := advisor.Pipeline(advisor.Options{
		Safety:              cfg.Safety,
		HomemadeBelowMonths: cfg.HomemadeBelowMonths,
		Inventory:           cfg.Inventory,
	})
	return &RecommendationService{
		babies:    babies,
		recipes:   recipes,
		plans:     plans,
		targets:   cfg.Targets,
		safety:    cfg.Safety,
		generator: recommend.New(recommend.Config{CooldownDays: cfg.CooldownDays, Pipeline: pipeline}),
		cooldown:  max(cfg.CooldownDays, 0),
		clock:     plans.clock,
		log:       log,
	}
}

// GenerateDaily plans the four meals of one day.
func (s *RecommendationService) GenerateDaily(ctx context.Context, babyID int64, date string) (*domain.WeeklyMealPlan, error) {
	return s.GenerateWeekly(ctx, babyID, date, 1)
}

// GenerateWeekly plans days consecutive days starting at startDate. The
// result is not persisted.
func (s *RecommendationService) GenerateWeekly(ctx context.Context, babyID int64, startDate string, days int) (*domain.WeeklyMealPlan, error) {
	start, err := domain.ParseDay(startDate)
	if err != nil {
		return nil, err
	}
	baby, err := s.babies.GetBaby(ctx, babyID)
	if err != nil {
		return nil, err
	}
	if baby == nil {
		return nil, fmt.Errorf("baby %d: %w", babyID, domain.ErrNotFound)
	}

	profile := baby.Profile(start)
	if profile.AgeMonths < minAgeMonths || profile.AgeMonths > maxAgeMonths {
		return nil, domain.Invalid("age", "recommendations cover %d to %d months, baby is %d", minAgeMonths, maxAgeMonths, profile.AgeMonths)
	}
	goal := s.targets.GoalForAge(profile.AgeMonths)
	if baby.NutritionGoal != nil {
		goal = *baby.NutritionGoal
	}

	recipes, err := s.recipes.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	pool := advisor.FilterPool(recipes, profile, s.safety)

	existing, err := s.plans.ListPlans(ctx, babyID)
	if err != nil {
		return nil, err
	}
	from := domain.AddDays(startDate, -s.cooldown)
	var history []domain.Plan
	for _, p := range existing {
		if p.PlannedDate >= from && p.PlannedDate < startDate {
			history = append(history, p)
		}
	}

	plan, err := s.generator.Generate(recommend.Input{
		Profile:   profile,
		Goal:      goal,
		Pool:      pool,
		StartDate: startDate,
		Days:      days,
		History:   history,
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("generated meal plan",
		zap.Int64("baby_id", babyID),
		zap.String("start", startDate),
		zap.Int("days", days),
		zap.Int("pool", len(pool)),
		zap.Int("unfilled", len(plan.Summary.Deficiencies)))
	return &plan, nil
}

// DetectConflicts compares plan with the baby's persisted plans.
func (s *RecommendationService) DetectConflicts(ctx context.Context, babyID int64, plan domain.WeeklyMealPlan) ([]domain.PlanConflict, error) {
	existing, err := s.plans.ListPlans(ctx, babyID)
	if err != nil {
		return nil, err
	}
	return conflict.Detect(babyID, plan, existing), nil
}

// SaveResult reports the outcome of SaveRecommendation.
type SaveResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Saved     int    `json:"savedCount"`
	Updated   int    `json:"updatedCount"`
	Skipped   int    `json:"skippedCount"`
	Unchanged int    `json:"unchangedCount"`
}

// SaveRecommendation persists plan according to resolution, with edits
// taking precedence over the generated meals. Conflicts are detected again
// under the baby's write lock, so the decision applies to the current store.
func (s *RecommendationService) SaveRecommendation(ctx context.Context, babyID int64, plan domain.WeeklyMealPlan, resolution domain.ConflictResolution, edits []domain.PlannedMeal) (SaveResult, error) {
	if !resolution.Valid() {
		return SaveResult{}, domain.Invalid("resolution", "unknown conflict resolution %q", resolution)
	}
	if plan.BabyID != 0 && plan.BabyID != babyID {
		return SaveResult{}, domain.Invalid("babyId", "plan was generated for baby %d", plan.BabyID)
	}
	if resolution == domain.ResolveCancel {
		return SaveResult{Success: true, Message: "save cancelled, nothing was written"}, nil
	}

	var res conflict.Result
	_, err := s.plans.Apply(ctx, babyID, func(existing []domain.Plan) ([]conflict.Operation, error) {
		var err error
		res, err = conflict.Resolve(babyID, plan, existing, resolution, edits)
		return res.Operations, err
	})
	if err != nil {
		s.log.Error("save recommendation failed", zap.Int64("baby_id", babyID), zap.Error(err))
		return SaveResult{Success: false, Message: err.Error()}, err
	}

	out := SaveResult{Success: true, Skipped: res.Skipped, Unchanged: res.Unchanged}
	for _, op := range res.Operations {
		if op.Kind == conflict.OpUpdate {
			out.Updated++
		} else {
			out.Saved++
		}
	}
	out.Message = fmt.Sprintf("saved %d meals, updated %d, skipped %d conflicting", out.Saved, out.Updated, out.Skipped)
	return out, nil
}
