package app

import (
	"context"
	"sync"

	"babyplate/internal/domain"
	"babyplate/internal/watch"
)

// CatalogService exposes babies and recipes as live queries.
type CatalogService struct {
	babies  domain.BabyRepository
	recipes domain.RecipeRepository

	mu        sync.Mutex
	babyHub   *watch.Hub[struct{}, []domain.Baby]
	recipeHub *watch.Hub[struct{}, []domain.Recipe]
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(babies domain.BabyRepository, recipes domain.RecipeRepository) *CatalogService {
	return &CatalogService{
		babies:    babies,
		recipes:   recipes,
		babyHub:   watch.NewHub[struct{}, []domain.Baby](),
		recipeHub: watch.NewHub[struct{}, []domain.Recipe](),
	}
}

// ListBabies returns every baby profile.
func (s *CatalogService) ListBabies(ctx context.Context) ([]domain.Baby, error) {
	return s.babies.ListBabies(ctx)
}

// ListRecipes returns the recipe catalogue.
func (s *CatalogService) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	return s.recipes.ListRecipes(ctx)
}

// AllBabies subscribes to the baby profiles.
func (s *CatalogService) AllBabies(ctx context.Context) (<-chan []domain.Baby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.babies.ListBabies(ctx)
	if err != nil {
		return nil, err
	}
	return s.babyHub.Subscribe(ctx, struct{}{}, list), nil
}

// AllRecipes subscribes to the recipe catalogue.
func (s *CatalogService) AllRecipes(ctx context.Context) (<-chan []domain.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.recipes.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	return s.recipeHub.Subscribe(ctx, struct{}{}, list), nil
}

// SaveBaby validates and stores a baby profile.
func (s *CatalogService) SaveBaby(ctx context.Context, b domain.Baby) (domain.Baby, error) {
	if err := b.Validate(); err != nil {
		return domain.Baby{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.babies.SaveBaby(ctx, b)
	if err != nil {
		return domain.Baby{}, err
	}
	if list, err := s.babies.ListBabies(ctx); err == nil {
		s.babyHub.Publish(struct{}{}, list)
	}
	return saved, nil
}

// ImportRecipes validates and upserts recipes.
func (s *CatalogService) ImportRecipes(ctx context.Context, recipes []domain.Recipe) error {
	for i := range recipes {
		if recipes[i].CookingMethod == "" {
			recipes[i].CookingMethod = domain.CookingHomemadeOrStore
		}
		if err := recipes[i].Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recipes.SaveRecipes(ctx, recipes); err != nil {
		return err
	}
	if list, err := s.recipes.ListRecipes(ctx); err == nil {
		s.recipeHub.Publish(struct{}{}, list)
	}
	return nil
}
