package sqlstore

import (
	"context"

	"babyplate/internal/domain"
)

// ListRecipes returns the catalogue ordered by id.
func (s *Store) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, min_age_months, max_age_months, cooking_method, category, ingredients, nutrition, meal_periods FROM recipes ORDER BY id;")
	if err != nil {
		return nil, s.fail("list recipes", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Recipe{}
	for rows.Next() {
		var r domain.Recipe
		if err := rows.Scan(&r.ID, &r.Name, &r.MinAgeMonths, &r.MaxAgeMonths, &r.CookingMethod, &r.Category,
			jsonCol{&r.Ingredients}, jsonCol{&r.Nutrition}, jsonCol{&r.MealPeriods}); err != nil {
			return nil, s.fail("list recipes", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRecipes upserts recipes by id in one transaction.
func (s *Store) SaveRecipes(ctx context.Context, recipes []domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("save recipes", err)
	}
	defer rollback(tx)

	stmt := s.q(`INSERT INTO recipes(id, name, min_age_months, max_age_months, cooking_method, category, ingredients, nutrition, meal_periods)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name=excluded.name, min_age_months=excluded.min_age_months,
max_age_months=excluded.max_age_months, cooking_method=excluded.cooking_method, category=excluded.category,
ingredients=excluded.ingredients, nutrition=excluded.nutrition, meal_periods=excluded.meal_periods;`)
	for _, r := range recipes {
		ingredients, err := toJSON(r.Ingredients)
		if err != nil {
			return err
		}
		nutrition, err := toJSON(r.Nutrition)
		if err != nil {
			return err
		}
		periods, err := toJSON(r.MealPeriods)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, r.ID, r.Name, r.MinAgeMonths, r.MaxAgeMonths, string(r.CookingMethod),
			r.Category, ingredients, nutrition, periods); err != nil {
			return s.fail("save recipe", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return s.fail("save recipes", err)
	}
	return nil
}
