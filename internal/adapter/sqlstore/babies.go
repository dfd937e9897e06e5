package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"babyplate/internal/domain"
)

const babyColumns = "id, name, birth_date, allergies, dislikes, nutrition_goal"

func scanBaby(row interface{ Scan(...any) error }) (domain.Baby, error) {
	var b domain.Baby
	var goal *domain.NutritionGoal
	err := row.Scan(&b.ID, &b.Name, &b.BirthDate,
		jsonCol{&b.Allergies}, jsonCol{&b.Dislikes}, jsonCol{&goal})
	b.NutritionGoal = goal
	return b, err
}

// ListBabies returns all babies ordered by id.
func (s *Store) ListBabies(ctx context.Context) ([]domain.Baby, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+babyColumns+" FROM babies ORDER BY id;")
	if err != nil {
		return nil, s.fail("list babies", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Baby{}
	for rows.Next() {
		b, err := scanBaby(rows)
		if err != nil {
			return nil, s.fail("list babies", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBaby returns the baby with id or nil.
func (s *Store) GetBaby(ctx context.Context, id int64) (*domain.Baby, error) {
	b, err := scanBaby(s.db.QueryRowContext(ctx, s.q("SELECT "+babyColumns+" FROM babies WHERE id=?;"), id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("get baby", err)
	}
	return &b, nil
}

// SaveBaby inserts b when b.ID is zero and replaces it otherwise.
func (s *Store) SaveBaby(ctx context.Context, b domain.Baby) (domain.Baby, error) {
	allergies, err := toJSON(nonNil(b.Allergies))
	if err != nil {
		return domain.Baby{}, err
	}
	dislikes, err := toJSON(nonNil(b.Dislikes))
	if err != nil {
		return domain.Baby{}, err
	}
	var goal any
	if b.NutritionGoal != nil {
		if goal, err = toJSON(b.NutritionGoal); err != nil {
			return domain.Baby{}, err
		}
	}

	if b.ID == 0 {
		err := s.db.QueryRowContext(ctx,
			s.q("INSERT INTO babies(name, birth_date, allergies, dislikes, nutrition_goal) VALUES(?, ?, ?, ?, ?) RETURNING id;"),
			b.Name, b.BirthDate, allergies, dislikes, goal,
		).Scan(&b.ID)
		if err != nil {
			return domain.Baby{}, s.fail("insert baby", err)
		}
		return b, nil
	}

	res, err := s.db.ExecContext(ctx,
		s.q("UPDATE babies SET name=?, birth_date=?, allergies=?, dislikes=?, nutrition_goal=? WHERE id=?;"),
		b.Name, b.BirthDate, allergies, dislikes, goal, b.ID)
	if err != nil {
		return domain.Baby{}, s.fail("update baby", err)
	}
	if err := expectRow(res, fmt.Sprintf("baby %d", b.ID)); err != nil {
		return domain.Baby{}, err
	}
	return b, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
