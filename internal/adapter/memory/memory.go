// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"babyplate/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.Mutex
	babies  map[int64]domain.Baby
	recipes map[int64]domain.Recipe
	plans   map[int64]domain.Plan
	audit   []domain.MergeAudit
	cursor  *time.Time

	babyIDCounter int64
	planIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		babies:  make(map[int64]domain.Baby),
		recipes: make(map[int64]domain.Recipe),
		plans:   make(map[int64]domain.Plan),
	}
}

// Ensure interfaces are met.
var _ domain.BabyRepository = (*DB)(nil)
var _ domain.RecipeRepository = (*DB)(nil)
var _ domain.PlanRepository = (*DB)(nil)
var _ domain.AuditRepository = (*DB)(nil)
var _ domain.SyncCursorRepository = (*DB)(nil)

// --- BabyRepository ---

// ListBabies returns all babies ordered by id.
func (db *DB) ListBabies(ctx context.Context) ([]domain.Baby, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Baby, 0, len(db.babies))
	for _, id := range slices.Sorted(maps.Keys(db.babies)) {
		out = append(out, cloneBaby(db.babies[id]))
	}
	return out, nil
}

// GetBaby returns the baby with id or nil.
func (db *DB) GetBaby(ctx context.Context, id int64) (*domain.Baby, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.babies[id]
	if !ok {
		return nil, nil
	}
	b = cloneBaby(b)
	return &b, nil
}

// SaveBaby inserts or replaces a baby.
func (db *DB) SaveBaby(ctx context.Context, b domain.Baby) (domain.Baby, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if b.ID == 0 {
		db.babyIDCounter++
		b.ID = db.babyIDCounter
	} else if _, ok := db.babies[b.ID]; !ok {
		return domain.Baby{}, fmt.Errorf("baby %d: %w", b.ID, domain.ErrNotFound)
	}
	db.babies[b.ID] = cloneBaby(b)
	return b, nil
}

func cloneBaby(b domain.Baby) domain.Baby {
	b.Allergies = slices.Clone(b.Allergies)
	b.Dislikes = slices.Clone(b.Dislikes)
	if b.NutritionGoal != nil {
		g := *b.NutritionGoal
		b.NutritionGoal = &g
	}
	return b
}

// --- RecipeRepository ---

// ListRecipes returns the catalogue ordered by id.
func (db *DB) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Recipe, 0, len(db.recipes))
	for _, id := range slices.Sorted(maps.Keys(db.recipes)) {
		out = append(out, db.recipes[id])
	}
	return out, nil
}

// SaveRecipes upserts recipes by id.
func (db *DB) SaveRecipes(ctx context.Context, recipes []domain.Recipe) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, r := range recipes {
		r.Ingredients = slices.Clone(r.Ingredients)
		r.MealPeriods = slices.Clone(r.MealPeriods)
		db.recipes[r.ID] = r
	}
	return nil
}

// --- PlanRepository ---

// GetPlan returns the plan with id, tombstones included.
func (db *DB) GetPlan(ctx context.Context, id int64) (*domain.Plan, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.plans[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// FindPlanByCloudID returns the plan with the given remote identity.
func (db *DB) FindPlanByCloudID(ctx context.Context, cloudID string) (*domain.Plan, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range db.plans {
		if p.CloudID != nil && *p.CloudID == cloudID {
			return &p, nil
		}
	}
	return nil, nil
}

// ListPlans returns the non-deleted plans of a baby.
func (db *DB) ListPlans(ctx context.Context, babyID int64) ([]domain.Plan, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.Plan{}
	for _, p := range db.plans {
		if p.BabyID == babyID && !p.IsDeleted {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlannedDate != out[j].PlannedDate {
			return out[i].PlannedDate < out[j].PlannedDate
		}
		if out[i].MealPeriod != out[j].MealPeriod {
			return out[i].MealPeriod < out[j].MealPeriod
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PendingPlans returns every plan waiting for upload.
func (db *DB) PendingPlans(ctx context.Context) ([]domain.Plan, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.Plan{}
	for _, id := range slices.Sorted(maps.Keys(db.plans)) {
		if p := db.plans[id]; p.SyncStatus == domain.SyncPendingUpload {
			out = append(out, p)
		}
	}
	return out, nil
}

// WritePlans applies writes to a copy of the table and swaps it in only if
// every write succeeded and the slot and cloud id constraints still hold.
func (db *DB) WritePlans(ctx context.Context, writes []domain.PlanWrite) ([]domain.Plan, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := maps.Clone(db.plans)
	counter := db.planIDCounter
	out := make([]domain.Plan, 0, len(writes))
	var audits []domain.MergeAudit
	for _, w := range writes {
		if w.Audit != nil {
			audits = append(audits, *w.Audit)
		}
		p := w.Plan
		switch w.Kind {
		case domain.WriteInsert:
			counter++
			p.ID = counter
			next[p.ID] = p
		case domain.WriteUpdate:
			if _, ok := next[p.ID]; !ok {
				return nil, fmt.Errorf("plan %d: %w", p.ID, domain.ErrNotFound)
			}
			next[p.ID] = p
		case domain.WritePurge:
			delete(next, p.ID)
		default:
			return nil, fmt.Errorf("%w: unknown write kind %d", domain.ErrPersistence, w.Kind)
		}
		out = append(out, p)
	}
	if err := checkConstraints(next); err != nil {
		return nil, err
	}

	db.plans = next
	db.planIDCounter = counter
	db.audit = append(db.audit, audits...)
	return out, nil
}

func checkConstraints(plans map[int64]domain.Plan) error {
	slots := make(map[domain.Slot]int64, len(plans))
	clouds := make(map[string]int64, len(plans))
	for _, id := range slices.Sorted(maps.Keys(plans)) {
		p := plans[id]
		if p.CloudID != nil {
			if other, dup := clouds[*p.CloudID]; dup {
				return fmt.Errorf("%w: cloud id %s on plans %d and %d", domain.ErrPersistence, *p.CloudID, other, id)
			}
			clouds[*p.CloudID] = id
		}
		if p.IsDeleted {
			continue
		}
		if _, dup := slots[p.Slot()]; dup {
			return fmt.Errorf("%w: %s", domain.ErrSlotTaken, p.Slot())
		}
		slots[p.Slot()] = id
	}
	return nil
}

// --- AuditRepository ---

// AppendAudit records a merge decision.
func (db *DB) AppendAudit(ctx context.Context, a domain.MergeAudit) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.audit = append(db.audit, a)
	return nil
}

// ListAudit returns up to limit audit records, newest first.
func (db *DB) ListAudit(ctx context.Context, limit int) ([]domain.MergeAudit, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.MergeAudit, 0, len(db.audit))
	for i := len(db.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, db.audit[i])
	}
	return out, nil
}

// --- SyncCursorRepository ---

// SyncCursor returns the stored pull cursor.
func (db *DB) SyncCursor(ctx context.Context) (*time.Time, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.cursor == nil {
		return nil, nil
	}
	t := *db.cursor
	return &t, nil
}

// SetSyncCursor stores the pull cursor.
func (db *DB) SetSyncCursor(ctx context.Context, t time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t = t.UTC()
	db.cursor = &t
	return nil
}
