package adapthttp_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapthttp "babyplate/internal/adapter/http"
	"babyplate/internal/adapter/memory"
	"babyplate/internal/app"
	"babyplate/internal/clock"
	"babyplate/internal/domain"
	"babyplate/internal/replica"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

const monday = "2026-10-19"

// ---------------------------------------------------------------------------
// Fakes (function-fields pattern)
// ---------------------------------------------------------------------------

type fakeSyncer struct {
	syncFn func(ctx context.Context) (replica.Report, error)
}

func (f *fakeSyncer) Sync(ctx context.Context) (replica.Report, error) {
	if f.syncFn != nil {
		return f.syncFn(ctx)
	}
	return replica.Report{}, nil
}

type fixture struct {
	db      *memory.DB
	plans   *app.PlanService
	handler http.Handler
}

func newFixture(t *testing.T, syncer adapthttp.Syncer) *fixture {
	t.Helper()
	db := memory.New()
	plans := app.NewPlanService(db, clock.NewFake(t0), nil)
	catalog := app.NewCatalogService(db, db)
	recs := app.NewRecommendationService(db, db, plans, app.RecommendationConfig{}, nil)
	srv := adapthttp.New(catalog, plans, recs, syncer, adapthttp.Options{})
	return &fixture{db: db, plans: plans, handler: srv.Handler()}
}

func (f *fixture) seed(t *testing.T) domain.Baby {
	t.Helper()
	ctx := context.Background()
	b, err := f.db.SaveBaby(ctx, domain.Baby{Name: "Mia", BirthDate: "2026-01-10"})
	require.NoError(t, err)
	require.NoError(t, f.db.SaveRecipes(ctx, []domain.Recipe{
		{ID: 1, Name: "Carrot mash", MinAgeMonths: 6, CookingMethod: domain.CookingHomemade,
			Ingredients: []domain.Ingredient{{Name: "carrot"}},
			Nutrition:   domain.Nutrition{Calories: 80, Protein: 3, Calcium: 40, Iron: 1}},
		{ID: 2, Name: "Oat porridge", MinAgeMonths: 6, CookingMethod: domain.CookingHomemade,
			Ingredients: []domain.Ingredient{{Name: "oats"}},
			Nutrition:   domain.Nutrition{Calories: 120, Protein: 4, Calcium: 60, Iron: 2}},
	}))
	return b
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodDelete, "/api/recipes", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestBabies(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/babies", map[string]any{"name": "Mia", "birthDate": "2026-01-10"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Baby](t, w)
	assert.Equal(t, int64(1), created.ID)

	w = f.do(t, http.MethodPut, "/api/babies/1", map[string]any{
		"name": "Mia", "birthDate": "2026-01-10", "allergies": []string{"egg"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/babies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct{ Items []domain.Baby }](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, []string{"egg"}, list.Items[0].Allergies)

	w = f.do(t, http.MethodPut, "/api/babies/99", map[string]any{"name": "Noah", "birthDate": "2026-02-01"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/babies", map[string]any{"name": " ", "birthDate": "2026-01-10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/babies", map[string]any{"name": "Mia", "shoeSize": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRecipes(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/recipes", map[string]any{"recipes": []map[string]any{
		{"id": 7, "name": "Banana", "minAgeMonths": 6},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/recipes", nil)
	list := decode[struct{ Items []domain.Recipe }](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, domain.CookingHomemadeOrStore, list.Items[0].CookingMethod)
}

func TestPlans(t *testing.T) {
	f := newFixture(t, nil)
	b := f.seed(t)

	body := map[string]any{"recipeId": 1, "plannedDate": monday, "mealPeriod": "LUNCH"}
	w := f.do(t, http.MethodPost, "/api/babies/1/plans", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Plan](t, w)
	assert.Equal(t, b.ID, created.BabyID)
	assert.Equal(t, domain.SyncPendingUpload, created.SyncStatus)
	assert.Nil(t, created.CloudID)

	w = f.do(t, http.MethodPost, "/api/babies/1/plans", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPut, "/api/plans/1", map[string]any{
		"babyId": 1, "recipeId": 2, "plannedDate": monday, "mealPeriod": "LUNCH", "status": "TRIED",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.Plan](t, w)
	assert.Equal(t, int64(2), updated.RecipeID)
	assert.Equal(t, domain.StatusTried, updated.Status)

	w = f.do(t, http.MethodPost, "/api/babies/1/plans", map[string]any{"recipeId": 1, "plannedDate": "19/10", "mealPeriod": "LUNCH"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/plans/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodDelete, "/api/plans/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/babies/1/plans", nil)
	list := decode[struct{ Items []domain.Plan }](t, w)
	assert.Empty(t, list.Items)
}

func TestRecommendationFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	w := f.do(t, http.MethodPost, "/api/babies/1/recommendations", map[string]any{"startDate": monday, "days": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plan := decode[domain.WeeklyMealPlan](t, w)
	assert.Len(t, plan.Days, 2)

	w = f.do(t, http.MethodPost, "/api/babies/1/recommendations/conflicts", map[string]any{"plan": plan})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[struct{ Conflicts []domain.PlanConflict }](t, w).Conflicts)

	w = f.do(t, http.MethodPost, "/api/babies/1/recommendations/save", map[string]any{"plan": plan, "resolution": "SKIP_CONFLICTS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[app.SaveResult](t, w)
	assert.True(t, res.Success)
	assert.Positive(t, res.Saved)

	w = f.do(t, http.MethodGet, "/api/babies/1/plans", nil)
	assert.Len(t, decode[struct{ Items []domain.Plan }](t, w).Items, res.Saved)

	// Saving the same recommendation again does not conflict with itself.
	w = f.do(t, http.MethodPost, "/api/babies/1/recommendations/conflicts", map[string]any{"plan": plan})
	assert.Empty(t, decode[struct{ Conflicts []domain.PlanConflict }](t, w).Conflicts)

	w = f.do(t, http.MethodPost, "/api/babies/1/recommendations/save", map[string]any{"plan": plan, "resolution": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/babies/1/recommendations/daily", map[string]any{"date": monday})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[domain.WeeklyMealPlan](t, w).Days, 1)

	w = f.do(t, http.MethodPost, "/api/babies/9/recommendations/daily", map[string]any{"date": monday})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSync(t *testing.T) {
	w := newFixture(t, nil).do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f := newFixture(t, &fakeSyncer{syncFn: func(context.Context) (replica.Report, error) {
		return replica.Report{Pulled: 2, Pushed: 1}, nil
	}})
	w = f.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[replica.Report](t, w).Pulled)

	f = newFixture(t, &fakeSyncer{syncFn: func(context.Context) (replica.Report, error) {
		return replica.Report{}, replica.ErrSyncInProgress
	}})
	w = f.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWatchPlansStreamsSnapshots(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/babies/1/plans?watch=1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewReader(resp.Body)
	next := func() []domain.Plan {
		for {
			line, err := events.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var plans []domain.Plan
				require.NoError(t, json.Unmarshal([]byte(data), &plans))
				return plans
			}
		}
	}

	assert.Empty(t, next())
	_, err = f.plans.InsertPlan(context.Background(), domain.Plan{BabyID: 1, RecipeID: 2, PlannedDate: monday, MealPeriod: domain.Breakfast})
	require.NoError(t, err)
	got := next()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].RecipeID)
}

func TestAudit(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.db.AppendAudit(context.Background(), domain.MergeAudit{ID: "a1", PlanID: 1, CloudID: "c-1", Winner: domain.WinnerLocal}))

	w := f.do(t, http.MethodGet, "/api/audit?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[struct{ Items []domain.MergeAudit }](t, w).Items
	require.Len(t, items, 1)
	assert.Equal(t, domain.WinnerLocal, items[0].Winner)
}
