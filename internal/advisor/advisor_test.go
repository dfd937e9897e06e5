package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"babyplate/internal/domain"
	"babyplate/internal/recommend"
)

func ingredients(names ...string) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Ingredient{Name: n})
	}
	return out
}

func TestGoalForAge(t *testing.T) {
	tests := []struct {
		age  int
		want float64
	}{
		{6, 500}, {8, 500}, {9, 600}, {11, 600}, {12, 700}, {17, 700}, {18, 800}, {23, 800}, {24, 1000}, {36, 1000},
	}
	for _, tc := range tests {
		if got := (AgeTable{}).GoalForAge(tc.age).Calories; got != tc.want {
			t.Errorf("age %d: calories = %.0f, want %.0f", tc.age, got, tc.want)
		}
	}
}

func TestClassifierRisk(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		baby   domain.BabyProfile
		recipe domain.Recipe
		want   domain.RiskLevel
	}{
		{
			name:   "egg under a year",
			baby:   domain.BabyProfile{AgeMonths: 7},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("Egg yolks", "rice")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "egg after a year",
			baby:   domain.BabyProfile{AgeMonths: 13},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("egg")},
			want:   domain.RiskNormal,
		},
		{
			name:   "eggplant is not egg",
			baby:   domain.BabyProfile{AgeMonths: 7},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("eggplant")},
			want:   domain.RiskNormal,
		},
		{
			name:   "whole cherries under a year",
			baby:   domain.BabyProfile{AgeMonths: 9},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("Whole cherries", "yogurt")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "juice under a year",
			baby:   domain.BabyProfile{AgeMonths: 11},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("apple juice")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "juice after a year",
			baby:   domain.BabyProfile{AgeMonths: 12},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("apple juice")},
			want:   domain.RiskNormal,
		},
		{
			name:   "honey before two",
			baby:   domain.BabyProfile{AgeMonths: 18},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("honey")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "hard candies and popcorn before two",
			baby:   domain.BabyProfile{AgeMonths: 20},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("Hard candies", "popcorn")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "raw fish before two",
			baby:   domain.BabyProfile{AgeMonths: 15},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("raw fish")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "raw fish from two needs handling",
			baby:   domain.BabyProfile{AgeMonths: 24},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("raw fish")},
			want:   domain.RiskRequiresSpecialHandling,
		},
		{
			name:   "tea stays forbidden",
			baby:   domain.BabyProfile{AgeMonths: 30},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("green tea")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "caffeine and alcohol stay forbidden",
			baby:   domain.BabyProfile{AgeMonths: 35},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("caffeine", "alcohol")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "teaspoon is not tea",
			baby:   domain.BabyProfile{AgeMonths: 30},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("teaspoon oil")},
			want:   domain.RiskNormal,
		},
		{
			name:   "sugar under a year",
			baby:   domain.BabyProfile{AgeMonths: 8},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("sugar")},
			want:   domain.RiskNotRecommended,
		},
		{
			name:   "sugar after a year",
			baby:   domain.BabyProfile{AgeMonths: 14},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("sugar")},
			want:   domain.RiskNormal,
		},
		{
			name:   "plural potatoes",
			baby:   domain.BabyProfile{AgeMonths: 14, Allergies: []string{"potato"}},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("mashed potatoes")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "allergy",
			baby:   domain.BabyProfile{AgeMonths: 15, Allergies: []string{"Milk"}},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("cow milk", "oat")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "dislike",
			baby:   domain.BabyProfile{AgeMonths: 15, Dislikes: []string{"broccoli"}},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("Broccoli florets")},
			want:   domain.RiskNotRecommended,
		},
		{
			name:   "strict escalates dislike",
			strict: true,
			baby:   domain.BabyProfile{AgeMonths: 15, Dislikes: []string{"broccoli"}},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("broccoli")},
			want:   domain.RiskForbidden,
		},
		{
			name:   "strict flags allergens",
			strict: true,
			baby:   domain.BabyProfile{AgeMonths: 15},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: []domain.Ingredient{{Name: "sesame paste", IsAllergen: true}}},
			want:   domain.RiskCautiousIntroduction,
		},
		{
			name:   "worst ingredient wins",
			baby:   domain.BabyProfile{AgeMonths: 10},
			recipe: domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("cod fish", "peanut butter")},
			want:   domain.RiskRequiresSpecialHandling,
		},
		{
			name:   "outside age range",
			baby:   domain.BabyProfile{AgeMonths: 7},
			recipe: domain.Recipe{MinAgeMonths: 12, MaxAgeMonths: 36, Ingredients: ingredients("rice")},
			want:   domain.RiskForbidden,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewClassifier(nil, tc.strict).Risk(tc.recipe, tc.baby)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilterPool(t *testing.T) {
	baby := domain.BabyProfile{AgeMonths: 7}
	pool := []domain.Recipe{
		{ID: 1, MinAgeMonths: 6, MaxAgeMonths: 12, Ingredients: ingredients("pumpkin")},
		{ID: 2, MinAgeMonths: 6, MaxAgeMonths: 12, Ingredients: ingredients("honey", "oat")},
		{ID: 3, MinAgeMonths: 10, MaxAgeMonths: 24, Ingredients: ingredients("rice")},
		{ID: 4, MinAgeMonths: 6, MaxAgeMonths: 12, Ingredients: ingredients("salt", "potato")},
	}
	got := FilterPool(pool, baby, NewClassifier(nil, false))

	ids := make([]int64, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{1, 4}, ids)
}

func TestCookingMethodScore(t *testing.T) {
	s := CookingMethod{}
	young := recommend.Context{Profile: domain.BabyProfile{AgeMonths: 8}}
	older := recommend.Context{Profile: domain.BabyProfile{AgeMonths: 14}}

	assert.Equal(t, 1.0, s.Score(domain.Recipe{CookingMethod: domain.CookingHomemade}, young).Score)
	assert.Equal(t, 0.5, s.Score(domain.Recipe{CookingMethod: domain.CookingHomemadeOrStore}, young).Score)
	assert.Equal(t, 0.0, s.Score(domain.Recipe{CookingMethod: domain.CookingStoreBought}, young).Score)
	assert.Equal(t, 0.0, s.Score(domain.Recipe{CookingMethod: domain.CookingHomemade}, older).Score)
}

func TestFreshnessScore(t *testing.T) {
	f := Freshness{Inventory: []InventoryItem{
		{Name: "spinach", ExpiryDate: "2026-10-21"},
		{Name: "tofu", ExpiryDate: "2026-10-18"},
		{Name: "carrot", ExpiryDate: "2026-11-30"},
	}}
	c := recommend.Context{Date: "2026-10-19"}

	assert.Equal(t, 0.5, f.Score(domain.Recipe{Ingredients: ingredients("baby spinach", "rice")}, c).Score)
	assert.Equal(t, 0.0, f.Score(domain.Recipe{Ingredients: ingredients("tofu")}, c).Score, "expired items earn nothing")
	assert.Equal(t, 0.0, f.Score(domain.Recipe{Ingredients: ingredients("carrots")}, c).Score)
}

func TestSafetyScorerVetoesForbidden(t *testing.T) {
	s := Safety{Filter: NewClassifier(nil, false)}
	c := recommend.Context{Profile: domain.BabyProfile{AgeMonths: 7}}

	sig := s.Score(domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("honey")}, c)
	assert.True(t, sig.Veto)
	assert.Equal(t, "FORBIDDEN", sig.Reason)

	sig = s.Score(domain.Recipe{MaxAgeMonths: 36, Ingredients: ingredients("salt")}, c)
	assert.False(t, sig.Veto)
	assert.Equal(t, -1.0, sig.Score)
}
