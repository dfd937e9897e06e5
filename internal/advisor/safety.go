package advisor

import (
	"strings"
	"unicode"

	"babyplate/internal/domain"
	"babyplate/internal/recommend"
)

// Rule classifies an ingredient term for babies younger than BelowMonths.
// A zero BelowMonths applies at every age.
type Rule struct {
	Term        string           `json:"term"`
	BelowMonths int              `json:"belowMonths"`
	Level       domain.RiskLevel `json:"level"`
}

// DefaultRules is the built-in ingredient rule set, bracketed by age.
var DefaultRules = []Rule{
	// choking hazards
	{Term: "whole nut", BelowMonths: 36, Level: domain.RiskForbidden},
	{Term: "whole grape", BelowMonths: 12, Level: domain.RiskForbidden},
	{Term: "whole cherry", BelowMonths: 12, Level: domain.RiskForbidden},
	{Term: "popcorn", BelowMonths: 24, Level: domain.RiskForbidden},
	{Term: "hard candy", BelowMonths: 24, Level: domain.RiskForbidden},

	// infection and toxicity
	{Term: "honey", BelowMonths: 24, Level: domain.RiskForbidden},
	{Term: "egg", BelowMonths: 12, Level: domain.RiskForbidden},
	{Term: "raw fish", BelowMonths: 24, Level: domain.RiskForbidden},
	{Term: "sashimi", BelowMonths: 24, Level: domain.RiskForbidden},

	// drinks
	{Term: "juice", BelowMonths: 12, Level: domain.RiskForbidden},
	{Term: "tea", BelowMonths: 36, Level: domain.RiskForbidden},
	{Term: "coffee", BelowMonths: 36, Level: domain.RiskForbidden},
	{Term: "caffeine", BelowMonths: 36, Level: domain.RiskForbidden},
	{Term: "alcohol", BelowMonths: 36, Level: domain.RiskForbidden},
	{Term: "wine", BelowMonths: 36, Level: domain.RiskForbidden},

	// seasoning and dairy; strict mode forbids these outright
	{Term: "salt", BelowMonths: 12, Level: domain.RiskNotRecommended},
	{Term: "sugar", BelowMonths: 12, Level: domain.RiskNotRecommended},
	{Term: "cow milk", BelowMonths: 12, Level: domain.RiskNotRecommended},

	{Term: "peanut", Level: domain.RiskCautiousIntroduction},
	{Term: "shrimp", Level: domain.RiskCautiousIntroduction},
	{Term: "shellfish", Level: domain.RiskCautiousIntroduction},
	{Term: "fish", Level: domain.RiskRequiresSpecialHandling},
}

// Classifier is a rule-based domain.SafetyFilter. Allergies are forbidden and
// dislikes not recommended. In strict mode every not-recommended ingredient
// is forbidden and flagged allergens need at least cautious introduction.
type Classifier struct {
	rules  []Rule
	strict bool
}

var _ domain.SafetyFilter = (*Classifier)(nil)

// NewClassifier creates a Classifier. nil rules means DefaultRules.
func NewClassifier(rules []Rule, strict bool) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules, strict: strict}
}

// Risk implements domain.SafetyFilter. A recipe is as risky as its worst
// ingredient; recipes outside their age range are forbidden.
func (c *Classifier) Risk(r domain.Recipe, b domain.BabyProfile) domain.RiskLevel {
	if !r.SuitsAge(b.AgeMonths) {
		return domain.RiskForbidden
	}
	level := domain.RiskNormal
	for _, ing := range r.Ingredients {
		level = level.Worse(c.IngredientRisk(ing, b))
		if level == domain.RiskForbidden {
			break
		}
	}
	return level
}

// IngredientRisk classifies a single ingredient.
func (c *Classifier) IngredientRisk(ing domain.Ingredient, b domain.BabyProfile) domain.RiskLevel {
	for _, a := range b.Allergies {
		if matchesTerm(ing.Name, a) {
			return domain.RiskForbidden
		}
	}
	level := domain.RiskNormal
	for _, d := range b.Dislikes {
		if matchesTerm(ing.Name, d) {
			level = domain.RiskNotRecommended
		}
	}
	for _, rule := range c.rules {
		if rule.BelowMonths > 0 && b.AgeMonths >= rule.BelowMonths {
			continue
		}
		if matchesTerm(ing.Name, rule.Term) {
			level = level.Worse(rule.Level)
		}
	}
	if c.strict {
		if ing.IsAllergen {
			level = level.Worse(domain.RiskCautiousIntroduction)
		}
		if level == domain.RiskNotRecommended {
			level = domain.RiskForbidden
		}
	}
	return level
}

// matchesTerm reports whether the words of term appear consecutively in
// name, ignoring case and plural suffixes. "egg" matches
// "Egg yolks" but not "eggplant".
func matchesTerm(name, term string) bool {
	nw, tw := words(name), words(term)
	if len(tw) == 0 || len(tw) > len(nw) {
		return false
	}
	for i := 0; i+len(tw) <= len(nw); i++ {
		ok := true
		for j, t := range tw {
			if !sameWord(nw[i+j], t) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func sameWord(w, t string) bool {
	return singular(w) == singular(t)
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "es") && strings.ContainsAny(w[len(w)-3:len(w)-2], "sxzho"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Safety turns a SafetyFilter into a pipeline scorer. Forbidden recipes are
// vetoed; lesser risks cost score.
type Safety struct {
	Filter domain.SafetyFilter
}

func (Safety) Name() string { return "safety" }

func (s Safety) Score(r domain.Recipe, c recommend.Context) recommend.Signal {
	level := s.Filter.Risk(r, c.Profile)
	switch level {
	case domain.RiskForbidden:
		return recommend.Signal{Veto: true, Reason: level.String()}
	case domain.RiskNotRecommended:
		return recommend.Signal{Score: -1, Reason: level.String()}
	case domain.RiskRequiresSpecialHandling:
		return recommend.Signal{Score: -0.25, Reason: level.String()}
	case domain.RiskCautiousIntroduction:
		return recommend.Signal{Score: -0.1, Reason: level.String()}
	case domain.RiskNormal:
		return recommend.Signal{}
	}
	return recommend.Signal{Veto: true, Reason: level.String()}
}
