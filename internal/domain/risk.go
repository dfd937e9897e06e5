package domain

import (
	"fmt"
	"strings"
)

// RiskLevel classifies how safe a recipe or ingredient is for a given baby.
// Higher values are more severe.
type RiskLevel int

const (
	RiskNormal RiskLevel = iota
	RiskCautiousIntroduction
	RiskRequiresSpecialHandling
	RiskNotRecommended
	RiskForbidden
)

func (r RiskLevel) String() string {
	switch r {
	case RiskNormal:
		return "NORMAL"
	case RiskCautiousIntroduction:
		return "CAUTIOUS_INTRODUCTION"
	case RiskRequiresSpecialHandling:
		return "REQUIRES_SPECIAL_HANDLING"
	case RiskNotRecommended:
		return "NOT_RECOMMENDED"
	case RiskForbidden:
		return "FORBIDDEN"
	}
	return fmt.Sprintf("RiskLevel(%d)", int(r))
}

// IsHighRisk reports whether the level should keep a recipe off the menu.
func (r RiskLevel) IsHighRisk() bool {
	return r == RiskForbidden || r == RiskNotRecommended
}

// Worse returns the more severe of r and o.
func (r RiskLevel) Worse(o RiskLevel) RiskLevel {
	if o > r {
		return o
	}
	return r
}

// ParseRiskLevel converts the wire name of a risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for r := RiskNormal; r <= RiskForbidden; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, Invalid("riskLevel", "unknown risk level %q", s)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if r < RiskNormal || r > RiskForbidden {
		return nil, Invalid("riskLevel", "unknown risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(b []byte) error {
	v, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
