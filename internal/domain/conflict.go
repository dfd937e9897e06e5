package domain

import "strings"

// PlanConflict pairs a persisted plan with the plan a recommendation would
// write to the same slot. It is an observation and never mutated.
type PlanConflict struct {
	Existing Plan `json:"existing"`
	Proposed Plan `json:"proposed"`
}

// ConflictResolution is the caller's choice for reconciling a recommendation
// with already persisted plans.
type ConflictResolution string

const (
	ResolveOverwriteAll  ConflictResolution = "OVERWRITE_ALL"
	ResolveSkipConflicts ConflictResolution = "SKIP_CONFLICTS"
	ResolveCancel        ConflictResolution = "CANCEL"
)

// Valid reports whether r is one of the declared resolutions.
func (r ConflictResolution) Valid() bool {
	switch r {
	case ResolveOverwriteAll, ResolveSkipConflicts, ResolveCancel:
		return true
	}
	return false
}

func (r *ConflictResolution) UnmarshalText(b []byte) error {
	v := ConflictResolution(strings.ToUpper(string(b)))
	if !v.Valid() {
		return Invalid("resolution", "unknown conflict resolution %q", string(b))
	}
	*r = v
	return nil
}
