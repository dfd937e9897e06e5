package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SyncStatus records whether a plan still has to be uploaded.
type SyncStatus string

const (
	SyncPendingUpload SyncStatus = "PENDING_UPLOAD"
	SyncSynced        SyncStatus = "SYNCED"
)

// Valid reports whether s is one of the declared statuses.
func (s SyncStatus) Valid() bool {
	return s == SyncPendingUpload || s == SyncSynced
}

func (s *SyncStatus) UnmarshalText(b []byte) error {
	v := SyncStatus(strings.ToUpper(string(b)))
	if !v.Valid() {
		return Invalid("syncStatus", "unknown sync status %q", string(b))
	}
	*s = v
	return nil
}

// SyncState is the lifecycle state of a plan, derived from its fields.
type SyncState int

const (
	StateNewLocal SyncState = iota
	StateSynced
	StateDirty
	StateTombstoned
)

func (s SyncState) String() string {
	switch s {
	case StateNewLocal:
		return "NEW_LOCAL"
	case StateSynced:
		return "SYNCED"
	case StateDirty:
		return "DIRTY"
	case StateTombstoned:
		return "TOMBSTONED"
	}
	return fmt.Sprintf("SyncState(%d)", int(s))
}

// Plan is a persisted meal plan entry together with its sync metadata.
type Plan struct {
	ID           int64      `json:"id"`
	BabyID       int64      `json:"babyId"`
	RecipeID     int64      `json:"recipeId"`
	PlannedDate  string     `json:"plannedDate"`
	MealPeriod   MealPeriod `json:"mealPeriod"`
	Status       PlanStatus `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CloudID      *string    `json:"cloudId"`
	SyncStatus   SyncStatus `json:"syncStatus"`
	LastSyncTime *time.Time `json:"lastSyncTime"`
	Version      int        `json:"version"`
	IsDeleted    bool       `json:"isDeleted"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// State derives the lifecycle state from the sync fields.
func (p Plan) State() SyncState {
	switch {
	case p.IsDeleted:
		return StateTombstoned
	case p.CloudID == nil:
		return StateNewLocal
	case p.SyncStatus == SyncSynced:
		return StateSynced
	default:
		return StateDirty
	}
}

// Slot returns the uniqueness key of the plan.
func (p Plan) Slot() Slot {
	return Slot{BabyID: p.BabyID, Date: p.PlannedDate, Period: p.MealPeriod}
}

// Validate checks the caller-editable fields.
func (p Plan) Validate() error {
	if p.BabyID <= 0 {
		return Invalid("babyId", "must be positive")
	}
	if p.RecipeID <= 0 {
		return Invalid("recipeId", "must be positive")
	}
	if _, err := ParseDay(p.PlannedDate); err != nil {
		return err
	}
	if !p.MealPeriod.Valid() {
		return Invalid("mealPeriod", "unknown meal period %d", int(p.MealPeriod))
	}
	if !p.Status.Valid() {
		return Invalid("status", "unknown plan status %q", p.Status)
	}
	return nil
}

// Slot is the (baby, date, meal period) key. At most one non-deleted plan
// exists per slot.
type Slot struct {
	BabyID int64      `json:"babyId"`
	Date   string     `json:"date"`
	Period MealPeriod `json:"mealPeriod"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%d/%s/%s", s.BabyID, s.Date, s.Period)
}

// PlanWriteKind selects what a PlanWrite does to the store.
type PlanWriteKind int

const (
	WriteInsert PlanWriteKind = iota
	WriteUpdate
	WritePurge
)

// PlanWrite is one row-level change. Plans are written exactly as given; the
// sync state machine prepares them beforehand.
type PlanWrite struct {
	Kind PlanWriteKind
	Plan Plan
	// Audit, when set, is recorded in the same transaction as the plan.
	Audit *MergeAudit
}

// PlanRepository is the port for plan persistence.
type PlanRepository interface {
	// GetPlan returns the plan with the given id, tombstones included, or nil.
	GetPlan(ctx context.Context, id int64) (*Plan, error)
	// FindPlanByCloudID returns the plan with the given remote identity, or nil.
	FindPlanByCloudID(ctx context.Context, cloudID string) (*Plan, error)
	// ListPlans returns the non-deleted plans of a baby ordered by date and period.
	ListPlans(ctx context.Context, babyID int64) ([]Plan, error)
	// PendingPlans returns every plan waiting for upload, tombstones included,
	// ordered by id.
	PendingPlans(ctx context.Context) ([]Plan, error)
	// WritePlans applies all writes or none. Inserted plans come back with
	// their assigned ids.
	WritePlans(ctx context.Context, writes []PlanWrite) ([]Plan, error)
}

// MergeWinner names the side kept by the merge policy.
type MergeWinner string

const (
	WinnerLocal  MergeWinner = "LOCAL"
	WinnerRemote MergeWinner = "REMOTE"
)

// MergeAudit records a write-write race and the write that lost it.
type MergeAudit struct {
	ID              string      `json:"id"`
	PlanID          int64       `json:"planId"`
	CloudID         string      `json:"cloudId"`
	Winner          MergeWinner `json:"winner"`
	Resolution      string      `json:"resolution"`
	LocalVersion    int         `json:"localVersion"`
	RemoteVersion   int         `json:"remoteVersion"`
	LocalUpdatedAt  time.Time   `json:"localUpdatedAt"`
	RemoteUpdatedAt time.Time   `json:"remoteUpdatedAt"`
	// LosingWrite is the JSON snapshot of the discarded side.
	LosingWrite string    `json:"losingWrite"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// AuditRepository stores merge decisions.
type AuditRepository interface {
	AppendAudit(ctx context.Context, a MergeAudit) error
	ListAudit(ctx context.Context, limit int) ([]MergeAudit, error)
}

// SyncCursorRepository stores the remote server time of the last pull.
type SyncCursorRepository interface {
	SyncCursor(ctx context.Context) (*time.Time, error)
	SetSyncCursor(ctx context.Context, t time.Time) error
}
