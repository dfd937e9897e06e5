package domain

import "time"

// RemotePlan is the remote authority's copy of a plan.
type RemotePlan struct {
	CloudID     string     `json:"cloudId"`
	BabyID      int64      `json:"babyId"`
	RecipeID    int64      `json:"recipeId"`
	PlannedDate string     `json:"plannedDate"`
	MealPeriod  MealPeriod `json:"mealPeriod"`
	Status      PlanStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	Version     int        `json:"version"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Deleted     bool       `json:"deleted"`
}

// RemoteAck confirms an accepted upload.
type RemoteAck struct {
	CloudID    string    `json:"cloudId"`
	Version    int       `json:"version"`
	ServerTime time.Time `json:"serverTime"`
}

// PullResult is one page of remote changes.
type PullResult struct {
	Plans      []RemotePlan `json:"plans"`
	ServerTime time.Time    `json:"serverTime"`
}

// ToRemote converts a local plan into its upload payload.
func (p Plan) ToRemote() RemotePlan {
	r := RemotePlan{
		BabyID:      p.BabyID,
		RecipeID:    p.RecipeID,
		PlannedDate: p.PlannedDate,
		MealPeriod:  p.MealPeriod,
		Status:      p.Status,
		Notes:       p.Notes,
		Version:     p.Version,
		UpdatedAt:   p.UpdatedAt,
		Deleted:     p.IsDeleted,
	}
	if p.CloudID != nil {
		r.CloudID = *p.CloudID
	}
	return r
}

// ToPlan converts a remote plan into a plan without local identity or sync
// state.
func (r RemotePlan) ToPlan() Plan {
	return Plan{
		BabyID:      r.BabyID,
		RecipeID:    r.RecipeID,
		PlannedDate: r.PlannedDate,
		MealPeriod:  r.MealPeriod,
		Status:      r.Status,
		Notes:       r.Notes,
		IsDeleted:   r.Deleted,
	}
}
