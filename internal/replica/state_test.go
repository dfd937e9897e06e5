package replica

import (
	"testing"
	"time"

	"babyplate/internal/domain"
)

var now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func cloud(s string) *string { return &s }

func TestPrepareInsertIgnoresCallerSyncFields(t *testing.T) {
	last := now.Add(-time.Hour)
	p := PrepareInsert(domain.Plan{
		ID:           4,
		CloudID:      cloud("x"),
		SyncStatus:   domain.SyncSynced,
		LastSyncTime: &last,
		Version:      7,
		IsDeleted:    true,
	}, now)

	if p.ID != 0 || p.CloudID != nil || p.LastSyncTime != nil || p.IsDeleted {
		t.Errorf("sync fields not reset: %+v", p)
	}
	if p.Version != 1 || p.SyncStatus != domain.SyncPendingUpload {
		t.Errorf("got version %d status %s", p.Version, p.SyncStatus)
	}
	if p.Status != domain.StatusPlanned || !p.UpdatedAt.Equal(now) {
		t.Errorf("got status %s updated %v", p.Status, p.UpdatedAt)
	}
}

func TestPrepareUpdateKeepsIdentity(t *testing.T) {
	last := now.Add(-time.Hour)
	existing := domain.Plan{ID: 3, CloudID: cloud("c"), LastSyncTime: &last, Version: 4, SyncStatus: domain.SyncSynced}
	edit := domain.Plan{ID: 99, CloudID: cloud("forged"), Version: 1, RecipeID: 8}

	p := PrepareUpdate(edit, existing, false, now)
	if p.ID != 3 || *p.CloudID != "c" || p.LastSyncTime != &last {
		t.Errorf("identity not carried over: %+v", p)
	}
	if p.Version != 5 || p.SyncStatus != domain.SyncPendingUpload || p.RecipeID != 8 {
		t.Errorf("got %+v", p)
	}
	if p.State() != domain.StateDirty {
		t.Errorf("expected DIRTY, got %s", p.State())
	}

	d := PrepareDelete(existing, now)
	if !d.IsDeleted || d.Version != 5 || d.State() != domain.StateTombstoned {
		t.Errorf("got %+v", d)
	}
}

func TestConfirm(t *testing.T) {
	sent := domain.Plan{ID: 1, Version: 2, SyncStatus: domain.SyncPendingUpload}
	ack := domain.RemoteAck{CloudID: "c-1", Version: 2}

	tests := []struct {
		name        string
		current     domain.Plan
		wantCleared bool
		wantPurge   bool
		wantStatus  domain.SyncStatus
	}{
		{"unchanged since upload", sent, true, false, domain.SyncSynced},
		{"edited during upload", domain.Plan{ID: 1, Version: 3, SyncStatus: domain.SyncPendingUpload}, false, false, domain.SyncPendingUpload},
		{"tombstone confirmed", domain.Plan{ID: 1, Version: 2, IsDeleted: true, SyncStatus: domain.SyncPendingUpload}, true, true, domain.SyncPendingUpload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Confirm(tc.current, sent, ack, now)
			if c.Cleared != tc.wantCleared || c.Purge != tc.wantPurge {
				t.Errorf("cleared=%v purge=%v", c.Cleared, c.Purge)
			}
			if c.Plan.SyncStatus != tc.wantStatus {
				t.Errorf("status %s, want %s", c.Plan.SyncStatus, tc.wantStatus)
			}
			if c.Plan.CloudID == nil || *c.Plan.CloudID != "c-1" {
				t.Errorf("cloud id not adopted: %v", c.Plan.CloudID)
			}
		})
	}

	// An existing identity is never replaced.
	cur := sent
	cur.CloudID = cloud("c-0")
	if c := Confirm(cur, sent, ack, now); *c.Plan.CloudID != "c-0" {
		t.Errorf("cloud id replaced with %s", *c.Plan.CloudID)
	}
}
