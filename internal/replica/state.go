// Package replica governs the lifecycle of persisted plans: local
// insert/update/delete preparation, upload confirmation, merging remote
// state, and the background engine that moves changes between the local store
// and the remote authority.
package replica

import (
	"time"

	"babyplate/internal/domain"
)

// PrepareInsert resets every sync field of a new plan, whatever the caller
// supplied.
func PrepareInsert(p domain.Plan, now time.Time) domain.Plan {
	p.ID = 0
	p.CloudID = nil
	p.SyncStatus = domain.SyncPendingUpload
	p.LastSyncTime = nil
	p.Version = 1
	p.IsDeleted = false
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.StatusPlanned
	}
	return p
}

// PrepareUpdate carries the identity and sync history of existing into p,
// bumps the version by one and marks the plan for upload. deleted sets the
// tombstone flag.
func PrepareUpdate(p, existing domain.Plan, deleted bool, now time.Time) domain.Plan {
	p.ID = existing.ID
	p.CloudID = existing.CloudID
	p.LastSyncTime = existing.LastSyncTime
	p.Version = existing.Version + 1
	p.SyncStatus = domain.SyncPendingUpload
	p.IsDeleted = deleted
	p.UpdatedAt = now
	return p
}

// PrepareDelete tombstones existing.
func PrepareDelete(existing domain.Plan, now time.Time) domain.Plan {
	return PrepareUpdate(existing, existing, true, now)
}

// Confirmation is the effect of an acknowledged upload on the stored row.
type Confirmation struct {
	Plan domain.Plan
	// Purge is set when the acknowledged upload was the row's tombstone.
	Purge bool
	// Cleared is set when PENDING_UPLOAD was cleared.
	Cleared bool
}

// Confirm applies an acknowledged upload of sent to current, the row as it
// is stored now. The remote identity is adopted once. Pending state is only
// cleared if nothing changed locally while the upload was in flight.
func Confirm(current, sent domain.Plan, ack domain.RemoteAck, now time.Time) Confirmation {
	if current.CloudID == nil && ack.CloudID != "" {
		id := ack.CloudID
		current.CloudID = &id
	}
	if current.Version != sent.Version {
		return Confirmation{Plan: current}
	}
	if current.IsDeleted {
		return Confirmation{Plan: current, Purge: true, Cleared: true}
	}
	current.SyncStatus = domain.SyncSynced
	t := now
	current.LastSyncTime = &t
	return Confirmation{Plan: current, Cleared: true}
}
