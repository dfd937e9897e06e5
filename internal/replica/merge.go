package replica

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"babyplate/internal/domain"
)

// MergeAction is what applying a remote plan does locally.
type MergeAction int

const (
	// MergeIgnore leaves the store as is.
	MergeIgnore MergeAction = iota
	// MergeInsert stores a plan first seen remotely.
	MergeInsert
	// MergeOverwrite replaces the local row with the remote content.
	MergeOverwrite
	// MergePurge physically removes the local row.
	MergePurge
	// MergeKeepLocal keeps the pending local write, rebased onto the remote
	// version so the next upload is accepted.
	MergeKeepLocal
)

func (a MergeAction) String() string {
	switch a {
	case MergeIgnore:
		return "ignore"
	case MergeInsert:
		return "insert"
	case MergeOverwrite:
		return "overwrite"
	case MergePurge:
		return "purge"
	case MergeKeepLocal:
		return "keep-local"
	}
	return "unknown"
}

const (
	ResolutionLastWriteWins = "LAST_WRITE_WINS"
	ResolutionDeleteWins    = "DELETE_WINS"
)

// MergeDecision is the outcome of Merge.
type MergeDecision struct {
	Action MergeAction
	// Plan is the row to write for insert, overwrite and keep-local.
	Plan domain.Plan
	// Audit is set when a write-write race was resolved.
	Audit *domain.MergeAudit
}

// Merge decides how a remote plan lands on local, the matching local row or
// nil. A synced local row takes the remote content unless the remote copy is
// not newer than it. A pending local row races the remote one: a local tombstone always
// wins, otherwise the later UpdatedAt wins with ties going to the remote.
func Merge(local *domain.Plan, remote domain.RemotePlan, now time.Time) MergeDecision {
	if local == nil {
		if remote.Deleted {
			return MergeDecision{Action: MergeIgnore}
		}
		return MergeDecision{Action: MergeInsert, Plan: fromRemote(domain.Plan{}, remote, remote.Version, now)}
	}

	if local.SyncStatus == domain.SyncSynced && local.CloudID != nil {
		if remote.Version <= local.Version {
			return MergeDecision{Action: MergeIgnore}
		}
		if remote.Deleted {
			return MergeDecision{Action: MergePurge, Plan: *local}
		}
		return MergeDecision{Action: MergeOverwrite, Plan: fromRemote(*local, remote, remote.Version, now)}
	}

	switch {
	case local.IsDeleted && remote.Deleted:
		return MergeDecision{Action: MergePurge, Plan: *local}
	case local.IsDeleted:
		return keepLocal(*local, remote, ResolutionDeleteWins, now)
	case remote.UpdatedAt.Before(local.UpdatedAt):
		return keepLocal(*local, remote, ResolutionLastWriteWins, now)
	case remote.Deleted:
		return MergeDecision{
			Action: MergePurge,
			Plan:   *local,
			Audit:  audit(*local, remote, domain.WinnerRemote, ResolutionLastWriteWins, *local, now),
		}
	default:
		version := max(remote.Version, local.Version)
		return MergeDecision{
			Action: MergeOverwrite,
			Plan:   fromRemote(*local, remote, version, now),
			Audit:  audit(*local, remote, domain.WinnerRemote, ResolutionLastWriteWins, *local, now),
		}
	}
}

func keepLocal(local domain.Plan, remote domain.RemotePlan, resolution string, now time.Time) MergeDecision {
	kept := local
	if kept.CloudID == nil {
		id := remote.CloudID
		kept.CloudID = &id
	}
	kept.Version = max(remote.Version, local.Version) + 1
	kept.SyncStatus = domain.SyncPendingUpload
	return MergeDecision{
		Action: MergeKeepLocal,
		Plan:   kept,
		Audit:  audit(local, remote, domain.WinnerLocal, resolution, remote, now),
	}
}

// fromRemote copies the remote content into base, keeping base's local id.
func fromRemote(base domain.Plan, remote domain.RemotePlan, version int, now time.Time) domain.Plan {
	id := remote.CloudID
	if base.CloudID != nil {
		id = *base.CloudID
	}
	t := now
	base.BabyID = remote.BabyID
	base.RecipeID = remote.RecipeID
	base.PlannedDate = remote.PlannedDate
	base.MealPeriod = remote.MealPeriod
	base.Status = remote.Status
	base.Notes = remote.Notes
	base.CloudID = &id
	base.SyncStatus = domain.SyncSynced
	base.LastSyncTime = &t
	base.Version = version
	base.IsDeleted = false
	base.UpdatedAt = remote.UpdatedAt
	return base
}

func audit(local domain.Plan, remote domain.RemotePlan, winner domain.MergeWinner, resolution string, loser any, now time.Time) *domain.MergeAudit {
	b, _ := json.Marshal(loser)
	return &domain.MergeAudit{
		ID:              uuid.NewString(),
		PlanID:          local.ID,
		CloudID:         remote.CloudID,
		Winner:          winner,
		Resolution:      resolution,
		LocalVersion:    local.Version,
		RemoteVersion:   remote.Version,
		LocalUpdatedAt:  local.UpdatedAt,
		RemoteUpdatedAt: remote.UpdatedAt,
		LosingWrite:     string(b),
		DetectedAt:      now,
	}
}
