// Package remote talks to the remote plan authority over HTTP and provides an
// in-process authority that serves the same protocol.
package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"babyplate/internal/clock"
	"babyplate/internal/domain"
	"babyplate/internal/replica"
)

// Authority is an in-memory remote authority. An upload is accepted only
// when its version is ahead of the stored copy.
type Authority struct {
	mu       sync.Mutex
	clock    clock.Clock
	plans    map[string]domain.RemotePlan
	modified map[string]time.Time
	last     time.Time
}

var _ replica.Remote = (*Authority)(nil)

// NewAuthority creates an empty Authority.
func NewAuthority(clk clock.Clock) *Authority {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Authority{
		clock:    clk,
		plans:    make(map[string]domain.RemotePlan),
		modified: make(map[string]time.Time),
	}
}

// Push creates a plan when p has no cloud id and updates it otherwise.
func (a *Authority) Push(ctx context.Context, p domain.RemotePlan) (domain.RemoteAck, error) {
	if err := p.ToPlan().Validate(); err != nil {
		return domain.RemoteAck{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if p.CloudID == "" {
		p.CloudID = uuid.NewString()
	}
	if cur, ok := a.plans[p.CloudID]; ok && p.Version <= cur.Version {
		return domain.RemoteAck{}, &domain.VersionMismatchError{Remote: cur}
	}
	p.Version = max(p.Version, 1)
	p.Deleted = false
	return a.store(p), nil
}

// Delete marks a plan deleted. Deleting an unknown plan succeeds.
func (a *Authority) Delete(ctx context.Context, cloudID string, version int) (domain.RemoteAck, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur, ok := a.plans[cloudID]
	if !ok {
		return domain.RemoteAck{CloudID: cloudID, Version: version, ServerTime: a.clock.Now()}, nil
	}
	if version <= cur.Version {
		return domain.RemoteAck{}, &domain.VersionMismatchError{Remote: cur}
	}
	cur.Version = version
	cur.Deleted = true
	return a.store(cur), nil
}

// Pull returns the plans modified after since, oldest first.
func (a *Authority) Pull(ctx context.Context, since *time.Time) (domain.PullResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := domain.PullResult{Plans: []domain.RemotePlan{}, ServerTime: a.now()}
	for id, p := range a.plans {
		if since == nil || a.modified[id].After(*since) {
			res.Plans = append(res.Plans, p)
		}
	}
	sort.Slice(res.Plans, func(i, j int) bool {
		mi, mj := a.modified[res.Plans[i].CloudID], a.modified[res.Plans[j].CloudID]
		if !mi.Equal(mj) {
			return mi.Before(mj)
		}
		return res.Plans[i].CloudID < res.Plans[j].CloudID
	})
	return res, nil
}

// Plan returns the stored copy of a plan.
func (a *Authority) Plan(cloudID string) (domain.RemotePlan, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.plans[cloudID]
	return p, ok
}

// store records p with a modification stamp strictly after every earlier
// one, so a pull cursor never skips a write.
func (a *Authority) store(p domain.RemotePlan) domain.RemoteAck {
	stamp := a.clock.Now()
	if !stamp.After(a.last) {
		stamp = a.last.Add(time.Nanosecond)
	}
	a.last = stamp
	a.plans[p.CloudID] = p
	a.modified[p.CloudID] = stamp
	return domain.RemoteAck{CloudID: p.CloudID, Version: p.Version, ServerTime: stamp}
}

// now returns the server time of a pull. Later writes are stamped after it.
func (a *Authority) now() time.Time {
	if now := a.clock.Now(); now.After(a.last) {
		a.last = now
	}
	return a.last
}
