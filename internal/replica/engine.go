package replica

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"babyplate/internal/domain"
)

// ErrSyncInProgress is returned when a sync run is already active.
var ErrSyncInProgress = errors.New("sync already in progress")

// Remote is the client side of the remote authority.
type Remote interface {
	// Push creates (empty CloudID) or updates a plan remotely. A rejected
	// version comes back as *domain.VersionMismatchError.
	Push(ctx context.Context, p domain.RemotePlan) (domain.RemoteAck, error)
	// Delete removes a plan remotely.
	Delete(ctx context.Context, cloudID string, version int) (domain.RemoteAck, error)
	// Pull returns remote changes since the cursor, all changes when nil.
	Pull(ctx context.Context, since *time.Time) (domain.PullResult, error)
}

// LocalStore is the local side the engine drives. Implementations serialize
// writes per baby.
type LocalStore interface {
	PendingPlans(ctx context.Context) ([]domain.Plan, error)
	// ConfirmUpload applies an acknowledged upload of sent.
	ConfirmUpload(ctx context.Context, sent domain.Plan, ack domain.RemoteAck) (Confirmation, error)
	// PurgeUnsynced removes a tombstone that never reached the remote.
	PurgeUnsynced(ctx context.Context, sent domain.Plan) (bool, error)
	// ApplyRemote merges one remote plan.
	ApplyRemote(ctx context.Context, remote domain.RemotePlan) (MergeAction, error)
	SyncCursor(ctx context.Context) (*time.Time, error)
	SetSyncCursor(ctx context.Context, t time.Time) error
}

// Config tunes retries and fan-out.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Concurrency    int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{MaxAttempts: 4, InitialBackoff: 500 * time.Millisecond, MaxBackoff: 10 * time.Second, Concurrency: 4}
}

// Failure is a per-entity sync error.
type Failure struct {
	PlanID  int64  `json:"planId,omitempty"`
	CloudID string `json:"cloudId,omitempty"`
	Error   string `json:"error"`
}

// Report summarizes one sync run.
type Report struct {
	Pulled   int       `json:"pulled"`
	Merged   int       `json:"merged"`
	Pushed   int       `json:"pushed"`
	Purged   int       `json:"purged"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures"`
}

// Engine moves changes between the local store and the remote authority.
type Engine struct {
	store  LocalStore
	remote Remote
	locker Locker
	cfg    Config
	log    *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	running sync.Mutex
	mu      sync.Mutex
	report  *Report
}

// NewEngine creates an Engine. A nil locker means an in-process LocalLocker.
func NewEngine(store LocalStore, remote Remote, locker Locker, cfg Config, log *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(def.MaxBackoff, cfg.InitialBackoff)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, remote: remote, locker: locker, cfg: cfg, log: log, sleep: sleepCtx}
}

// Sync pulls remote changes and then uploads pending local ones. Failures of
// single entities are listed in the report; the error is reserved for
// failures that stop the run.
func (e *Engine) Sync(ctx context.Context) (Report, error) {
	if !e.running.TryLock() {
		return Report{}, ErrSyncInProgress
	}
	defer e.running.Unlock()

	e.report = &Report{}
	defer func() { e.report = nil }()

	if err := e.pull(ctx); err != nil {
		return *e.report, err
	}
	if err := e.push(ctx); err != nil {
		return *e.report, err
	}
	r := *e.report
	e.log.Info("sync finished",
		zap.Int("pulled", r.Pulled), zap.Int("merged", r.Merged), zap.Int("pushed", r.Pushed),
		zap.Int("purged", r.Purged), zap.Int("skipped", r.Skipped), zap.Int("failures", len(r.Failures)))
	return r, nil
}

// Run syncs every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := e.Sync(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) && ctx.Err() == nil {
			e.log.Warn("sync run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (e *Engine) pull(ctx context.Context) error {
	since, err := e.store.SyncCursor(ctx)
	if err != nil {
		return err
	}
	var res domain.PullResult
	err = e.retry(ctx, func() error {
		var err error
		res, err = e.remote.Pull(ctx, since)
		return err
	})
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}

	complete := true
	for _, rp := range res.Plans {
		if !e.applyRemote(ctx, rp) {
			complete = false
		}
	}
	if !complete || res.ServerTime.IsZero() {
		return nil
	}
	return e.store.SetSyncCursor(ctx, res.ServerTime)
}

// applyRemote merges one pulled plan and reports whether it was handled.
func (e *Engine) applyRemote(ctx context.Context, rp domain.RemotePlan) bool {
	release, ok, err := e.locker.TryAcquire(ctx, cloudKey(rp.CloudID))
	if err != nil || !ok {
		e.record(func(r *Report) { r.Skipped++ })
		return false
	}
	defer release()

	action, err := e.store.ApplyRemote(ctx, rp)
	if err != nil {
		e.log.Warn("apply remote plan failed", zap.String("cloud_id", rp.CloudID), zap.Error(err))
		e.record(func(r *Report) {
			r.Failures = append(r.Failures, Failure{CloudID: rp.CloudID, Error: err.Error()})
		})
		return false
	}
	e.log.Debug("applied remote plan", zap.String("cloud_id", rp.CloudID), zap.Stringer("action", action))
	e.record(func(r *Report) {
		r.Pulled++
		if action == MergeKeepLocal || action == MergeOverwrite || action == MergePurge {
			r.Merged++
		}
	})
	return true
}

func (e *Engine) push(ctx context.Context) error {
	pending, err := e.store.PendingPlans(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, p := range pending {
		g.Go(func() error {
			e.pushOne(gctx, p)
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) pushOne(ctx context.Context, p domain.Plan) {
	release, ok, err := e.locker.TryAcquire(ctx, planKey(p))
	if err != nil || !ok {
		e.record(func(r *Report) { r.Skipped++ })
		return
	}
	defer release()

	if p.IsDeleted && p.CloudID == nil {
		purged, err := e.store.PurgeUnsynced(ctx, p)
		if err != nil {
			e.fail(p, err)
			return
		}
		if purged {
			e.record(func(r *Report) { r.Purged++ })
		}
		return
	}

	var ack domain.RemoteAck
	err = e.retry(ctx, func() error {
		var err error
		if p.IsDeleted {
			ack, err = e.remote.Delete(ctx, *p.CloudID, p.Version)
		} else {
			ack, err = e.remote.Push(ctx, p.ToRemote())
		}
		return err
	})

	var mismatch *domain.VersionMismatchError
	switch {
	case errors.As(err, &mismatch):
		action, err := e.store.ApplyRemote(ctx, mismatch.Remote)
		if err != nil {
			e.fail(p, err)
			return
		}
		e.log.Info("upload rejected, merged remote copy",
			zap.Int64("plan_id", p.ID), zap.Stringer("action", action))
		e.record(func(r *Report) { r.Merged++ })
	case err != nil:
		e.fail(p, err)
	default:
		c, err := e.store.ConfirmUpload(ctx, p, ack)
		if err != nil {
			e.fail(p, err)
			return
		}
		e.log.Debug("upload confirmed", zap.Int64("plan_id", p.ID), zap.Bool("purged", c.Purge), zap.Bool("cleared", c.Cleared))
		e.record(func(r *Report) {
			if c.Purge {
				r.Purged++
			} else {
				r.Pushed++
			}
		})
	}
}

// retry runs op until it succeeds, fails permanently or MaxAttempts
// transient failures happened, doubling the wait each time.
func (e *Engine) retry(ctx context.Context, op func() error) error {
	delay := e.cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, domain.ErrSyncTransient) || attempt >= e.cfg.MaxAttempts {
			return err
		}
		e.log.Debug("transient sync failure, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(2*delay, e.cfg.MaxBackoff)
	}
}

func (e *Engine) fail(p domain.Plan, err error) {
	e.log.Warn("plan sync failed", zap.Int64("plan_id", p.ID), zap.Error(err))
	e.record(func(r *Report) {
		r.Failures = append(r.Failures, Failure{PlanID: p.ID, Error: err.Error()})
	})
}

func (e *Engine) record(fn func(r *Report)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.report)
}

func planKey(p domain.Plan) string {
	if p.CloudID != nil {
		return cloudKey(*p.CloudID)
	}
	return fmt.Sprintf("plan:local:%d", p.ID)
}

func cloudKey(id string) string {
	return "plan:cloud:" + id
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
