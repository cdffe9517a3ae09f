package apply

import (
	"context"
	"log/slog"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/internal/cbreaker"
	"github.com/avolokh/apply-core/internal/retry"
	"github.com/avolokh/apply-core/pkg/logger"
)

// persistEngine decides, once per processed entry, whether the group's
// in-memory apply state must be made durable now or may stay dirty until a
// later batching boundary.
//
// A group is Dirty while its in-memory state is ahead of the on-disk one and
// Clean when they are equal; flushing is the only Dirty -> Clean transition
// and copies the full in-memory state in one step, so partial flushes are
// never observable.
type persistEngine struct {
	engine   api.Engine
	store    *stateStore
	hooks    *Hooks
	notifier *flushNotifier
	breaker  *cbreaker.CircuitBreaker
	logger   *slog.Logger

	batching api.BatchingCfg
	retryCfg api.FlushRetryCfg
}

func newPersistEngine(
	engine api.Engine,
	store *stateStore,
	hooks *Hooks,
	notifier *flushNotifier,
	cfg *api.CoordinatorConfig,
	log *slog.Logger,
) *persistEngine {
	return &persistEngine{
		engine:   engine,
		store:    store,
		hooks:    hooks,
		notifier: notifier,
		breaker: cbreaker.New(
			cfg.CBreaker.FailureThreshold,
			cfg.CBreaker.SuccessThreshold,
			cfg.CBreaker.ResetTimeout,
		),
		logger:   log,
		batching: cfg.Batching,
		retryCfg: cfg.Retry,
	}
}

// decide runs the flush triggers in priority order for one processed entry.
// A mandatory flush (force) propagates its failure to the caller; deferred
// flush failures are logged and retried at the next boundary, the group
// simply stays dirty.
//
// Assumes g.mu is held.
func (p *persistEngine) decide(ctx context.Context, id api.GroupID, g *groupState, force bool) (flushed bool, err error) {
	switch {
	case force:
		if err := p.flushLocked(ctx, id, g); err != nil {
			return false, err
		}
		return true, nil

	case p.hooks.Enabled(api.HookForceAlwaysPersist):
		return p.deferredFlush(ctx, id, g), nil

	case p.batching.MaxDirtyEntries > 0 && g.dirty >= p.batching.MaxDirtyEntries:
		return p.deferredFlush(ctx, id, g), nil
	}

	return false, nil
}

func (p *persistEngine) deferredFlush(ctx context.Context, id api.GroupID, g *groupState) bool {
	if err := p.flushLocked(ctx, id, g); err != nil {
		p.logger.Warn(
			"deferred flush failed, group stays dirty",
			slog.Uint64("group", uint64(id)),
			logger.ErrAttr(err),
		)
		return false
	}
	return true
}

// flushLocked performs one flush: the engine makes the group durable, then
// the on-disk apply state is brought up to the in-memory one in a single
// copy, and subscribers are signalled.
//
// Assumes g.mu is held.
func (p *persistEngine) flushLocked(ctx context.Context, id api.GroupID, g *groupState) error {
	if err := p.engineFlush(ctx, id); err != nil {
		return err
	}

	g.onDisk = g.inMemory
	g.dirty = 0

	if err := p.store.check(id, g); err != nil {
		return err
	}

	p.notifier.notify(api.FlushEvent{Group: id, State: g.onDisk})
	return nil
}

// engineFlush calls the engine's flush with bounded retries behind the
// circuit breaker.
func (p *persistEngine) engineFlush(ctx context.Context, id api.GroupID) error {
	err := retry.Do(ctx, func(context.Context) error {
		return p.breaker.Do(func() error {
			return p.engine.Flush(id)
		})
	},
		retry.WithMaxAttempts(p.retryCfg.MaxAttempts),
		retry.WithBaseDelay(p.retryCfg.BaseDelay),
	)
	if err != nil {
		return &api.EngineError{Op: "flush", Group: id, Err: err}
	}
	return nil
}
