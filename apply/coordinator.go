// Package apply implements the apply-time coordination layer between a
// consensus log and an external storage engine: it observes every committed
// entry, maintains the dual in-memory/on-disk apply state per group, and
// decides when durability boundaries must be forced.
package apply

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
)

var _ api.Coordinator = (*Coordinator)(nil)

// Coordinator is the apply event dispatcher. Entries of one group are
// processed strictly sequentially in committed order; different groups run
// fully in parallel with no shared mutable state between them.
type Coordinator struct {
	wg     sync.WaitGroup
	cfg    *api.CoordinatorConfig
	engine api.Engine

	store    *stateStore
	hooks    *Hooks
	notifier *flushNotifier
	persist  *persistEngine

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	logger           *slog.Logger
	monitoringServer *http.Server
}

// Apply processes one committed entry for a group and applies the resulting
// persistence decision before returning, so the on-disk state can never
// advance out of order relative to the group's entry stream.
func (c *Coordinator) Apply(group api.GroupID, entry api.CommittedEntry) (api.ApplyOutcome, error) {
	outcome := api.ApplyOutcome{
		Group: group,
		Term:  entry.Term,
		Index: entry.Index,
		Kind:  entry.Kind,
	}

	if c.closed.Load() {
		return outcome, api.ErrClosed
	}

	g := c.store.group(group)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.aborted {
		return outcome, fmt.Errorf("%w: group %d is aborted", api.ErrInconsistentState, group)
	}

	// A suppressed empty entry is never observed at all: no advancement, no
	// persistence decision, nothing for post-exec observers.
	if entry.Kind == api.EntryEmpty && c.hooks.Enabled(api.HookSuppressEmptyObservation) {
		c.logger.Debug(
			"empty entry suppressed",
			slog.Uint64("group", uint64(group)),
			slog.Uint64("index", entry.Index),
		)
		return outcome, nil
	}

	if entry.Index <= g.inMemory.AppliedIndex || entry.Term < g.inMemory.AppliedTerm {
		return outcome, fmt.Errorf(
			"%w: entry (%d,%d) vs applied (%d,%d) in group %d",
			api.ErrStaleEntry,
			entry.Term, entry.Index,
			g.inMemory.AppliedTerm, g.inMemory.AppliedIndex,
			group,
		)
	}

	var (
		res    adminResult
		cmdErr error
	)

	switch entry.Kind {
	case api.EntryNormal:
		outcome.Accepted = c.applyNormal(group, entry)

	case api.EntryAdmin:
		if entry.Admin == nil {
			msg := fmt.Sprintf("CRITICAL: admin entry (%d,%d) without command in group %d", entry.Term, entry.Index, group)
			c.logger.Error(msg)
			panic(msg)
		}
		outcome.AdminKind = entry.Admin.Kind
		res, cmdErr = c.execAdmin(group, g, entry.Admin)
		outcome.Accepted = res.accepted

	case api.EntryEmpty:
		// Advances the applied position only; still runs the post-exec
		// decision path below, since an empty entry can be the trigger for
		// a persistence decision.
		outcome.Accepted = true

	default:
		msg := fmt.Sprintf("CRITICAL: unknown entry kind %d in group %d", uint8(entry.Kind), group)
		c.logger.Error(msg)
		panic(msg)
	}

	// The entry's log slot was processed either way: the in-memory apply
	// state reflects "this position has been handled", not "this mutation
	// is visible". There is no rollback of a committed position.
	g.inMemory.AppliedIndex = entry.Index
	g.inMemory.AppliedTerm = entry.Term
	if res.truncated != nil {
		g.inMemory.TruncatedIndex = res.truncated.index
		g.inMemory.TruncatedTerm = res.truncated.term
	}
	g.dirty++

	if err := c.store.check(group, g); err != nil {
		return outcome, err
	}

	flushed, persistErr := c.persist.decide(c.ctx, group, g, res.forcePersist)
	outcome.Flushed = flushed

	if cmdErr != nil {
		return outcome, cmdErr
	}
	return outcome, persistErr
}

// applyNormal forwards one data mutation to the engine unless the filter
// hook is on. A write failure is a data-visibility problem, not an
// apply-state problem: the position still advances and reconciliation is
// left to later re-application.
func (c *Coordinator) applyNormal(group api.GroupID, entry api.CommittedEntry) bool {
	if c.hooks.Enabled(api.HookSuppressNormalApply) {
		return false
	}

	if err := c.engine.Write(group, entry.Key, entry.Value, entry.Op); err != nil {
		c.logger.Warn(
			"engine write failed, apply position advances anyway",
			slog.Uint64("group", uint64(group)),
			slog.Uint64("index", entry.Index),
			logger.ErrAttr(&api.EngineError{Op: "write", Group: group, Err: err}),
		)
	}
	return true
}

// LeadershipChanged injects the no-op entry a leadership change produces, at
// the new term and index.
func (c *Coordinator) LeadershipChanged(group api.GroupID, term, index uint64) (api.ApplyOutcome, error) {
	return c.Apply(group, api.NewEmpty(term, index))
}

// ApplyStateOf returns a snapshot of the group's apply-state pair.
func (c *Coordinator) ApplyStateOf(group api.GroupID) (inMemory, onDisk api.ApplyState) {
	g := c.store.group(group)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (c *Coordinator) SetHook(h api.Hook, enabled bool) {
	c.hooks.Set(h, enabled)
	c.logger.Info("hook toggled", slog.String("hook", string(h)), slog.Bool("enabled", enabled))
}

func (c *Coordinator) HookEnabled(h api.Hook) bool {
	return c.hooks.Enabled(h)
}

func (c *Coordinator) SetAdminSuppressed(kind api.AdminKind, suppressed bool) {
	c.hooks.SuppressAdmin(kind, suppressed)
	c.logger.Info(
		"admin observation toggled",
		slog.String("kind", kind.String()),
		slog.Bool("suppressed", suppressed),
	)
}

func (c *Coordinator) SubscribeFlushes(buffer int) (<-chan api.FlushEvent, func()) {
	return c.notifier.subscribe(buffer)
}

// Close stops the background flusher and the operator surface, then flushes
// every dirty group to completion. A flush that fails here is recorded, not
// silently abandoned.
func (c *Coordinator) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()
	if c.monitoringServer != nil {
		if err := c.monitoringServer.Shutdown(context.Background()); err != nil {
			c.logger.Warn("monitoring server shutdown failed", logger.ErrAttr(err))
		}
	}
	c.wg.Wait()

	var firstErr error
	c.store.groups.Range(func(id uint64, g *groupState) bool {
		g.mu.Lock()
		defer g.mu.Unlock()

		if g.aborted || g.dirty == 0 {
			return true
		}
		if err := c.persist.flushLocked(context.Background(), api.GroupID(id), g); err != nil {
			c.logger.Error(
				"final flush failed on close",
				slog.Uint64("group", id),
				logger.ErrAttr(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
		return true
	})

	c.notifier.close()
	c.logger.Info("coordinator closed")
	return firstErr
}
