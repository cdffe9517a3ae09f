package apply

import (
	"log/slog"
	"time"

	"github.com/avolokh/apply-core/api"
)

// flusher is a background goroutine that periodically sweeps dirty groups
// and flushes them, so a quiet group does not hold back its on-disk state
// forever.
func (c *Coordinator) flusher() {
	defer func() {
		c.wg.Done()
		c.logger.Info("flusher exiting")
	}()

	ticker := time.NewTicker(c.cfg.Batching.FlushInterval)
	defer ticker.Stop()

	c.logger.Info("flusher starting", slog.Duration("interval", c.cfg.Batching.FlushInterval))
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sweepDirtyGroups()
		}
	}
}

func (c *Coordinator) sweepDirtyGroups() {
	c.store.groups.Range(func(id uint64, g *groupState) bool {
		g.mu.Lock()
		defer g.mu.Unlock()

		if g.aborted || g.dirty == 0 {
			return true
		}
		c.persist.deferredFlush(c.ctx, api.GroupID(id), g)
		return true
	})
}
