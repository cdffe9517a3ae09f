package apply

import (
	"fmt"

	"github.com/avolokh/apply-core/api"
)

type truncation struct {
	index uint64
	term  uint64
}

// adminResult is what a handler proposes back to the dispatcher: whether the
// command was accepted, a new truncation watermark if any, and whether a
// flush must be forced before the command is reported successful.
type adminResult struct {
	accepted     bool
	truncated    *truncation
	forcePersist bool
}

// execAdmin dispatches one admin command to its handler. The kind set is
// closed: a kind outside it means the entry stream is feeding us commands
// this build does not know, which is a programming error, never a per-entry
// condition to skip over.
//
// Assumes g.mu is held.
func (c *Coordinator) execAdmin(id api.GroupID, g *groupState, cmd *api.AdminCommand) (adminResult, error) {
	if c.hooks.AdminSuppressed(cmd.Kind) {
		// Handler bypassed: rejected, no side effects.
		return adminResult{}, nil
	}

	switch cmd.Kind {
	case api.AdminCompactLog:
		return c.execCompactLog(id, g, cmd)

	case api.AdminComputeHash, api.AdminVerifyHash:
		// Consistency-check probes are observed but never move truncation
		// state or force durability, in any volume.
		return adminResult{accepted: true}, nil

	case api.AdminTransferLeader, api.AdminChangePeer, api.AdminOther:
		return adminResult{accepted: true}, nil

	default:
		msg := fmt.Sprintf(
			"CRITICAL: unknown admin command kind %d (group %d); refusing to drop it silently",
			uint8(cmd.Kind), id,
		)
		c.logger.Error(msg)
		panic(msg)
	}
}

// execCompactLog validates and executes a log-compaction command. Truncation
// is irreversible, so before the watermark may move the engine must actually
// be able to capture everything up to it durably: the command gates on an
// engine flush and is rejected when that flush fails.
//
// Assumes g.mu is held.
func (c *Coordinator) execCompactLog(id api.GroupID, g *groupState, cmd *api.AdminCommand) (adminResult, error) {
	if cmd.CompactIndex > g.inMemory.AppliedIndex {
		return adminResult{}, fmt.Errorf(
			"%w: compact index %d beyond applied index %d",
			api.ErrInvalidAdminRequest, cmd.CompactIndex, g.inMemory.AppliedIndex,
		)
	}
	if cmd.CompactIndex <= g.inMemory.TruncatedIndex {
		return adminResult{}, fmt.Errorf(
			"%w: compact index %d not beyond truncated index %d",
			api.ErrInvalidAdminRequest, cmd.CompactIndex, g.inMemory.TruncatedIndex,
		)
	}

	if err := c.persist.engineFlush(c.ctx, id); err != nil {
		// The engine could not durably capture the data the truncated
		// entries produced. Accepting the compaction anyway would discard
		// the only copy; reject instead.
		return adminResult{}, err
	}

	return adminResult{
		accepted:     true,
		truncated:    &truncation{index: cmd.CompactIndex, term: cmd.CompactTerm},
		forcePersist: !c.hooks.Enabled(api.HookSuppressCompactPersist),
	}, nil
}
