/*
Package api defines the public contracts of the apply coordination layer.
It sits between a consensus log that delivers committed entries in order and
an external storage engine that those entries are applied to.

# Mandatory User Implementations

  - Engine: the external storage engine adapter. The coordinator forwards
    data mutations to it and asks it for durability boundaries (flushes).
    A reference in-memory implementation is provided in
    `github.com/avolokh/apply-core/pkg/memstore`.

The consensus layer itself is not part of these contracts. Any component able
to deliver a per-group stream of committed entries in strictly increasing
(term, index) order can drive a Coordinator; an adapter for etcd/raft is
provided in `github.com/avolokh/apply-core/raftnode`.
*/
package api

import "errors"

var (
	// ErrInvalidAdminRequest is returned when an admin command is rejected,
	// e.g. a CompactLog whose target index is beyond the applied index.
	ErrInvalidAdminRequest = errors.New("apply: invalid admin request.")

	// ErrInconsistentState means the on-disk apply state was observed ahead
	// of the in-memory apply state, or a truncation watermark beyond the
	// applied position. The affected group is aborted.
	ErrInconsistentState = errors.New("apply: inconsistent apply state.")

	// ErrStaleEntry is returned for entries at or below the group's current
	// in-memory applied position.
	ErrStaleEntry = errors.New("apply: entry is at or below the applied position.")

	// ErrClosed is returned once the coordinator has been shut down.
	ErrClosed = errors.New("apply: coordinator is closed.")
)
