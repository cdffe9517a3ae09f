package api

// Hook names a deterministic interception point in the apply path. Hooks are
// plain configuration read at dispatch time; they exist so tests and
// operators can simulate delay, failure or filtering of engine operations
// without touching the coordinator's code paths.
type Hook string

const (
	// HookSuppressNormalApply accepts normal writes as committed (the
	// in-memory applied position still advances) but never forwards them to
	// the engine's data path.
	HookSuppressNormalApply Hook = "suppress-normal-apply"

	// HookSuppressEmptyObservation drops empty entries before they are
	// observed at all: neither the applied position nor any persistence
	// decision advances from such an entry.
	HookSuppressEmptyObservation Hook = "suppress-empty-observation"

	// HookForceAlwaysPersist forces a flush after every processed entry.
	HookForceAlwaysPersist Hook = "force-always-persist"

	// HookSuppressCompactPersist disables CompactLog's mandatory flush while
	// still accepting the command. This is a deliberately reachable error
	// state: truncation is reported successful without durability.
	HookSuppressCompactPersist Hook = "suppress-compact-persist"
)

// ApplyOutcome describes what happened to one committed entry.
type ApplyOutcome struct {
	Group GroupID
	Term  uint64
	Index uint64
	Kind  EntryKind

	// AdminKind is set for admin entries only.
	AdminKind AdminKind

	// Accepted is false when the entry was suppressed by a hook or its admin
	// command was rejected.
	Accepted bool

	// Flushed is true when processing this entry ended with the on-disk
	// apply state being brought up to the in-memory one.
	Flushed bool
}

// FlushEvent is emitted to flush subscribers whenever a group's on-disk
// apply state is advanced.
type FlushEvent struct {
	Group GroupID
	State ApplyState
}

// Coordinator is the apply-time coordination layer: it intercepts each
// committed entry of each group, routes it through per-kind handling,
// maintains the dual in-memory/on-disk apply state, and decides when a
// durability boundary must be forced.
type Coordinator interface {
	// Apply processes one committed entry for a group. Entries of a single
	// group must be submitted in strictly increasing (term, index) order;
	// different groups may be driven concurrently.
	Apply(group GroupID, entry CommittedEntry) (ApplyOutcome, error)

	// LeadershipChanged injects the no-op empty entry produced when the
	// group's leadership moves, at the new term and index.
	LeadershipChanged(group GroupID, term, index uint64) (ApplyOutcome, error)

	// ApplyStateOf returns a snapshot of the group's apply-state pair.
	// Re-querying without new entries returns an identical snapshot.
	ApplyStateOf(group GroupID) (inMemory, onDisk ApplyState)

	// SetHook toggles a named hook.
	SetHook(h Hook, enabled bool)

	// HookEnabled reports the current setting of a named hook.
	HookEnabled(h Hook) bool

	// SetAdminSuppressed bypasses (or restores) the handler for one admin
	// kind: while suppressed, commands of that kind are treated as rejected
	// without side effects.
	SetAdminSuppressed(kind AdminKind, suppressed bool)

	// SubscribeFlushes registers a flush-completion listener. The returned
	// cancel function must be called when the subscriber is done.
	SubscribeFlushes(buffer int) (<-chan FlushEvent, func())

	// Close stops background flushing and flushes every dirty group to
	// completion. A pending flush is never silently abandoned.
	Close() error
}
