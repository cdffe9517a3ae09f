package api

// ApplyState records the position up to which a group's log has been applied
// at one layer, plus the truncation watermark below which log entries may be
// discarded. Each group tracks two instances: the in-memory view and the
// on-disk (durable) view. The on-disk view must never lead the in-memory one.
type ApplyState struct {
	AppliedIndex   uint64 `json:"appliedIndex"`
	AppliedTerm    uint64 `json:"appliedTerm"`
	TruncatedIndex uint64 `json:"truncatedIndex"`
	TruncatedTerm  uint64 `json:"truncatedTerm"`
}

// Leads reports whether s is ahead of o on any axis. Used for the
// no-rollback invariant: onDisk.Leads(inMemory) must always be false.
func (s ApplyState) Leads(o ApplyState) bool {
	return s.AppliedIndex > o.AppliedIndex || s.TruncatedIndex > o.TruncatedIndex
}

// Valid reports whether the state is internally consistent: the truncation
// watermark can never pass the applied position.
func (s ApplyState) Valid() bool {
	return s.TruncatedIndex <= s.AppliedIndex
}
