package api

import "fmt"

// GroupID identifies a single replicated unit of state (a shard) driven by
// its own consensus log.
type GroupID uint64

// Op is the mutation kind carried by a normal entry.
type Op uint8

const (
	OpPut Op = iota + 1
	OpDelete
)

// EntryKind classifies a committed entry.
type EntryKind uint8

const (
	EntryNormal EntryKind = iota + 1
	EntryAdmin
	EntryEmpty
)

func (k EntryKind) String() string {
	switch k {
	case EntryNormal:
		return "normal"
	case EntryAdmin:
		return "admin"
	case EntryEmpty:
		return "empty"
	default:
		return fmt.Sprintf("entrykind(%d)", uint8(k))
	}
}

// AdminKind enumerates the admin commands the coordinator knows how to
// handle. The set is closed: dispatching an AdminKind outside of it is a
// programming error, not a recoverable condition. AdminOther is the explicit
// fallback for commands the coordinator recognizes but has no special
// handling for.
type AdminKind uint8

const (
	AdminCompactLog AdminKind = iota + 1
	AdminComputeHash
	AdminVerifyHash
	AdminTransferLeader
	AdminChangePeer
	AdminOther
)

func (k AdminKind) String() string {
	switch k {
	case AdminCompactLog:
		return "compact-log"
	case AdminComputeHash:
		return "compute-hash"
	case AdminVerifyHash:
		return "verify-hash"
	case AdminTransferLeader:
		return "transfer-leader"
	case AdminChangePeer:
		return "change-peer"
	case AdminOther:
		return "other"
	default:
		return fmt.Sprintf("adminkind(%d)", uint8(k))
	}
}

// AdminCommand carries the kind-specific parameters of an admin entry.
type AdminCommand struct {
	Kind AdminKind

	// CompactLog only: the proposed truncation watermark.
	CompactIndex uint64
	CompactTerm  uint64

	// ComputeHash/VerifyHash only: opaque consistency-check payload. The
	// coordinator never interprets it, it is visible to observers only.
	Payload []byte
}

// CommittedEntry is one position of a group's consensus log, agreed upon and
// ready for local application. Entries for a group arrive in strictly
// increasing (Term, Index) order.
type CommittedEntry struct {
	Term  uint64
	Index uint64
	Kind  EntryKind

	// Normal entries only.
	Key   []byte
	Value []byte
	Op    Op

	// Admin entries only.
	Admin *AdminCommand
}

// NewPut builds a normal entry carrying a key/value insert.
func NewPut(term, index uint64, key, value []byte) CommittedEntry {
	return CommittedEntry{Term: term, Index: index, Kind: EntryNormal, Key: key, Value: value, Op: OpPut}
}

// NewDelete builds a normal entry carrying a key deletion.
func NewDelete(term, index uint64, key []byte) CommittedEntry {
	return CommittedEntry{Term: term, Index: index, Kind: EntryNormal, Key: key, Op: OpDelete}
}

// NewEmpty builds the no-op marker entry produced by a leadership change.
func NewEmpty(term, index uint64) CommittedEntry {
	return CommittedEntry{Term: term, Index: index, Kind: EntryEmpty}
}

// NewCompactLog builds a CompactLog admin entry proposing to truncate the
// log up to compactIndex/compactTerm.
func NewCompactLog(term, index, compactIndex, compactTerm uint64) CommittedEntry {
	return CommittedEntry{
		Term:  term,
		Index: index,
		Kind:  EntryAdmin,
		Admin: &AdminCommand{
			Kind:         AdminCompactLog,
			CompactIndex: compactIndex,
			CompactTerm:  compactTerm,
		},
	}
}

// NewComputeHash builds a ComputeHash consistency-check probe.
func NewComputeHash(term, index uint64, payload []byte) CommittedEntry {
	return CommittedEntry{
		Term:  term,
		Index: index,
		Kind:  EntryAdmin,
		Admin: &AdminCommand{Kind: AdminComputeHash, Payload: payload},
	}
}

// NewVerifyHash builds a VerifyHash consistency-check probe.
func NewVerifyHash(term, index uint64, payload []byte) CommittedEntry {
	return CommittedEntry{
		Term:  term,
		Index: index,
		Kind:  EntryAdmin,
		Admin: &AdminCommand{Kind: AdminVerifyHash, Payload: payload},
	}
}

// NewAdmin builds an admin entry of an arbitrary known kind.
func NewAdmin(term, index uint64, kind AdminKind) CommittedEntry {
	return CommittedEntry{Term: term, Index: index, Kind: EntryAdmin, Admin: &AdminCommand{Kind: kind}}
}
