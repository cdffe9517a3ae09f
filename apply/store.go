package apply

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
	"github.com/zhangyunhao116/skipmap"
)

// groupState is the dual apply-state record of one replication group. The
// store exclusively owns both views; every mutation flows through the
// dispatcher while mu is held, which also serializes entry processing for
// the group.
type groupState struct {
	mu sync.Mutex

	inMemory api.ApplyState
	onDisk   api.ApplyState

	// entries processed since the last flush
	dirty int

	// set after an invariant violation; the group refuses further work
	aborted bool
}

// stateStore keeps the per-group apply-state records, sharded by group id in
// a concurrent skip map so groups never contend with each other.
type stateStore struct {
	groups *skipmap.FuncMap[uint64, *groupState]
	logger *slog.Logger
}

func newStateStore(log *slog.Logger) *stateStore {
	return &stateStore{
		groups: skipmap.NewFunc[uint64, *groupState](func(a, b uint64) bool {
			return a < b
		}),
		logger: log,
	}
}

// group returns the record for id, creating a zero-state one at first use.
func (s *stateStore) group(id api.GroupID) *groupState {
	if g, ok := s.groups.Load(uint64(id)); ok {
		return g
	}
	g, _ := s.groups.LoadOrStore(uint64(id), &groupState{})
	return g
}

// snapshot copies both views of the group.
//
// Assumes g.mu is held.
func (g *groupState) snapshot() (inMemory, onDisk api.ApplyState) {
	return g.inMemory, g.onDisk
}

// check validates the store invariants for the group and aborts it on a
// violation. On-disk state ahead of memory, or a truncation watermark beyond
// the applied position, cannot occur under correct sequencing; continuing
// would operate on corrupted state.
//
// Assumes g.mu is held.
func (s *stateStore) check(id api.GroupID, g *groupState) error {
	if !g.onDisk.Leads(g.inMemory) && g.inMemory.Valid() && g.onDisk.Valid() {
		return nil
	}

	g.aborted = true
	err := fmt.Errorf(
		"%w: group %d in_memory=%+v on_disk=%+v",
		api.ErrInconsistentState, id, g.inMemory, g.onDisk,
	)
	s.logger.Error(
		"CRITICAL: apply-state invariant violated, aborting group",
		slog.Uint64("group", uint64(id)),
		logger.ErrAttr(err),
	)
	return err
}
