// Package memstore is a reference in-memory implementation of the Engine
// adapter. Data is kept per group in ordered concurrent maps; flushes are
// no-ops that can be made to fail on demand, which is what the coordinator
// tests use to model an engine that cannot durably capture its data.
package memstore

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/avolokh/apply-core/api"
	"github.com/zhangyunhao116/skipmap"
)

type orderedKV = skipmap.FuncMap[[]byte, []byte]

type Store struct {
	groups *skipmap.FuncMap[uint64, *orderedKV]

	mu       sync.RWMutex
	flushErr error
	flushes  map[api.GroupID]int
}

var _ api.Engine = (*Store)(nil)

func New() *Store {
	return &Store{
		groups: skipmap.NewFunc[uint64, *orderedKV](func(a, b uint64) bool {
			return a < b
		}),
		flushes: make(map[api.GroupID]int),
	}
}

func (s *Store) data(group api.GroupID) *orderedKV {
	if kv, ok := s.groups.Load(uint64(group)); ok {
		return kv
	}
	kv, _ := s.groups.LoadOrStore(uint64(group), skipmap.NewFunc[[]byte, []byte](func(a, b []byte) bool {
		return bytes.Compare(a, b) < 0
	}))
	return kv
}

func (s *Store) Write(group api.GroupID, key, value []byte, op api.Op) error {
	if len(key) == 0 {
		return fmt.Errorf("memstore: empty key")
	}

	kv := s.data(group)
	switch op {
	case api.OpPut:
		kv.Store(bytes.Clone(key), bytes.Clone(value))
	case api.OpDelete:
		kv.Delete(key)
	default:
		return fmt.Errorf("memstore: unknown op %d", op)
	}
	return nil
}

// Flush is a no-op for an in-memory store. It still counts invocations and
// honors an injected failure so callers can exercise their durability
// handling.
func (s *Store) Flush(group api.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flushErr != nil {
		return s.flushErr
	}
	s.flushes[group]++
	return nil
}

func (s *Store) Read(group api.GroupID, key []byte) ([]byte, bool, error) {
	kv, ok := s.groups.Load(uint64(group))
	if !ok {
		return nil, false, nil
	}
	v, ok := kv.Load(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// FailFlushes makes every subsequent Flush return err. A nil err restores
// normal operation.
func (s *Store) FailFlushes(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushErr = err
}

// Flushes reports how many successful flushes the group has seen.
func (s *Store) Flushes(group api.GroupID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flushes[group]
}
