package api

import "fmt"

// Engine is the external storage engine adapter consumed by the coordinator.
// Implementations must be safe for concurrent use across groups; within a
// single group the coordinator serializes all calls.
type Engine interface {
	// Write applies one data mutation for the given group.
	Write(group GroupID, key, value []byte, op Op) error

	// Flush makes everything written for the group durable. It must be safe
	// to call when nothing changed (a no-op) and must be all-or-nothing from
	// the caller's perspective.
	Flush(group GroupID) error

	// Read returns the current value of key, if any. It is used by external
	// test and observability code, never by the coordinator itself.
	Read(group GroupID, key []byte) ([]byte, bool, error)
}

// EngineError wraps a failure reported by the Engine adapter, annotated with
// the operation and group it came from.
type EngineError struct {
	Op    string
	Group GroupID
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s (group %d): %v", e.Op, e.Group, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
