package raftnode

import (
	"encoding/json"
	"fmt"

	"github.com/avolokh/apply-core/api"
	"github.com/google/uuid"
)

type commandKind string

const (
	cmdPut    commandKind = "put"
	cmdDelete commandKind = "delete"
	cmdAdmin  commandKind = "admin"
)

// command is the proposal envelope carried in a raft entry's data. The ID
// lets the proposing node route the apply result back to the waiting caller.
type command struct {
	ID   uuid.UUID   `json:"id"`
	Kind commandKind `json:"kind"`

	Key   []byte `json:"key,omitempty"`
	Value []byte `json:"value,omitempty"`

	Admin *api.AdminCommand `json:"admin,omitempty"`
}

func encodeCommand(cmd command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	return data, nil
}

func decodeCommand(data []byte) (command, error) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("unmarshal command: %w", err)
	}
	return cmd, nil
}

// toEntry maps a decoded command at its committed log position onto the
// coordinator's entry type.
func (cmd command) toEntry(term, index uint64) (api.CommittedEntry, error) {
	switch cmd.Kind {
	case cmdPut:
		return api.NewPut(term, index, cmd.Key, cmd.Value), nil
	case cmdDelete:
		return api.NewDelete(term, index, cmd.Key), nil
	case cmdAdmin:
		if cmd.Admin == nil {
			return api.CommittedEntry{}, fmt.Errorf("admin command without payload")
		}
		return api.CommittedEntry{
			Term:  term,
			Index: index,
			Kind:  api.EntryAdmin,
			Admin: cmd.Admin,
		}, nil
	default:
		return api.CommittedEntry{}, fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}
