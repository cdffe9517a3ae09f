package raftnode

import (
	"time"

	"github.com/avolokh/apply-core/api"
	"go.etcd.io/etcd/raft/v3"
)

type Peer struct {
	ID      uint64 `yaml:"id"`
	Address string `yaml:"address"`
}

// Config describes one raft-driven replication group hosted by this
// process.
type Config struct {
	// ID is this node's raft id. Must appear in Peers.
	ID uint64 `yaml:"id"`

	// Group is the coordinator group this node's log drives.
	Group api.GroupID `yaml:"group"`

	Peers []Peer `yaml:"peers"`

	TickInterval  time.Duration `yaml:"tick_interval"`
	ElectionTick  int           `yaml:"election_tick"`
	HeartbeatTick int           `yaml:"heartbeat_tick"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.TickInterval <= 0 {
		out.TickInterval = 100 * time.Millisecond
	}
	if out.ElectionTick <= 0 {
		out.ElectionTick = 10
	}
	if out.HeartbeatTick <= 0 {
		out.HeartbeatTick = 1
	}
	return out
}

func (c *Config) toRaftConfig(storage *raft.MemoryStorage) *raft.Config {
	return &raft.Config{
		ID:              c.ID,
		ElectionTick:    c.ElectionTick,
		HeartbeatTick:   c.HeartbeatTick,
		Storage:         storage,
		MaxSizePerMsg:   1024 * 1024,
		MaxInflightMsgs: 256,
	}
}
