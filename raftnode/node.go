// Package raftnode adapts an etcd/raft node to the apply coordinator: it
// runs the consensus loop, decodes committed entries into coordinator
// entries, and turns the no-op entry a new leader appends into the
// coordinator's leadership-change signal.
package raftnode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
	"github.com/google/uuid"
	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

type proposalResult struct {
	Err error
}

type Node struct {
	id    uint64
	group api.GroupID
	coord api.Coordinator

	underlying   raft.Node
	storage      *raft.MemoryStorage
	transport    Transport
	tickInterval time.Duration
	peers        map[uint64]string

	ctx  context.Context
	stop context.CancelFunc
	log  *slog.Logger

	proposalsMu sync.RWMutex
	proposals   map[uuid.UUID]chan proposalResult
}

func NewNode(cfg Config, coord api.Coordinator, transport Transport, log *slog.Logger) (*Node, error) {
	cfg = cfg.withDefaults()

	peers := make(map[uint64]string, len(cfg.Peers))
	raftPeers := make([]raft.Peer, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		if _, ok := peers[p.ID]; ok {
			return nil, fmt.Errorf("duplicate peer ID %d", p.ID)
		}
		peers[p.ID] = p.Address
		raftPeers = append(raftPeers, raft.Peer{ID: p.ID, Context: []byte(p.Address)})
	}
	if _, ok := peers[cfg.ID]; !ok {
		return nil, fmt.Errorf("node ID %d is not in the peer list", cfg.ID)
	}

	storage := raft.NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		id:           cfg.ID,
		group:        cfg.Group,
		coord:        coord,
		underlying:   raft.StartNode(cfg.toRaftConfig(storage), raftPeers),
		storage:      storage,
		transport:    transport,
		tickInterval: cfg.TickInterval,
		peers:        peers,
		ctx:          ctx,
		stop:         cancel,
		log:          log,
		proposals:    make(map[uuid.UUID]chan proposalResult),
	}, nil
}

// Run drives the raft node until either context is done.
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return n.ctx.Err()
		case <-ctx.Done():
			n.Stop()
			return ctx.Err()
		case <-ticker.C:
			n.underlying.Tick()
		case rd := <-n.underlying.Ready():
			if err := n.handleReady(rd); err != nil {
				return err
			}
		}
	}
}

func (n *Node) handleReady(rd raft.Ready) error {
	if !raft.IsEmptyHardState(rd.HardState) {
		if err := n.storage.SetHardState(rd.HardState); err != nil {
			return fmt.Errorf("set hard state: %w", err)
		}
	}
	if err := n.storage.Append(rd.Entries); err != nil {
		return fmt.Errorf("append entries: %w", err)
	}

	n.sendMessages(rd.Messages)

	for _, entry := range rd.CommittedEntries {
		switch entry.Type {
		case raftpb.EntryNormal:
			if err := n.applyEntry(entry); err != nil {
				return fmt.Errorf("apply entry %d: %w", entry.Index, err)
			}
		case raftpb.EntryConfChange:
			var cc raftpb.ConfChange
			if err := cc.Unmarshal(entry.Data); err != nil {
				return fmt.Errorf("unmarshal conf change: %w", err)
			}
			n.underlying.ApplyConfChange(cc)
			n.updateTransport(cc)
		}
	}

	n.underlying.Advance()
	return nil
}

// applyEntry feeds one committed entry to the coordinator. An apply error is
// the proposer's result, not a node failure: followers have no proposal to
// notify and just log it.
func (n *Node) applyEntry(entry raftpb.Entry) error {
	if len(entry.Data) == 0 {
		// The no-op entry a newly elected leader appends: the group's
		// leadership changed at this position.
		if _, err := n.coord.LeadershipChanged(n.group, entry.Term, entry.Index); err != nil {
			n.log.Warn(
				"leadership-change entry not applied",
				slog.Uint64("index", entry.Index),
				logger.ErrAttr(err),
			)
		}
		return nil
	}

	cmd, err := decodeCommand(entry.Data)
	if err != nil {
		return err
	}
	applied, err := cmd.toEntry(entry.Term, entry.Index)
	if err != nil {
		return err
	}

	_, applyErr := n.coord.Apply(n.group, applied)
	if applyErr != nil {
		n.log.Debug(
			"entry apply returned error",
			slog.Uint64("index", entry.Index),
			logger.ErrAttr(applyErr),
		)
	}
	n.notifyProposal(cmd.ID, proposalResult{Err: applyErr})
	return nil
}

func (n *Node) updateTransport(cc raftpb.ConfChange) {
	switch cc.Type {
	case raftpb.ConfChangeAddNode:
		addr := string(cc.Context)
		n.peers[cc.NodeID] = addr
		n.transport.AddPeer(cc.NodeID, addr)
	case raftpb.ConfChangeRemoveNode:
		delete(n.peers, cc.NodeID)
		n.transport.RemovePeer(cc.NodeID)
	}
}

func (n *Node) sendMessages(msgs []raftpb.Message) {
	for _, msg := range msgs {
		if msg.To == n.id {
			continue
		}
		go func(m raftpb.Message) {
			if err := n.transport.Send(m); err != nil {
				n.log.Warn(
					"failed to send raft message",
					slog.Uint64("to", m.To),
					slog.String("type", m.Type.String()),
					logger.ErrAttr(err),
				)
			}
		}(msg)
	}
}

func (n *Node) notifyProposal(id uuid.UUID, result proposalResult) {
	n.proposalsMu.RLock()
	ch, ok := n.proposals[id]
	n.proposalsMu.RUnlock()
	if !ok {
		return
	}

	select {
	case ch <- result:
	default:
	}
}

// execute proposes one command and waits until it is applied locally.
func (n *Node) execute(ctx context.Context, cmd command) error {
	data, err := encodeCommand(cmd)
	if err != nil {
		return err
	}

	ch := make(chan proposalResult, 1)
	n.proposalsMu.Lock()
	n.proposals[cmd.ID] = ch
	n.proposalsMu.Unlock()
	defer func() {
		n.proposalsMu.Lock()
		delete(n.proposals, cmd.ID)
		n.proposalsMu.Unlock()
	}()

	if err := n.underlying.Propose(ctx, data); err != nil {
		return fmt.Errorf("propose: %w", err)
	}

	select {
	case result := <-ch:
		return result.Err
	case <-ctx.Done():
		return ctx.Err()
	case <-n.ctx.Done():
		return fmt.Errorf("node stopped")
	}
}

// Put proposes a key/value write and waits for its local application.
func (n *Node) Put(ctx context.Context, key, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("empty key")
	}
	return n.execute(ctx, command{ID: uuid.New(), Kind: cmdPut, Key: key, Value: value})
}

// Delete proposes a key deletion.
func (n *Node) Delete(ctx context.Context, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("empty key")
	}
	return n.execute(ctx, command{ID: uuid.New(), Kind: cmdDelete, Key: key})
}

// CompactLog proposes a log compaction up to index/term. The error returned
// is the coordinator's accept/reject result.
func (n *Node) CompactLog(ctx context.Context, index, term uint64) error {
	return n.execute(ctx, command{
		ID:   uuid.New(),
		Kind: cmdAdmin,
		Admin: &api.AdminCommand{
			Kind:         api.AdminCompactLog,
			CompactIndex: index,
			CompactTerm:  term,
		},
	})
}

// ProposeAdmin proposes an arbitrary admin command.
func (n *Node) ProposeAdmin(ctx context.Context, admin api.AdminCommand) error {
	return n.execute(ctx, command{ID: uuid.New(), Kind: cmdAdmin, Admin: &admin})
}

func (n *Node) IsLeader() bool {
	return n.underlying.Status().Lead == n.id
}

func (n *Node) LeaderID() uint64 {
	return n.underlying.Status().Lead
}

func (n *Node) Stop() {
	n.underlying.Stop()
	n.stop()

	n.proposalsMu.Lock()
	defer n.proposalsMu.Unlock()
	for id, ch := range n.proposals {
		select {
		case ch <- proposalResult{Err: fmt.Errorf("node stopped")}:
		default:
		}
		delete(n.proposals, id)
	}
}
