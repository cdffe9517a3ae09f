package raftnode

import "go.etcd.io/etcd/raft/v3/raftpb"

// Transport carries raft messages to peer nodes. Implementations own peer
// addressing; the node only hands them messages.
type Transport interface {
	Send(msg raftpb.Message) error
	AddPeer(id uint64, addr string)
	RemovePeer(id uint64)
}

// Loopback is the transport of a single-node group: there are no peers, so
// every send is a no-op. Used in tests and single-process deployments.
type Loopback struct{}

func (Loopback) Send(raftpb.Message) error  { return nil }
func (Loopback) AddPeer(uint64, string)     {}
func (Loopback) RemovePeer(uint64)          {}
