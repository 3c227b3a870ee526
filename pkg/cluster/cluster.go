package cluster

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/cuemby/protobase/pkg/log"
	"github.com/cuemby/protobase/pkg/storage"
)

// Config describes one node's participation in the raft group that
// replicates root pointer publication. Grounded on
// cuemby-warren/pkg/manager.Config (NodeID, BindAddr, DataDir).
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string

	// HeartbeatTimeout/ElectionTimeout tune failover latency, defaulting
	// to raft.DefaultConfig's conservative WAN values when zero. The
	// teacher's own Manager.Bootstrap halves these for LAN/edge
	// deployments; callers needing that do the same here.
	HeartbeatTimeout   time.Duration
	ElectionTimeout    time.Duration
	LeaderLeaseTimeout time.Duration
}

// Bootstrap creates a brand-new, single-node raft cluster wrapping
// local, with this node as its only member. Other nodes join later via
// Join on the leader. Grounded on Manager.Bootstrap.
func Bootstrap(cfg Config, local storage.BlockProvider) (*Provider, error) {
	r, inner, transport, err := newRaft(cfg, local)
	if err != nil {
		return nil, err
	}

	configuration := raft.Configuration{
		Servers: []raft.Server{{ID: raft.ServerID(cfg.NodeID), Address: transport.LocalAddr()}},
	}
	if err := r.BootstrapCluster(configuration).Error(); err != nil {
		return nil, fmt.Errorf("cluster: bootstrap: %w", err)
	}

	log.WithComponent("cluster").Info().Str("node_id", cfg.NodeID).Str("addr", cfg.BindAddr).
		Msg("bootstrapped single-node raft cluster")
	return newProvider(local, r, inner), nil
}

// Join starts this node's raft instance without bootstrapping a new
// cluster; the returned Provider only becomes usable once the existing
// leader calls AddVoter for this node's ID/address (typically over
// pkg/clusterapi). Grounded on Manager's join-path comment in
// poc/raft/main.go ("manual configuration required").
func Join(cfg Config, local storage.BlockProvider) (*Provider, error) {
	r, inner, _, err := newRaft(cfg, local)
	if err != nil {
		return nil, err
	}
	return newProvider(local, r, inner), nil
}

func newRaft(cfg Config, local storage.BlockProvider) (*raft.Raft, *rootStateMachine, *raft.NetworkTransport, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: create data directory: %w", err)
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.NodeID)
	if cfg.HeartbeatTimeout > 0 {
		raftConfig.HeartbeatTimeout = cfg.HeartbeatTimeout
	}
	if cfg.ElectionTimeout > 0 {
		raftConfig.ElectionTimeout = cfg.ElectionTimeout
	}
	if cfg.LeaderLeaseTimeout > 0 {
		raftConfig.LeaderLeaseTimeout = cfg.LeaderLeaseTimeout
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: create stable store: %w", err)
	}

	inner := newRootStateMachine(local)
	r, err := raft.NewRaft(raftConfig, newRaftFSM(inner), logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cluster: create raft instance: %w", err)
	}
	return r, inner, transport, nil
}

// AddVoter adds nodeID at addr as a new voting member. Must run on the
// current leader. Grounded on Manager.AddNode.
func (p *Provider) AddVoter(nodeID, addr string) error {
	if !p.IsLeader() {
		return fmt.Errorf("cluster: AddVoter must run on the leader")
	}
	return p.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, 10*time.Second).Error()
}

// RemoveServer removes nodeID from the voting configuration. Must run
// on the current leader. Grounded on Manager.RemoveNode.
func (p *Provider) RemoveServer(nodeID string) error {
	if !p.IsLeader() {
		return fmt.Errorf("cluster: RemoveServer must run on the leader")
	}
	return p.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second).Error()
}

// Stats reports a small set of raft health indicators. Grounded on
// Manager.GetStats.
func (p *Provider) Stats() map[string]string {
	stats := p.raft.Stats()
	stats["is_leader"] = fmt.Sprintf("%t", p.IsLeader())
	return stats
}
