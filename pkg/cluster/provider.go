package cluster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/raft"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
	"github.com/cuemby/protobase/pkg/storage"
)

// ApplyTimeout bounds how long a root-pointer publication waits for raft
// to commit it before giving up.
const ApplyTimeout = 5 * time.Second

// Provider wraps a local storage.BlockProvider, replicating root pointer
// publication through raft consensus while leaving WAL append/read
// untouched (each node still writes its own WAL locally; only the root
// pointer — the thing every node must agree on — goes through the log).
// Grounded on spec.md §4.10's "replicates root-pointer publication"
// framing and pkg/manager.Manager's raft plumbing.
type Provider struct {
	local storage.BlockProvider
	raft  *raft.Raft
	fsm   *rootStateMachine
}

// newProvider wraps local, replicating its root pointer through r.
// r's FSM must be the raftFSM this package's Bootstrap/Join
// constructors build over local — callers assemble both together via
// Bootstrap or Join, not this function directly, except in tests that
// need the raw pieces.
func newProvider(local storage.BlockProvider, r *raft.Raft, fsm *rootStateMachine) *Provider {
	return &Provider{local: local, raft: r, fsm: fsm}
}

func (p *Provider) NewWAL(ctx context.Context) (uuid.UUID, uint64, error) {
	return p.local.NewWAL(ctx)
}

func (p *Provider) WriterWALID() uuid.UUID { return p.local.WriterWALID() }

func (p *Provider) WriteStreamer(walID uuid.UUID) (storage.WriteStreamer, error) {
	return p.local.WriteStreamer(walID)
}

func (p *Provider) Reader(walID uuid.UUID, offset uint64) (storage.ReadStreamer, error) {
	return p.local.Reader(walID, offset)
}

func (p *Provider) GetCurrentRoot(ctx context.Context) (atom.Pointer, bool, error) {
	return p.local.GetCurrentRoot(ctx)
}

// UpdateRoot replicates ptr through raft before it is visible to any
// node, including this one: the actual local write happens inside
// rootStateMachine.Apply once raft commits the entry, not here.
// Callers must already hold RootContextManager's lock, same as a local
// provider, so only one publication is in flight at a time.
func (p *Provider) UpdateRoot(ctx context.Context, ptr atom.Pointer) error {
	if p.raft.State() != raft.Leader {
		return pberr.NotSupportedf("cluster: UpdateRoot must run on the leader, this node is %s", p.raft.State())
	}
	payload, err := encodeCommand(opPublishRoot, rootCommand{TransactionID: ptr.TransactionID, Offset: ptr.Offset})
	if err != nil {
		return err
	}
	future := p.raft.Apply(payload, ApplyTimeout)
	if err := future.Error(); err != nil {
		return pberr.Unexpectedf("cluster: replicate root pointer: %v", err)
	}
	if applyErr, ok := future.Response().(error); ok && applyErr != nil {
		return pberr.Unexpectedf("cluster: apply root pointer: %v", applyErr)
	}
	return nil
}

// RootContextManager acquires the local provider's root lock. It does
// not itself enforce leadership — UpdateRoot does — so a follower can
// still observe GetCurrentRoot consistently while holding it.
func (p *Provider) RootContextManager(ctx context.Context) (storage.RootLock, error) {
	return p.local.RootContextManager(ctx)
}

func (p *Provider) CloseWAL(walID uuid.UUID) error { return p.local.CloseWAL(walID) }

func (p *Provider) Close() error {
	shutdown := p.raft.Shutdown()
	if err := shutdown.Error(); err != nil {
		return pberr.Unexpectedf("cluster: raft shutdown: %v", err)
	}
	return p.local.Close()
}

// IsLeader reports whether this node currently holds raft leadership.
func (p *Provider) IsLeader() bool { return p.raft.State() == raft.Leader }

// Leader reports the current leader's raft server address, if known.
func (p *Provider) Leader() string { return string(p.raft.Leader()) }
