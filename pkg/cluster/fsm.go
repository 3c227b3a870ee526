package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/fsm"
	"github.com/cuemby/protobase/pkg/storage"
)

// opPublishRoot is the only event this state machine knows: publish a
// new root pointer, replacing whatever the local provider currently
// holds. Grounded on WarrenFSM's Command.Op vocabulary, reduced to the
// one operation a replicated BlockProvider needs.
const opPublishRoot = "publish_root"

// rootCommand is the JSON payload carried by a raft log entry.
type rootCommand struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Offset        uint64    `json:"offset"`
}

// rootStateMachine implements fsm.FSM by applying committed root
// pointer publications to a local storage.BlockProvider. It is the
// generic, raft-agnostic half of the adapter; raftFSM (raftfsm.go)
// bridges it to hashicorp/raft's own FSM contract.
type rootStateMachine struct {
	mu    sync.Mutex
	local storage.BlockProvider
}

func newRootStateMachine(local storage.BlockProvider) *rootStateMachine {
	return &rootStateMachine{local: local}
}

func (m *rootStateMachine) Apply(event fsm.Event) (any, error) {
	if event.Op != opPublishRoot {
		return nil, fmt.Errorf("cluster: unknown event %q", event.Op)
	}
	var cmd rootCommand
	if err := json.Unmarshal(event.Data, &cmd); err != nil {
		return nil, fmt.Errorf("cluster: decode publish_root command: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// local.UpdateRoot's contract requires the caller to already hold
	// RootContextManager's lock. We deliberately do not acquire it here:
	// raft invokes FSM.Apply for committed entries one at a time on its
	// own internal apply goroutine, so writes are already serialized:
	// acquiring the lock here would deadlock against a leader's own
	// Provider.UpdateRoot call, which blocks on this same Apply
	// completing while already holding that lock itself.
	ptr := atom.Pointer{TransactionID: cmd.TransactionID, Offset: cmd.Offset}
	if err := m.local.UpdateRoot(context.Background(), ptr); err != nil {
		return nil, err
	}
	return ptr, nil
}

func (m *rootStateMachine) Snapshot() (fsm.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ptr, ok, err := m.local.GetCurrentRoot(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cluster: snapshot current root: %w", err)
	}
	if !ok {
		ptr = atom.Pointer{}
	}
	return &rootSnapshot{cmd: rootCommand{TransactionID: ptr.TransactionID, Offset: ptr.Offset}}, nil
}

func (m *rootStateMachine) Restore(r io.ReadCloser) error {
	defer r.Close()

	var cmd rootCommand
	if err := json.NewDecoder(r).Decode(&cmd); err != nil {
		return fmt.Errorf("cluster: decode root snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Same reasoning as Apply: raft only calls Restore during its own
	// snapshot-install sequence, never concurrently with an in-flight
	// UpdateRoot, so no additional lock acquisition is needed here.
	return m.local.UpdateRoot(context.Background(), atom.Pointer{TransactionID: cmd.TransactionID, Offset: cmd.Offset})
}

// rootSnapshot is the fsm.Snapshot a rootStateMachine produces: the
// single root pointer it held at snapshot time.
type rootSnapshot struct {
	cmd rootCommand
}

func (s *rootSnapshot) Persist(sink io.WriteCloser) error {
	if err := json.NewEncoder(sink).Encode(s.cmd); err != nil {
		return err
	}
	return sink.Close()
}

func (s *rootSnapshot) Release() {}
