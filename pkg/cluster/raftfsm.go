package cluster

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/raft"

	"github.com/cuemby/protobase/pkg/fsm"
)

// raftCommand is the envelope a raft log entry carries: an fsm.Event
// flattened to JSON. Grounded on WarrenFSM's Command{Op, Data}.
type raftCommand struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// raftFSM adapts a generic fsm.FSM to hashicorp/raft's raft.FSM
// contract, so the replication mechanics (log entries, snapshot sinks)
// stay in this one small file and rootStateMachine stays raft-agnostic.
type raftFSM struct {
	inner *rootStateMachine
}

func newRaftFSM(inner *rootStateMachine) *raftFSM {
	return &raftFSM{inner: inner}
}

func (f *raftFSM) Apply(log *raft.Log) any {
	var cmd raftCommand
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("cluster: decode raft log entry: %w", err)
	}
	result, err := f.inner.Apply(fsm.Event{Op: cmd.Op, Data: cmd.Data})
	if err != nil {
		return err
	}
	return result
}

func (f *raftFSM) Snapshot() (raft.FSMSnapshot, error) {
	snap, err := f.inner.Snapshot()
	if err != nil {
		return nil, err
	}
	return &raftSnapshot{inner: snap}, nil
}

func (f *raftFSM) Restore(rc io.ReadCloser) error {
	return f.inner.Restore(rc)
}

// raftSnapshot adapts an fsm.Snapshot to raft.FSMSnapshot: raft.SnapshotSink
// already satisfies io.WriteCloser, so Persist forwards directly.
type raftSnapshot struct {
	inner fsm.Snapshot
}

func (s *raftSnapshot) Persist(sink raft.SnapshotSink) error {
	if err := s.inner.Persist(sink); err != nil {
		sink.Cancel()
		return err
	}
	return nil
}

func (s *raftSnapshot) Release() {
	s.inner.Release()
}

// encodeCommand builds the raft log payload for op/data.
func encodeCommand(op string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("cluster: encode %s command data: %w", op, err)
	}
	return json.Marshal(raftCommand{Op: op, Data: payload})
}
