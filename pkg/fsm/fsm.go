package fsm

import "io"

// Event is one state-changing operation a FSM applies. Op names the
// operation (an adapter's own vocabulary, e.g. "publish_root"); Data
// carries its encoded payload. Grounded on WarrenFSM's Command{Op, Data}.
type Event struct {
	Op   string
	Data []byte
}

// Snapshot is a point-in-time capture of a FSM's state, written out by
// Persist and read back by an adapter's Restore. Grounded on
// WarrenSnapshot/raft.FSMSnapshot's Persist/Release split.
type Snapshot interface {
	// Persist writes the snapshot to sink, closing it on success and
	// calling its Cancel hook (if any) on failure.
	Persist(sink io.WriteCloser) error

	// Release frees any resources the snapshot holds open.
	Release()
}

// FSM is the generic contract an event-driven state machine implements.
// A concrete adapter (pkg/cluster's raft.FSM wrapper) both consumes
// Event instances as a log replicates them and produces/restores
// Snapshot instances as the log gets compacted.
type FSM interface {
	// Apply applies a single committed event to the state machine,
	// returning the operation's result (or an error to surface to the
	// caller awaiting that event's commit).
	Apply(event Event) (any, error)

	// Snapshot captures the current state for log compaction.
	Snapshot() (Snapshot, error)

	// Restore replaces the current state with the one read from r,
	// which the implementation closes when done (mirroring
	// raft.FSM.Restore's io.ReadCloser contract).
	Restore(r io.ReadCloser) error
}
