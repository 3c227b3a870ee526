// Package cluster is the external, raft-backed collaborator that turns
// a single node's storage.BlockProvider into a replicated one: root
// pointer publication goes through raft consensus instead of a local
// mutex, so every voting member converges on the same root pointer
// before a commit is acknowledged. pkg/txn and pkg/storage never import
// this package — a caller wires it in by handing Provider a
// storage.BlockProvider to wrap.
//
// Grounded on cuemby-warren's pkg/manager/fsm.go (the raft.FSM/
// raft.FSMSnapshot shape) and pkg/manager/manager.go's Bootstrap
// (raft.DefaultConfig, TCP transport, BoltDB log/stable stores, file
// snapshot store), reduced from Warren's multi-resource cluster state
// to the single concern spec.md §4.10 names: replicating one root
// pointer. poc/raft/main.go's bootstrap sequence is the same shape
// again, confirming it as Warren's idiomatic raft setup rather than an
// incidental one.
package cluster
