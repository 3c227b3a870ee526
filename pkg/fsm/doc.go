// Package fsm declares the generic, event-driven state machine contract
// that cluster and cloud adapters build on: apply an event, snapshot the
// current state, restore from a snapshot. pkg/txn and pkg/storage never
// import this package or any of its implementations; it exists purely
// so an external collaborator like pkg/cluster can plug in without the
// core engine knowing replication exists.
//
// Grounded on cuemby-warren's pkg/manager/fsm.go (WarrenFSM's
// Apply/Snapshot/Restore/Persist/Release shape), generalized from
// Warren's cluster-resource commands to a content-agnostic Event/
// Snapshot pair so pkg/cluster can replicate root-pointer publication
// instead of node/service/task records.
package fsm
