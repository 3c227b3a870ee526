package txn

import "context"

// MutableObject is a slot-indirected handle to a DBObject: reading or
// writing through it always goes through the owning Transaction's
// mutable-slot table, so every holder of the same slot id observes the
// same sequence of writes within one transaction. Grounded on
// common.py's MutableObject.
type MutableObject struct {
	txn  *Transaction
	slot uint64
}

// Slot returns the mutable's slot id, stable for its lifetime; callers
// that need to store a reference to a mutable elsewhere (e.g. as a
// DBObject attribute) persist this id, not a pointer.
func (m *MutableObject) Slot() uint64 { return m.slot }

// Get reads attribute name from the mutable's current value.
func (m *MutableObject) Get(ctx context.Context, name string) (any, bool, error) {
	current, err := m.txn.GetMutable(ctx, m.slot)
	if err != nil {
		return nil, false, err
	}
	obj, ok := current.(*DBObject)
	if !ok {
		return nil, false, nil
	}
	v, ok := obj.Get(name)
	return v, ok, nil
}

// Set writes attribute name on the mutable, staging a new DBObject
// version and recording the pre-write value for optimistic validation at
// commit, the first time this slot is written in the transaction.
func (m *MutableObject) Set(ctx context.Context, name string, value any) error {
	current, err := m.txn.GetMutable(ctx, m.slot)
	if err != nil {
		return err
	}
	obj, ok := current.(*DBObject)
	if !ok {
		obj = NewDBObject(m.txn, "DBObject", nil)
	}
	next := obj.With(name, value)
	m.txn.SetMutable(m.slot, next)
	if !current.Pointer().IsZero() {
		m.txn.SetLockedObject(m.slot, current)
	}
	return nil
}

// Delete clears attribute name on the mutable.
func (m *MutableObject) Delete(ctx context.Context, name string) error {
	current, err := m.txn.GetMutable(ctx, m.slot)
	if err != nil {
		return err
	}
	obj, ok := current.(*DBObject)
	if !ok {
		return nil
	}
	next := obj.Without(name)
	m.txn.SetMutable(m.slot, next)
	if !current.Pointer().IsZero() {
		m.txn.SetLockedObject(m.slot, current)
	}
	return nil
}
