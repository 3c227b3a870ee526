package atom

import "context"

// State is an atom's position in its lifecycle: created in memory and
// never persisted, reconstructed from storage but not yet materialized,
// or durably assigned a pointer.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// Store is the minimal persistence contract atom implementations depend
// on. pkg/sharedstorage provides the concrete, asynchronous implementation;
// pkg/atom only needs the blocking view of it.
type Store interface {
	PushAtom(ctx context.Context, payload map[string]any) (Pointer, error)
	GetAtom(ctx context.Context, ptr Pointer) (map[string]any, error)
	PushBytes(ctx context.Context, data []byte) (Pointer, error)
	GetBytes(ctx context.Context, ptr Pointer) ([]byte, error)
}

// Node is implemented by every persisted node kind: List/HashDictionary
// tree nodes, Dictionary, Set, CountedSet, RepeatedKeysDictionary,
// MutableObject, DBObject, Literal, BytesAtom, RootObject, and the Generic
// catch-all for unregistered user types.
type Node interface {
	// ClassName identifies the concrete type for registry dispatch; it is
	// carried in every persisted payload as "className".
	ClassName() string

	// Pointer returns the atom's identity once saved; IsZero before that.
	Pointer() Pointer

	// State reports the atom's current lifecycle position.
	State() State

	// Load reconstructs in-memory fields from the payload this node was
	// rehydrated with. It is a no-op once State is already Loaded or Saved.
	Load(ctx context.Context) error

	// Save recursively persists the node (children first) and assigns a
	// pointer on first call; subsequent calls return the same pointer
	// without re-serializing.
	Save(ctx context.Context) (Pointer, error)
}

// Base is embedded by every concrete Node implementation. It owns the
// store binding and the pointer/state bookkeeping common to all atoms.
type Base struct {
	store   Store
	pointer Pointer
	state   State
}

// Bind attaches the store an atom will save to and load from. Called once
// when an atom is created fresh or reconstructed from a payload.
func (b *Base) Bind(store Store) {
	b.store = store
}

func (b *Base) Store() Store {
	return b.store
}

func (b *Base) Pointer() Pointer {
	return b.pointer
}

func (b *Base) State() State {
	return b.state
}

// MarkLoaded transitions Unloaded -> Loaded; a no-op once Saved.
func (b *Base) MarkLoaded() {
	if b.state == StateUnloaded {
		b.state = StateLoaded
	}
}

// AssignPointer records the pointer returned by a successful Save and
// transitions the node to Saved. Safe to call more than once with the same
// pointer value (idempotent save); callers should never assign a second,
// different pointer to an already-saved node.
func (b *Base) AssignPointer(p Pointer) {
	b.pointer = p
	b.state = StateSaved
}

// AlreadySaved reports whether Save may skip re-serialization.
func (b *Base) AlreadySaved() bool {
	return b.state == StateSaved
}
