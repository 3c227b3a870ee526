package atom

import (
	"sync"

	"github.com/cuemby/protobase/pkg/pberr"
)

// Constructor builds an empty Node of one concrete class, ready for Load
// to populate it from a payload.
type Constructor func() Node

// Registry maps a className carried in a persisted payload back to the
// constructor that can rehydrate it. Unlike the Python original's
// process-wide module-level dict, Registry is an explicit object owned by
// an ObjectSpace and threaded through every serializer/deserializer, so
// tests can run concurrent registries without cross-contamination.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry pre-populated with ProtoBase's built-in
// atom kinds (Literal, BytesAtom, RootObject).
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register("Literal", func() Node { return &Literal{} })
	r.Register("BytesAtom", func() Node { return &BytesAtom{} })
	r.Register("RootObject", func() Node { return &RootObject{} })
	return r
}

// Register adds a constructor for className. Re-registering the same name
// is an error, matching the original's "Class repeated in atom class
// registry" guard.
func (r *Registry) Register(className string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[className]; ok {
		return pberr.Validationf("atom: class %q already registered", className)
	}
	r.ctors[className] = ctor
	return nil
}

// New constructs an empty Node for className, or (nil, false) if nothing
// is registered under that name — callers fall back to Generic.
func (r *Registry) New(className string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[className]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
