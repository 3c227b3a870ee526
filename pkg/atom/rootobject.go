package atom

import (
	"context"
	"time"
)

// RootObject is the Object Space's top-level persisted atom: a pointer to
// the database catalog (object_root), a pointer to the literal-interning
// table (literal_root), and the timestamp it was published. It holds
// Pointers rather than a concrete Dictionary type to keep pkg/atom free of
// a dependency on pkg/collections; pkg/txn resolves these pointers through
// the collection constructors it owns.
type RootObject struct {
	Base
	ObjectRoot  Pointer
	LiteralRoot Pointer
	CreatedAt   time.Time
}

// NewRootObject creates a fresh, unsaved RootObject bound to store.
func NewRootObject(store Store, objectRoot, literalRoot Pointer, createdAt time.Time) *RootObject {
	r := &RootObject{ObjectRoot: objectRoot, LiteralRoot: literalRoot, CreatedAt: createdAt}
	r.Bind(store)
	return r
}

func (r *RootObject) ClassName() string { return "RootObject" }

func (r *RootObject) Load(ctx context.Context) error {
	r.MarkLoaded()
	return nil
}

func (r *RootObject) Save(ctx context.Context) (Pointer, error) {
	if r.AlreadySaved() {
		return r.Pointer(), nil
	}
	payload := map[string]any{
		"className":   r.ClassName(),
		"created_at":  r.CreatedAt.Format(time.RFC3339Nano),
		"object_root": pointerRef(r.ObjectRoot),
	}
	if !r.LiteralRoot.IsZero() {
		payload["literal_root"] = pointerRef(r.LiteralRoot)
	}
	ptr, err := r.Store().PushAtom(ctx, payload)
	if err != nil {
		return Pointer{}, err
	}
	r.AssignPointer(ptr)
	return ptr, nil
}

func pointerRef(p Pointer) map[string]any {
	return map[string]any{
		"transaction_id": p.TransactionID.String(),
		"offset":         p.Offset,
	}
}
