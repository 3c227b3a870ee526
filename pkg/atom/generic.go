package atom

import "context"

// Generic is the catch-all variant for a persisted className the registry
// has no constructor for. It preserves the payload's attribute bag
// verbatim rather than interpreting it, matching spec.md §9's "reserve a
// catch-all variant for user-defined DBObject attribute bags": a payload
// that round-trips through a process that never registered its concrete
// Go type is not corruption, just unmapped.
type Generic struct {
	Base
	Class      string
	Attributes map[string]any
}

func NewGeneric(store Store, class string, attrs map[string]any) *Generic {
	g := &Generic{Class: class, Attributes: attrs}
	g.Bind(store)
	return g
}

func (g *Generic) ClassName() string { return g.Class }

func (g *Generic) Load(ctx context.Context) error {
	g.MarkLoaded()
	return nil
}

func (g *Generic) Save(ctx context.Context) (Pointer, error) {
	if g.AlreadySaved() {
		return g.Pointer(), nil
	}
	payload := make(map[string]any, len(g.Attributes)+1)
	for k, v := range g.Attributes {
		payload[k] = v
	}
	payload["className"] = g.Class
	ptr, err := g.Store().PushAtom(ctx, payload)
	if err != nil {
		return Pointer{}, err
	}
	g.AssignPointer(ptr)
	return ptr, nil
}
