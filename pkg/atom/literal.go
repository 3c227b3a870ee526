package atom

import "context"

// Literal is an immutable, interned string atom. Two Literals with the
// same Value are considered equal regardless of identity; interning is
// enforced one level up by RootObject.LiteralRoot, not here.
type Literal struct {
	Base
	Value string
}

// NewLiteral creates a fresh, unsaved Literal bound to store.
func NewLiteral(store Store, value string) *Literal {
	l := &Literal{Value: value}
	l.Bind(store)
	return l
}

func (l *Literal) ClassName() string { return "Literal" }

func (l *Literal) Equal(other *Literal) bool {
	return l.Value == other.Value
}

func (l *Literal) Load(ctx context.Context) error {
	l.MarkLoaded()
	return nil
}

func (l *Literal) Save(ctx context.Context) (Pointer, error) {
	if l.AlreadySaved() {
		return l.Pointer(), nil
	}
	payload := map[string]any{
		"className": l.ClassName(),
		"value":     l.Value,
	}
	ptr, err := l.Store().PushAtom(ctx, payload)
	if err != nil {
		return Pointer{}, err
	}
	l.AssignPointer(ptr)
	return ptr, nil
}

func (l *Literal) fromPayload(payload map[string]any) error {
	s, _ := payload["value"].(string)
	l.Value = s
	return nil
}
