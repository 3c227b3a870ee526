package atom

import (
	"context"
	"encoding/base64"
)

// BytesAtom holds a blob out of line from its owning payload, preserving
// the original's "keep bytes behind their own pointer" indirection so size
// bounds and caching stay uniform whether the blob is 10 bytes or 10MB.
type BytesAtom struct {
	Base
	Data []byte
}

// NewBytesAtom creates a fresh, unsaved BytesAtom bound to store.
func NewBytesAtom(store Store, data []byte) *BytesAtom {
	b := &BytesAtom{Data: data}
	b.Bind(store)
	return b
}

func (b *BytesAtom) ClassName() string { return "BytesAtom" }

func (b *BytesAtom) Load(ctx context.Context) error {
	if b.State() != StateUnloaded {
		return nil
	}
	if !b.Pointer().IsZero() && b.Data == nil {
		data, err := b.Store().GetBytes(ctx, b.Pointer())
		if err != nil {
			return err
		}
		b.Data = data
	}
	b.MarkLoaded()
	return nil
}

func (b *BytesAtom) Save(ctx context.Context) (Pointer, error) {
	if b.AlreadySaved() {
		return b.Pointer(), nil
	}
	ptr, err := b.Store().PushBytes(ctx, b.Data)
	if err != nil {
		return Pointer{}, err
	}
	b.AssignPointer(ptr)
	return ptr, nil
}

// refPayload is the inline encoding used when a BytesAtom is referenced
// from another atom's field: {className, transaction_id, offset}. The raw
// bytes themselves never appear inline.
func (b *BytesAtom) refPayload() map[string]any {
	return map[string]any{
		"className":      b.ClassName(),
		"transaction_id": b.Pointer().TransactionID.String(),
		"offset":         b.Pointer().Offset,
	}
}

// encodeInlineBytes encodes a blob as base64 for a payload that embeds it
// directly rather than through BytesAtom indirection. Nothing in the module
// calls it.
func encodeInlineBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
