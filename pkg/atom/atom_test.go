package atom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	atoms map[uint64]map[string]any
	blobs map[uint64][]byte
	next  uint64
	txID  [16]byte
}

func newMemStore() *memStore {
	return &memStore{atoms: map[uint64]map[string]any{}, blobs: map[uint64][]byte{}}
}

func (s *memStore) PushAtom(ctx context.Context, payload map[string]any) (Pointer, error) {
	s.next++
	s.atoms[s.next] = payload
	return Pointer{Offset: s.next}, nil
}

func (s *memStore) GetAtom(ctx context.Context, ptr Pointer) (map[string]any, error) {
	return s.atoms[ptr.Offset], nil
}

func (s *memStore) PushBytes(ctx context.Context, data []byte) (Pointer, error) {
	s.next++
	s.blobs[s.next] = data
	return Pointer{Offset: s.next}, nil
}

func (s *memStore) GetBytes(ctx context.Context, ptr Pointer) ([]byte, error) {
	return s.blobs[ptr.Offset], nil
}

func TestPointerHash(t *testing.T) {
	p1 := Pointer{Offset: 42}
	p2 := Pointer{Offset: 42}
	assert.Equal(t, p1.Hash(), p2.Hash())
	assert.True(t, Pointer{}.IsZero())
	assert.False(t, p1.IsZero())
}

func TestLiteralSaveIdempotent(t *testing.T) {
	store := newMemStore()
	lit := NewLiteral(store, "hello")

	ptr1, err := lit.Save(context.Background())
	require.NoError(t, err)

	ptr2, err := lit.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ptr1, ptr2)
	assert.Equal(t, StateSaved, lit.State())
}

func TestBytesAtomRoundTrip(t *testing.T) {
	store := newMemStore()
	data := []byte("payload bytes")
	b := NewBytesAtom(store, data)

	ptr, err := b.Save(context.Background())
	require.NoError(t, err)

	loaded := &BytesAtom{}
	loaded.Bind(store)
	loaded.AssignPointer(ptr)
	loaded.Data = nil
	loaded.state = StateUnloaded

	require.NoError(t, loaded.Load(context.Background()))
	assert.Equal(t, data, loaded.Data)
}

func TestFromPayloadUnknownClassBecomesGeneric(t *testing.T) {
	store := newMemStore()
	reg := NewRegistry()

	payload := map[string]any{
		"className": "UserWidget",
		"name":      "widget-1",
		"count":     float64(3),
	}

	node, err := FromPayload(reg, store, payload)
	require.NoError(t, err)

	g, ok := node.(*Generic)
	require.True(t, ok)
	assert.Equal(t, "UserWidget", g.ClassName())
	assert.Equal(t, "widget-1", g.Attributes["name"])
}

func TestEncodeDecodePayloadJSONAndMsgpack(t *testing.T) {
	payload := map[string]any{"className": "Literal", "value": "x"}

	for _, format := range []Format{FormatJSON, FormatMsgpack} {
		data, err := EncodePayload(payload, format)
		require.NoError(t, err)

		decoded, err := DecodePayload(data, format)
		require.NoError(t, err)
		assert.Equal(t, "Literal", decoded["className"])
		assert.Equal(t, "x", decoded["value"])
	}
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("Literal", func() Node { return &Literal{} })
	assert.Error(t, err)
}
