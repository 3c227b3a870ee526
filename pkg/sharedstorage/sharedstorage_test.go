package sharedstorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/storage"
)

func newTestStorage(t *testing.T, format atom.Format) *SharedStorage {
	t.Helper()
	dir := t.TempDir()
	bp, err := storage.NewFileBlockProvider(dir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { bp.Close() })

	reg := atom.NewRegistry()
	caches := cache.NewAtomCache(cache.DefaultConfig())
	s := New(bp, caches, reg, 2, format)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPushGetBytesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)

	ptr, err := s.PushBytesAsync(ctx, []byte("hello protobase")).Get(ctx)
	require.NoError(t, err)

	got, err := s.GetBytesAsync(ctx, ptr).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello protobase"), got)
}

func TestPushGetBytesMissesCacheReadsFromProvider(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)

	ptr, err := s.PushBytesAsync(ctx, []byte("cold path")).Get(ctx)
	require.NoError(t, err)

	// Force a cold read: replace the cache so the push's warm entry is gone.
	s.caches = cache.NewAtomCache(cache.DefaultConfig())

	got, err := s.GetBytesAsync(ctx, ptr).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("cold path"), got)
}

func TestPushGetAtomRoundTripJSON(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)

	payload := map[string]any{"className": "Literal", "value": "a literal value"}
	ptr, err := s.PushAtomAsync(ctx, payload).Get(ctx)
	require.NoError(t, err)

	node, err := s.GetAtomAsync(ctx, ptr).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Literal", node.ClassName())
}

func TestPushGetAtomRoundTripMsgpack(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatMsgpack)

	payload := map[string]any{"className": "Literal", "value": "packed"}
	ptr, err := s.PushAtomAsync(ctx, payload).Get(ctx)
	require.NoError(t, err)

	got, err := s.decodePayload(ctx, ptr)
	require.NoError(t, err)
	assert.Equal(t, "Literal", got["className"])
	assert.Equal(t, "packed", got["value"])
}

func TestFramedAndRawRecordsCoexistInSameWAL(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)

	atomPtr, err := s.PushAtomAsync(ctx, map[string]any{"className": "Literal", "value": 1}).Get(ctx)
	require.NoError(t, err)
	bytesPtr, err := s.PushBytesAsync(ctx, []byte{0xDE, 0xAD, 0xBE, 0xEF}).Get(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, atomPtr.Offset, bytesPtr.Offset)

	rawBytes, err := s.GetBytesAsync(ctx, bytesPtr).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, rawBytes)
}

func TestConcurrentGetAtomDeduplicatesLoads(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)

	ptr, err := s.PushAtomAsync(ctx, map[string]any{"className": "Literal", "value": "shared"}).Get(ctx)
	require.NoError(t, err)

	const n = 8
	futures := make([]*Future[atom.Node], n)
	for i := 0; i < n; i++ {
		futures[i] = s.GetAtomAsync(ctx, ptr)
	}
	for _, f := range futures {
		node, err := f.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Literal", node.ClassName())
	}
}

func TestRootReadLockSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)

	_, found, err := s.ReadCurrentRoot(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	ptr, err := s.PushBytesAsync(ctx, []byte("root object")).Get(ctx)
	require.NoError(t, err)

	_, _, lock, err := s.LockCurrentRoot(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentRoot(ctx, ptr))
	lock.Unlock()

	got, found, err := s.ReadCurrentRoot(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ptr, got)
}

func TestAsStoreSatisfiesAtomStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, atom.FormatJSON)
	var store atom.Store = s.AsStore()

	ptr, err := store.PushBytes(ctx, []byte("via store"))
	require.NoError(t, err)

	got, err := store.GetBytes(ctx, ptr)
	require.NoError(t, err)
	assert.Equal(t, []byte("via store"), got)
}
