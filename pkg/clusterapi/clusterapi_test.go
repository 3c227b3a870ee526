package clusterapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/storage"
)

const bufSize = 1 << 20

func newTestClient(t *testing.T) (*Client, storage.BlockProvider) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewFileBlockProvider(filepath.Join(dir, "space"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	lis := bufconn.Listen(bufSize)
	srv := NewServer(local)
	go func() { _ = srv.grpc.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn), local
}

func TestClientRoundTripsWALWriteAndRead(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	walID, offset, err := client.NewWAL(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, walID, client.WriterWALID())

	w, err := client.WriteStreamer(walID)
	require.NoError(t, err)
	n, err := w.Write([]byte("hello protobase"))
	require.NoError(t, err)
	assert.Equal(t, len("hello protobase"), n)

	wrOffset, err := w.Offset()
	require.NoError(t, err)
	assert.Equal(t, uint64(len("hello protobase")), wrOffset)

	r, err := client.Reader(walID, 0)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 5)
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	pos, err := r.Seek(6, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	rest := make([]byte, 64)
	n, err = r.Read(rest)
	assert.True(t, err == nil || err == io.EOF)
	assert.Equal(t, "protobase", string(rest[:n]))
}

func TestClientRootPublishAndLock(t *testing.T) {
	client, local := newTestClient(t)
	ctx := context.Background()

	_, found, err := client.GetCurrentRoot(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	lock, err := client.RootContextManager(ctx)
	require.NoError(t, err)

	ptr := atom.Pointer{Offset: 7}
	require.NoError(t, client.UpdateRoot(ctx, ptr))
	lock.Unlock()

	got, found, err := client.GetCurrentRoot(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ptr, got)

	localGot, found, err := local.GetCurrentRoot(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ptr, localGot)
}

func TestHealthServerReadyReflectsStorage(t *testing.T) {
	_, local := newTestClient(t)
	hs := NewHealthServer(local, nil)
	assert.NotNil(t, hs.GetHandler())

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	hs.GetHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

// erroringProvider wraps a BlockProvider and forces GetCurrentRoot to
// fail, so readyHandler's storage probe can be tested without needing a
// real unreachable backend.
type erroringProvider struct {
	storage.BlockProvider
}

func (erroringProvider) GetCurrentRoot(ctx context.Context) (atom.Pointer, bool, error) {
	return atom.Pointer{}, false, errors.New("simulated storage failure")
}

func TestHealthServerReadyReportsUnreachableStorage(t *testing.T) {
	_, local := newTestClient(t)
	hs := NewHealthServer(erroringProvider{local}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	hs.GetHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"not_ready"`)
}
