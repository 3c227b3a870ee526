package clusterapi

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/storage"
)

// Client implements storage.BlockProvider over a gRPC connection to a
// Server, so a process with no local access to the WAL directory can
// still act as a BlockProvider — the "remote BlockProvider" SPEC_FULL.md
// §2 calls for. Grounded on cuemby-warren/pkg/client's thin wrapper
// around a generated proto client.
type Client struct {
	conn  *grpc.ClientConn
	stub  ClusterAPIClient
	owned bool

	mu        sync.Mutex
	writerWAL uuid.UUID
}

// Dial connects to a Server at addr. opts is passed through to
// grpc.NewClient (e.g. grpc.WithTransportCredentials for mTLS).
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, stub: NewClusterAPIClient(conn), owned: true}, nil
}

// NewClient wraps an already-established connection; Close leaves cc open.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{stub: NewClusterAPIClient(cc)}
}

func (c *Client) NewWAL(ctx context.Context) (uuid.UUID, uint64, error) {
	out, err := c.stub.NewWAL(ctx, &emptypb.Empty{})
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	walID, err := uuidField(out, "wal_id")
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	offset, err := uint64Field(out, "offset")
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	c.mu.Lock()
	c.writerWAL = walID
	c.mu.Unlock()
	return walID, offset, nil
}

// WriterWALID reports the WAL ID from the most recent NewWAL call this
// client made. Unlike a local BlockProvider, a remote client has no
// independent way to learn which WAL the server is appending to until it
// asks, so this is client-side cached state, not a server round trip.
func (c *Client) WriterWALID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writerWAL
}

func (c *Client) WriteStreamer(walID uuid.UUID) (storage.WriteStreamer, error) {
	ctx := context.Background()
	out, err := c.stub.OpenWriter(ctx, newStruct(map[string]any{"wal_id": walID.String()}))
	if err != nil {
		return nil, err
	}
	sessionID, err := stringField(out, "session_id")
	if err != nil {
		return nil, err
	}
	return &remoteWriteStreamer{stub: c.stub, sessionID: sessionID}, nil
}

func (c *Client) Reader(walID uuid.UUID, offset uint64) (storage.ReadStreamer, error) {
	ctx := context.Background()
	out, err := c.stub.OpenReader(ctx, newStruct(map[string]any{
		"wal_id": walID.String(),
		"offset": float64(offset),
	}))
	if err != nil {
		return nil, err
	}
	sessionID, err := stringField(out, "session_id")
	if err != nil {
		return nil, err
	}
	return &remoteReadStreamer{stub: c.stub, sessionID: sessionID}, nil
}

func (c *Client) GetCurrentRoot(ctx context.Context) (atom.Pointer, bool, error) {
	out, err := c.stub.GetCurrentRoot(ctx, &emptypb.Empty{})
	if err != nil {
		return atom.Pointer{}, false, err
	}
	return rootFromStruct(out)
}

func (c *Client) UpdateRoot(ctx context.Context, ptr atom.Pointer) error {
	_, err := c.stub.UpdateRoot(ctx, rootToStruct(ptr, true))
	return err
}

func (c *Client) RootContextManager(ctx context.Context) (storage.RootLock, error) {
	out, err := c.stub.AcquireRootLock(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	lockID, err := stringField(out, "lock_id")
	if err != nil {
		return nil, err
	}
	return &remoteRootLock{stub: c.stub, lockID: lockID}, nil
}

func (c *Client) CloseWAL(walID uuid.UUID) error {
	_, err := c.stub.CloseWAL(context.Background(), newStruct(map[string]any{"wal_id": walID.String()}))
	return err
}

// Close shuts down the underlying connection if this Client dialed it.
func (c *Client) Close() error {
	if !c.owned || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

type remoteWriteStreamer struct {
	stub      ClusterAPIClient
	sessionID string
}

func (w *remoteWriteStreamer) Write(p []byte) (int, error) {
	ctx := context.Background()
	out, err := w.stub.Write(ctx, newStruct(map[string]any{
		"session_id": w.sessionID,
		"data":       encodeBytes(p),
	}))
	if err != nil {
		return 0, err
	}
	n, err := uint64Field(out, "written")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (w *remoteWriteStreamer) Offset() (uint64, error) {
	out, err := w.stub.WriterOffset(context.Background(), newStruct(map[string]any{"session_id": w.sessionID}))
	if err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

type remoteReadStreamer struct {
	stub      ClusterAPIClient
	sessionID string
}

func (r *remoteReadStreamer) Read(p []byte) (int, error) {
	out, err := r.stub.Read(context.Background(), newStruct(map[string]any{
		"session_id": r.sessionID,
		"max":        float64(len(p)),
	}))
	if err != nil {
		return 0, err
	}
	encoded, err := stringField(out, "data")
	if err != nil {
		return 0, err
	}
	data, err := decodeBytes(encoded)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if boolField(out, "eof") {
		return n, io.EOF
	}
	return n, nil
}

func (r *remoteReadStreamer) Seek(offset int64, whence int) (int64, error) {
	out, err := r.stub.SeekReader(context.Background(), newStruct(map[string]any{
		"session_id": r.sessionID,
		"offset":     float64(offset),
		"whence":     float64(whence),
	}))
	if err != nil {
		return 0, err
	}
	return int64(out.GetValue()), nil
}

func (r *remoteReadStreamer) Close() error {
	_, err := r.stub.CloseReader(context.Background(), newStruct(map[string]any{"session_id": r.sessionID}))
	return err
}

type remoteRootLock struct {
	stub   ClusterAPIClient
	lockID string
}

func (l *remoteRootLock) Unlock() {
	_, _ = l.stub.ReleaseRootLock(context.Background(), newStruct(map[string]any{"lock_id": l.lockID}))
}
