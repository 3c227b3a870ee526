package storage

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/cuemby/protobase/pkg/atom"
)

// DefaultPageSize matches the reference implementation's 1 MiB page.
const DefaultPageSize = 1 << 20

// WriteStreamer is the append-only sink a WAL's current writer appends to.
type WriteStreamer interface {
	io.Writer
	// Offset reports the current tail position, i.e. the offset the next
	// write will land at.
	Offset() (uint64, error)
}

// ReadStreamer is a random-access binary reader over one WAL. Seek
// supports io.SeekStart and io.SeekCurrent; io.SeekEnd is rejected, per
// spec.md §4.1 "must support absolute/relative seek except seek-from-end".
type ReadStreamer interface {
	io.Reader
	io.Seeker
	io.Closer
}

// RootLock is an exclusive lock over root publication, acquired through
// BlockProvider.RootContextManager. It does not nest: a second acquisition
// in the same process, from any goroutine, waits for the first Unlock.
type RootLock interface {
	Unlock()
}

// BlockProvider is the storage substrate's contract: WAL append/read,
// atomic root-pointer publication, and the lock that guards it. Cluster
// and cloud variants implement the same interface with a distributed root
// lock and broadcast (out of scope here; see pkg/cluster).
type BlockProvider interface {
	// NewWAL returns a WAL open for append — an existing one picked by
	// smallest size, or a fresh one — and the next offset to write at.
	NewWAL(ctx context.Context) (walID uuid.UUID, nextOffset uint64, err error)

	// WriterWALID reports the WAL the provider is currently appending to.
	WriterWALID() uuid.UUID

	// WriteStreamer returns the append sink for wal_id.
	WriteStreamer(walID uuid.UUID) (WriteStreamer, error)

	// Reader returns a random-access reader over wal_id starting at offset.
	Reader(walID uuid.UUID, offset uint64) (ReadStreamer, error)

	// GetCurrentRoot performs a low-level, retrying read of the published
	// root pointer. Returns (Pointer{}, false, nil) when no root has been
	// published yet.
	GetCurrentRoot(ctx context.Context) (atom.Pointer, bool, error)

	// UpdateRoot atomically publishes a new root pointer. Callers must
	// already hold the RootContextManager's lock.
	UpdateRoot(ctx context.Context, ptr atom.Pointer) error

	// RootContextManager acquires the exclusive root lock, blocking up to
	// an internal bounded timeout; returns a locking error on timeout.
	RootContextManager(ctx context.Context) (RootLock, error)

	// CloseWAL closes one WAL file without closing the provider.
	CloseWAL(walID uuid.UUID) error

	// Close releases all resources the provider holds.
	Close() error
}
