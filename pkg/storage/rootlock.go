package storage

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cuemby/protobase/pkg/pberr"
)

// DefaultRootLockTimeout bounds how long RootContextManager waits to
// acquire the lock before surfacing a locking error (pberr.ErrLocking).
const DefaultRootLockTimeout = 5 * time.Second

// fileRootLock guards space_root.lock with an O_EXCL-created lock file.
// This is deliberately not a native flock(2) wrapper: no flock library
// appears anywhere in the example pack, and an O_CREATE|O_EXCL marker file
// gives the same "one exclusive holder at a time, visible across
// processes on the same filesystem" guarantee the reference implementation
// relies on, portably.
//
// The reference implementation is re-entrant per OS thread (via
// get_ident()); Go has no stable goroutine-local storage to key the same
// trick on, so fileRootLock instead serializes every goroutine in this
// process on one sync.Mutex — a second RootContextManager call from the
// same or a different goroutine blocks until the first Unlocks, rather
// than nesting.
type fileRootLock struct {
	path    string
	timeout time.Duration
	procMu  sync.Mutex
}

func newFileRootLock(path string, timeout time.Duration) *fileRootLock {
	if timeout <= 0 {
		timeout = DefaultRootLockTimeout
	}
	return &fileRootLock{path: path, timeout: timeout}
}

func (l *fileRootLock) acquire(ctx context.Context) (storageRootLockHandle, error) {
	l.procMu.Lock()

	deadline := time.Now().Add(l.timeout)
	for {
		fh, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fh.Close()
			return storageRootLockHandle{lock: l}, nil
		}
		if !os.IsExist(err) {
			l.procMu.Unlock()
			return storageRootLockHandle{}, pberr.Unexpectedf("storage: create root lock %q: %v", l.path, err)
		}
		if time.Now().After(deadline) {
			l.procMu.Unlock()
			return storageRootLockHandle{}, pberr.Lockingf("storage: timed out acquiring root lock %q", l.path)
		}
		select {
		case <-ctx.Done():
			l.procMu.Unlock()
			return storageRootLockHandle{}, pberr.Lockingf("storage: root lock acquisition canceled: %v", ctx.Err())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (l *fileRootLock) release() {
	os.Remove(l.path)
	l.procMu.Unlock()
}

// storageRootLockHandle implements storage.RootLock.
type storageRootLockHandle struct {
	lock *fileRootLock
}

func (h storageRootLockHandle) Unlock() {
	if h.lock == nil {
		return
	}
	h.lock.release()
}
