package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/log"
	"github.com/cuemby/protobase/pkg/pberr"
)

const (
	rootFileName = "space_root"
	lockFileName = "space_root.lock"
	configName   = "space.config"
)

// FileBlockProvider is the default BlockProvider: a directory of WAL files
// named with dashless-hex UUIDs, an atomically-published space_root, and a
// space_root.lock advisory lock file. Grounded on
// original_source/proto_db/file_block_provider.py's FileBlockProvider.
type FileBlockProvider struct {
	spaceDir string
	pageSize int

	readers  *readerFactory
	rootLock *fileRootLock

	mu           sync.Mutex
	currentWALID uuid.UUID
	currentWAL   *fileWriteStreamer
}

// NewFileBlockProvider opens (creating if necessary) a space directory.
func NewFileBlockProvider(spaceDir string, pageSize int) (*FileBlockProvider, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if err := os.MkdirAll(spaceDir, 0o755); err != nil {
		return nil, pberr.Unexpectedf("storage: mkdir space dir %q: %v", spaceDir, err)
	}

	bp := &FileBlockProvider{
		spaceDir: spaceDir,
		pageSize: pageSize,
		readers:  newReaderFactory(spaceDir),
		rootLock: newFileRootLock(filepath.Join(spaceDir, lockFileName), DefaultRootLockTimeout),
	}
	return bp, nil
}

func (bp *FileBlockProvider) walFileName(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

func isWALFileName(name string) bool {
	if len(name) != 32 {
		return false
	}
	_, err := uuid.Parse(name)
	return err == nil
}

// NewWAL picks the smallest existing WAL that opens for append, or creates
// a fresh one, and makes it the current writer.
func (bp *FileBlockProvider) NewWAL(ctx context.Context) (uuid.UUID, uint64, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	entries, err := os.ReadDir(bp.spaceDir)
	if err != nil {
		return uuid.Nil, 0, pberr.Unexpectedf("storage: list space dir: %v", err)
	}

	type candidate struct {
		name string
		size int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !isWALFileName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{e.Name(), info.Size()})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].size < candidates[j].size })

	for _, c := range candidates {
		id, err := uuid.Parse(c.name)
		if err != nil {
			continue
		}
		fh, err := os.OpenFile(filepath.Join(bp.spaceDir, c.name), os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		bp.currentWALID = id
		bp.currentWAL = &fileWriteStreamer{fh: fh, offset: uint64(c.size)}
		return id, uint64(c.size), nil
	}

	id := uuid.New()
	fh, err := os.OpenFile(filepath.Join(bp.spaceDir, bp.walFileName(id)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return uuid.Nil, 0, pberr.Unexpectedf("storage: create wal: %v", err)
	}
	bp.currentWALID = id
	bp.currentWAL = &fileWriteStreamer{fh: fh, offset: 0}
	return id, 0, nil
}

func (bp *FileBlockProvider) WriterWALID() uuid.UUID {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.currentWALID
}

func (bp *FileBlockProvider) WriteStreamer(walID uuid.UUID) (WriteStreamer, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.currentWAL == nil || bp.currentWALID != walID {
		return nil, pberr.Validationf("storage: wal %s is not the current writer wal", walID)
	}
	return bp.currentWAL, nil
}

func (bp *FileBlockProvider) Reader(walID uuid.UUID, offset uint64) (ReadStreamer, error) {
	return newFileReadStreamer(bp.readers, bp.walFileName(walID), offset)
}

// GetCurrentRoot tolerates empty/partial files: a reader may observe the
// file mid-replace and should retry rather than treat it as corruption.
func (bp *FileBlockProvider) GetCurrentRoot(ctx context.Context) (atom.Pointer, bool, error) {
	path := filepath.Join(bp.spaceDir, rootFileName)

	for attempt := 0; attempt < 10; attempt++ {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return atom.Pointer{}, false, nil
			}
			return atom.Pointer{}, false, pberr.Unexpectedf("storage: read root: %v", err)
		}
		if len(data) == 0 {
			return atom.Pointer{}, false, nil
		}

		var raw struct {
			TransactionID string `json:"transaction_id"`
			Offset        uint64 `json:"offset"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			select {
			case <-ctx.Done():
				return atom.Pointer{}, false, pberr.Unexpectedf("storage: root read canceled: %v", ctx.Err())
			case <-time.After(time.Millisecond):
			}
			continue
		}

		id, err := uuid.Parse(raw.TransactionID)
		if err != nil {
			return atom.Pointer{}, false, pberr.Corruptionf("storage: root transaction_id %q: %v", raw.TransactionID, err)
		}
		return atom.Pointer{TransactionID: id, Offset: raw.Offset}, true, nil
	}
	return atom.Pointer{}, false, pberr.Corruptionf("storage: root file never stabilized after retries")
}

// UpdateRoot writes the new root via temp-file-then-rename, fsyncing both
// the file and its directory so readers never see a torn write.
func (bp *FileBlockProvider) UpdateRoot(ctx context.Context, ptr atom.Pointer) error {
	payload := map[string]any{
		"transaction_id": ptr.TransactionID.String(),
		"offset":         ptr.Offset,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return pberr.Unexpectedf("storage: marshal root: %v", err)
	}

	tmpPath := filepath.Join(bp.spaceDir, fmt.Sprintf(".%s.tmp", rootFileName))
	finalPath := filepath.Join(bp.spaceDir, rootFileName)

	fh, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return pberr.Unexpectedf("storage: create temp root: %v", err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return pberr.Unexpectedf("storage: write temp root: %v", err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return pberr.Unexpectedf("storage: fsync temp root: %v", err)
	}
	if err := fh.Close(); err != nil {
		return pberr.Unexpectedf("storage: close temp root: %v", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return pberr.Unexpectedf("storage: rename root: %v", err)
	}

	dir, err := os.Open(bp.spaceDir)
	if err != nil {
		return pberr.Unexpectedf("storage: open space dir for fsync: %v", err)
	}
	defer dir.Close()
	if err := dir.Sync(); err != nil {
		return pberr.Unexpectedf("storage: fsync space dir: %v", err)
	}

	log.WithComponent("storage").Debug().
		Str("transaction_id", ptr.TransactionID.String()).
		Uint64("offset", ptr.Offset).
		Msg("published new root")
	return nil
}

func (bp *FileBlockProvider) RootContextManager(ctx context.Context) (RootLock, error) {
	handle, err := bp.rootLock.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

func (bp *FileBlockProvider) CloseWAL(walID uuid.UUID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.currentWAL != nil && bp.currentWALID == walID {
		err := bp.currentWAL.fh.Close()
		bp.currentWAL = nil
		if err != nil {
			return pberr.Unexpectedf("storage: close wal %s: %v", walID, err)
		}
	}
	return nil
}

func (bp *FileBlockProvider) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.readers.close()
	if bp.currentWAL != nil {
		bp.currentWAL.fh.Close()
		bp.currentWAL = nil
	}
	return nil
}

// fileWriteStreamer implements WriteStreamer over an append-mode *os.File.
type fileWriteStreamer struct {
	mu     sync.Mutex
	fh     *os.File
	offset uint64
}

func (w *fileWriteStreamer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.fh.Write(p)
	w.offset += uint64(n)
	return n, err
}

func (w *fileWriteStreamer) Offset() (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset, nil
}
