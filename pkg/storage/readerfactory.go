package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cuemby/protobase/pkg/pberr"
)

// readerFactory pools *os.File handles per WAL file name so concurrent
// readers don't each pay open() cost; a returned handle is rewound before
// reuse, mirroring the reference FileReaderFactory.
type readerFactory struct {
	dir string

	mu        sync.Mutex
	available map[string][]*os.File
}

func newReaderFactory(dir string) *readerFactory {
	return &readerFactory{dir: dir, available: make(map[string][]*os.File)}
}

func (f *readerFactory) get(name string) (*os.File, error) {
	f.mu.Lock()
	if pool := f.available[name]; len(pool) > 0 {
		fh := pool[len(pool)-1]
		f.available[name] = pool[:len(pool)-1]
		f.mu.Unlock()
		if _, err := fh.Seek(0, 0); err != nil {
			fh.Close()
			return nil, pberr.Unexpectedf("storage: rewind reader %q: %v", name, err)
		}
		return fh, nil
	}
	f.mu.Unlock()

	fh, err := os.Open(filepath.Join(f.dir, name))
	if err != nil {
		return nil, pberr.Unexpectedf("storage: open wal %q: %v", name, err)
	}
	return fh, nil
}

func (f *readerFactory) put(name string, fh *os.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available[name] = append(f.available[name], fh)
}

func (f *readerFactory) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pool := range f.available {
		for _, fh := range pool {
			fh.Close()
		}
	}
	f.available = make(map[string][]*os.File)
}
