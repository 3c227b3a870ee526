package storage

import (
	"io"
	"os"

	"github.com/cuemby/protobase/pkg/pberr"
)

// fileReadStreamer adapts a pooled *os.File into the ReadStreamer contract:
// absolute and relative seeks are allowed, seek-from-end is rejected since
// a WAL's tail moves under the reader.
type fileReadStreamer struct {
	factory *readerFactory
	name    string
	fh      *os.File
	closed  bool
}

func newFileReadStreamer(factory *readerFactory, name string, offset uint64) (*fileReadStreamer, error) {
	fh, err := factory.get(name)
	if err != nil {
		return nil, err
	}
	if _, err := fh.Seek(int64(offset), io.SeekStart); err != nil {
		factory.put(name, fh)
		return nil, pberr.Unexpectedf("storage: seek wal %q to %d: %v", name, offset, err)
	}
	return &fileReadStreamer{factory: factory, name: name, fh: fh}, nil
}

func (s *fileReadStreamer) Read(p []byte) (int, error) {
	return s.fh.Read(p)
}

func (s *fileReadStreamer) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekEnd {
		return 0, pberr.Validationf("storage: seek-from-end is not supported on a WAL reader")
	}
	return s.fh.Seek(offset, whence)
}

func (s *fileReadStreamer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.factory.put(s.name, s.fh)
	return nil
}
