package sharedstorage

import (
	"encoding/binary"
	"io"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/pberr"
)

// maxRecordSize bounds a single WAL record, guarding against a corrupt
// length prefix turning a short read into an enormous allocation.
const maxRecordSize = 1 << 34 // 16 GiB

// encodeFrame builds a spec.md §6.2 WAL record: 8-byte little-endian
// length, then a body of [format byte][payload]. The length covers the
// whole body, not just the payload.
func encodeFrame(format atom.Format, payload []byte) []byte {
	body := make([]byte, 1+len(payload))
	body[0] = byte(format)
	copy(body[1:], payload)

	frame := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint64(frame[:8], uint64(len(body)))
	copy(frame[8:], body)
	return frame
}

// encodeRawFrame frames opaque bytes (BytesAtom content) with no format
// indicator byte at all, since raw blobs carry no serialization format.
func encodeRawFrame(data []byte) []byte {
	frame := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint64(frame[:8], uint64(len(data)))
	copy(frame[8:], data)
	return frame
}

// DecodeFrame is decodeFrame exported for cmd/protobase-inspect, which
// reads WAL records directly off a storage.ReadStreamer with no
// SharedStorage/cache layer in front of it.
func DecodeFrame(r io.Reader) (format atom.Format, payload []byte, err error) {
	return decodeFrame(r)
}

// decodeFrame reads one length-prefixed record from r and splits it into
// a format indicator (atom.FormatJSON if the body carries no indicator
// byte, i.e. a "legacy" record or a raw blob) and payload. A body whose
// first byte is not a known format indicator is treated as legacy JSON in
// its entirety, per spec.md §6.2 "absence indicates legacy JSON".
func decodeFrame(r io.Reader) (format atom.Format, payload []byte, err error) {
	var lenBuf [8]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	if n > maxRecordSize {
		return 0, nil, pberr.Corruptionf("sharedstorage: record length %d exceeds maximum", n)
	}

	body := make([]byte, n)
	if _, err = io.ReadFull(r, body); err != nil {
		return 0, nil, pberr.Corruptionf("sharedstorage: short read on record body: %v", err)
	}

	if len(body) > 0 && (atom.Format(body[0]) == atom.FormatJSON || atom.Format(body[0]) == atom.FormatMsgpack) {
		return atom.Format(body[0]), body[1:], nil
	}
	return atom.FormatJSON, body, nil
}

// decodeRawFrame reads one length-prefixed record written by
// encodeRawFrame: no format byte, the body is the exact bytes pushed via
// PushBytes.
func decodeRawFrame(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	if n > maxRecordSize {
		return nil, pberr.Corruptionf("sharedstorage: record length %d exceeds maximum", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, pberr.Corruptionf("sharedstorage: short read on record body: %v", err)
	}
	return body, nil
}
