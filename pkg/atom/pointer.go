package atom

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Pointer identifies a persisted atom by the transaction that wrote it and
// its byte offset inside that transaction's WAL record stream. It is the
// only form of identity an Atom has once saved.
type Pointer struct {
	TransactionID uuid.UUID
	Offset        uint64
}

// Hash XORs the high and low 64 bits of the transaction UUID with the
// offset, mirroring "transaction_id.int XOR offset".
func (p Pointer) Hash() uint64 {
	hi := binary.BigEndian.Uint64(p.TransactionID[0:8])
	lo := binary.BigEndian.Uint64(p.TransactionID[8:16])
	return hi ^ lo ^ p.Offset
}

// IsZero reports whether p is the zero-value pointer, used to represent
// "no pointer assigned yet" for atoms created but not yet saved.
func (p Pointer) IsZero() bool {
	return p.TransactionID == uuid.Nil && p.Offset == 0
}

func (p Pointer) String() string {
	return fmt.Sprintf("%s:%d", p.TransactionID, p.Offset)
}

// NewTransactionID generates a fresh 128-bit transaction identifier.
func NewTransactionID() uuid.UUID {
	return uuid.New()
}
