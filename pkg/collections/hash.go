package collections

import (
	"fmt"
	"hash/fnv"

	"github.com/cuemby/protobase/pkg/atom"
)

// canonicalHash computes a stable uint64 identity for a Set/CountedSet
// element. atom.Node values that have already been assigned a pointer hash
// by their AtomPointer (stable across processes); everything else hashes a
// type-tagged textual representation, mirroring the original's
// "<type>:<value>" scheme without the per-process id() fallback (Go has no
// equivalent of CPython's object identity hash, and values here are always
// comparable payload data, never ephemeral objects).
func canonicalHash(value any) uint64 {
	if node, ok := value.(atom.Node); ok && node.State() == atom.StateSaved {
		return node.Pointer().Hash()
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%T:%v", value, value)
	return h.Sum64()
}
