// Package collections implements ProtoBase's six immutable, structurally
// shared collection kinds: List (AVL-balanced, offset-keyed), HashDictionary
// (AVL-balanced, hash-keyed), Dictionary (string-keyed, layered on List),
// Set and CountedSet (layered on HashDictionary), and RepeatedKeysDictionary
// (HashDictionary of Sets). Every mutator returns a new root; unchanged
// subtrees are shared with the original, never copied.
//
// Unlike the reference implementation, nodes are loaded eagerly and
// recursively rather than lazily per-access: Go's garbage collector makes
// the memory-conscious laziness of the original unnecessary, and an eager
// Load keeps the persistence contract (Save/Load/ClassName/Pointer/State)
// a straightforward mirror of atom.Node without a second, hidden
// lazy-fetch path.
package collections
