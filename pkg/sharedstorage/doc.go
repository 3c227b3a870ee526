// Package sharedstorage is the asynchronous façade over pkg/storage and
// pkg/cache that spec.md §4.4 calls SharedStorage: push_atom/get_atom and
// push_bytes/get_bytes backed by a bounded worker pool, with a synchronous
// blocking-on-boundary view (atom.Store) for pkg/atom's own use. WAL
// records are framed per spec.md §6.2: 8-byte little-endian length,
// optional format indicator byte, payload.
package sharedstorage
