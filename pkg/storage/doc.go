/*
Package storage implements ProtoBase's BlockProvider: append-only
write-ahead logs addressed by (wal_id, offset), atomic root-pointer
publication, and the exclusive root lock transactions serialize commits
through.

Two implementations are provided. FileBlockProvider is the default,
grounded directly on the reference file_block_provider.py: one directory
per Object Space, 32-hex-UUID-named WAL files, a space_root file updated
by temp-file-then-rename, and a space_root.lock advisory lock.
BoltBlockProvider stores the same logical records inside a single
go.etcd.io/bbolt database instead of raw files, for deployments that
prefer one file over a directory of WALs — its bucket-per-concern layout
follows the teacher's pkg/storage/boltdb.go.

Neither implementation deserializes payloads; that is pkg/atom's job. A
BlockProvider only ever sees byte slices and Pointers.
*/
package storage
