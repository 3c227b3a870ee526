/*
Package log provides structured logging for ProtoBase using zerolog.

A single global Logger is configured once via Init and used from every
package; component loggers (WithComponent) attach a "component" field so
storage, cache, txn, and query log lines can be filtered independently.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	storageLog := log.WithComponent("storage")
	storageLog.Info().Str("wal_id", id.String()).Msg("opened wal for append")

Debug-level logs are expected on the hot path (cache hit/miss, single-flight
leader election) and should stay cheap; info and above mark lifecycle events
(database opened, transaction committed, root published).
*/
package log
