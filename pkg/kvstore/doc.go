// Package kvstore is the persistence boundary for roster: a minimal key-value
// interface over whole JSON documents, with adapters for several backends.
//
// # Backends
//
//	memory      - process-local map (tests, demos)
//	filesystem  - one file per key, atomic rename on write
//	redis       - string values; PutBatch uses MULTI/EXEC
//	sqlite      - roster_kv table via mattn/go-sqlite3; PutBatch uses a transaction
//	postgres    - roster_kv table via lib/pq; PutBatch uses a transaction
//	s3          - one object per key
//
// Use Open to build the configured backend:
//
//	store, err := kvstore.Open(ctx, cfg.Store, metrics)
//	if err != nil {
//		return err
//	}
//	defer kvstore.Close(store)
//
// # Multi-document writes
//
// The interface has no transactions. PutMany writes several documents at once:
// stores implementing BatchPutter commit them atomically, the rest are written
// sequentially and rolled back to their previous contents if a write fails.
// Rollback is best effort; a crash mid-batch on a non-batch store can leave a
// partial write.
//
// # Wrappers
//
// InstrumentedStore records Prometheus metrics per call. CachedStore adds a
// read-through LRU (hashicorp/golang-lru) and is only safe with a single writer
// process.
package kvstore
