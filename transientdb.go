// Package transientdb implements an embedded, persistent, concurrent
// key-value store whose defining trait is lifecycle awareness: every key
// carries an access-frequency counter and an optional expiration deadline,
// and expired keys are reaped automatically by a background worker. It
// suits caching, session storage, and short-lived analytics state, data
// whose relevance decays with time.
//
// Design Notes:
//   - Three logical indexes (data, meta, ttl) live in one Badger keyspace,
//     namespaced by a one-byte partition prefix (see internal/keys). A
//     single Badger transaction can therefore span all three atomically,
//     which is what Set, Remove, and the reaper's deletes rely on.
//   - IncrementFrequency is a lock-free compare-and-swap retry loop against
//     the meta partition only; it never touches data or ttl.
//   - The expiration reaper is a single background goroutine polling the
//     ttl partition roughly every 100ms, stopped and joined from Close.
//
// Trade-offs:
//   - Badger's optimistic concurrency control is the CAS primitive the core
//     needs; a simpler engine without multi-key transactions would require
//     a write-ahead log to emulate atomicity across partitions.
//   - Polling trades expiration precision for implementation simplicity;
//     sub-second TTL guarantees are an explicit non-goal.
package transientdb
