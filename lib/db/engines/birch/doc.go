// Package birch implements an ordered, in-memory key-value database (KVDB) with
// per-key time-to-live (TTL), prefix range queries and a background sweeper.
// It provides a complete implementation of the db.KVDB interface with a focus
// on correct expiration under concurrent access.
//
// The package focuses on:
//   - Concurrent reads and exclusive writes through a reader/writer lock
//   - Time-based expiration that never deletes a rewritten entry and never revives an expired one
//   - Reclaiming memory of expired entries without them being accessed again
//   - Ordered prefix scans over a B-tree
//
// Key Components:
//
//   - birchImpl: The central database structure implementing db.KVDB. It owns the
//     entry store, the scheduler, the version counter and the sweeper goroutine.
//     All of them are instance state, several databases can live in one process.
//
//   - Entry Store: A B-tree (github.com/google/btree) mapping keys to entries, guarded by
//     a reader-biased reader/writer lock (xsync.RBMutex). Get, PrefixGet, Size and GetInfo
//     take the shared lock, Put, PutIfAbsent, Erase, CompareAndErase, Clear and every
//     deletion of an expired entry take the exclusive lock.
//
//   - Entry: The value together with an optional deadline and the version of the write
//     that created it.
//
//   - Scheduler: A min-heap of expiration hints (deadline, version, key) ordered by
//     deadline then version, guarded by its own mutex. Every ttl-bearing write adds a
//     hint. Hints are never removed individually, a hint left behind by an overwritten
//     key is discarded when it is popped.
//
// Internal Mechanisms:
//
//   - Version Counter: A monotonically increasing counter. Every write takes the next
//     value under the write lock and stores it in the entry and in its hint. A hint
//     is only acted upon if its version equals the version of the live entry, which
//     closes the race where an old hint fires after the key was rewritten with a
//     later deadline. Clear does not reset the counter.
//
//   - Lazy Deletion: Get checks the deadline of the entry it finds. If the entry is
//     expired, Get releases the read lock, takes the write lock and removes the entry
//     only if it still carries the same version and is still expired. Between the two
//     locks another writer may have replaced or removed the key.
//
//   - Prefix Scans: PrefixGet scans the half-open range [prefix, successor(prefix)).
//     The successor increments the last byte that is not 0xFF. If there is none (or
//     the prefix is empty) the scan runs to the end of the tree. Expired entries are
//     skipped but not removed, a scan never takes the write lock.
//
//   - Lock Ordering: The scheduler lock and the store lock are never held at the same
//     time. Writers release the store lock before scheduling, the sweeper releases
//     the scheduler lock before it takes the store lock.
//
// Background Sweeper:
//
//   - A single goroutine per database runs the following loop:
//     1. If the database was closed, stop.
//     2. If the earliest hint is due, pop it, validate it against the live entry and
//     delete the entry if the hint is still valid. Repeat without sleeping.
//     3. Otherwise sleep until the earliest deadline, or for the sweep interval if no
//     hint is scheduled.
//     4. A write whose hint becomes the earliest one, and Close, end the sleep early.
//
//   - The sweeper never retries and never reports errors. A missed wake up is caught by
//     the next one or by lazy deletion.
//
// Size() counts entries physically present. It may include entries that are expired
// but were neither read nor swept yet, and is therefore an upper bound of the live keys.
//
// Metrics:
//
//   - Each database has its own github.com/VictoriaMetrics/metrics set with counters for
//     writes, hits, misses, lazy and swept deletions and stale hints, and gauges for the
//     number of entries and scheduled hints. WriteMetrics exports them in Prometheus text
//     format.
//   - GetInfo estimates the memory footprint from a sample of the entries.
//
// The birch package is designed to serve as an embedded component for applications
// requiring ordered keys with expiration, such as caches, session stores, leases and
// other temporary data within a single process. It does not persist data.
package birch
