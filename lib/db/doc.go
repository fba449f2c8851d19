// Package db provides a standardized interface for ordered in-memory key-value
// database implementations with per-key time-to-live (TTL).
//
// The package focuses on:
//   - A unified interface for key-value operations
//   - Feature discovery through capability flags
//   - Comprehensive metadata reporting
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Put, Get, Erase, Clear),
//     ordered range queries (PrefixGet), conditional operations (PutIfAbsent,
//     CompareAndErase), metadata retrieval (GetInfo, WriteMetrics) and the
//     lifecycle method Close.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for different database backends (currently "birch").
//
//   - Database Information: The DatabaseInfo structure provides standardized
//     reporting on database state, including size statistics, implementation type,
//     and implementation-specific metadata. Note: For most implementations all
//     size statistics will be estimated since a precise calculation can be
//     expensive.
//
// Note on Time-Based Operations:
//   - A ttl <= 0 passed to Put or PutIfAbsent means the entry never expires.
//   - Deadlines are computed from the monotonic clock at the time of the write.
//   - An entry is expired once the observation time is at or after its deadline.
//
// Note on Garbage Collection:
//   - All implementations must ensure that expired entries are eventually removed
//     from the database to prevent memory leaks, even if they are never read again.
//   - External Consistency: Implementations must maintain strong external consistency
//     regardless of their internal garbage collection state:
//   - Get() and PrefixGet() must never return an entry that has logically expired,
//     even if the entry still exists internally pending collection.
//   - Size() is the only method that observes the physical state and may count
//     expired entries that have not been collected yet.
//   - A collection step must never remove an entry that was rewritten after the
//     expiration was scheduled.
//
// Related Packages:
//
// The engines/birch package (github.com/ValentinKolb/ttlkv/lib/db/engines/birch) provides
// the implementation of the KVDB interface on top of a B-tree guarded by a
// reader/writer lock, with a deadline heap and a single background sweeper.
//
// The util package (github.com/ValentinKolb/ttlkv/lib/db/util) provides complementary
// tools for working with db.KVDB implementations:
//   - DeadlineHeap: A min-heap of expiration hints ordered by deadline and version
//   - SizeHistogram: Utilities for analyzing data size distributions
//   - KeyRange helpers: successor computation for prefix range scans
//
// The testing package (github.com/ValentinKolb/ttlkv/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.KVDB interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
