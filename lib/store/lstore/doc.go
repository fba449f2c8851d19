// Package lstore implements a local, in-memory, single-process key-value store based on the
// store.IStore interface. It provides a thin wrapper around any db.KVDB
// implementation. Data is stored entirely in memory and is not persisted between
// process restarts.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Direct integration with db.KVDB implementations
//   - Feature detection to handle unsupported operations gracefully
//   - Argument validation (negative prefix limits are rejected)
//   - A closed state: every call after Close fails with store.RetCClosed
//
// Implementation Details:
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature through the SupportsFeature
//     method. A Put with a ttl additionally requires db.FeaturePutTTL. Unsupported
//     operations return appropriate error codes rather than failing silently.
//
//   - Composition Architecture: The store follows a composition pattern where the
//     store.DBFactory factory function injects the underlying db.KVDB implementation.
//     This allows the store to work with any db.KVDB-compatible engine without modification.
//
// Thread Safety:
//
//	All operations in the local store are thread-safe. The closed flag is an atomic value,
//	the underlying db.KVDB implementation provides its own thread safety guarantees for
//	the actual storage operations. An operation racing with Close may still reach the
//	database, which keeps serving requests after Close.
//
// Usage Example:
//
//	// Create a store with a birch database backend
//	factory := func() (db.KVDB, error) { return birch.NewBirchDB(birch.DefaultOptions()) }
//	s, err := lstore.NewLocalStore(factory)
//
//	// Store a value with 5-minute expiration
//	err = s.Put("session:123", sessionData, 5*time.Minute)
//
//	// Retrieve the value
//	value, exists, err := s.Get("session:123")
package lstore
