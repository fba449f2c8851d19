// Package lockmgr implements a locking mechanism using
// key-value stores that implement the store.IStore interface. It provides
// a simple way to coordinate access to shared resources between goroutines
// or components of one process.
//
// The lockmgr only ever stores in the provided IStore and has no other internal
// state. Therefore it is safe to be created multiple times on the same store.
// It is even possible to create a new lockmgr for every acquire and or release
// operation. As long as the same store is used every time, all locks will
// work as expected.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Automatic lock expiration through the ttl of the store
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the atomic conditional operations
//	of the underlying store. Specifically:
//
//	- Lock Acquisition: Attempts to create a key using PutIfAbsent, which
//	  guarantees that only one requester can successfully create the key.
//	  The value contains a randomly generated owner ID (a UUID) that identifies
//	  the lock holder.
//
//	- Timeouts: Locks can be configured with an optional timeout that is used as
//	  the ttl of the key. An expired lock counts as free, even before the sweeper
//	  of the store has reclaimed it. This prevents deadlocks if a holder never
//	  releases the lock.
//
//	- Safe Release: The ReleaseLock operation removes the key with CompareAndErase,
//	  so only the holder of the owner ID can release the lock.
//
// Thread Safety:
//
//	The lockmgr is as thread-safe as the underlying store.IStore
//	implementation. All operations are performed through the store interface.
//
// Usage Example:
//
//	// Create a lock provider with a store backend
//	lockProvider := lockmgr.NewLockManager(store)
//
//	// Acquire a lock with a timeout
//	acquired, ownerID, err := lockProvider.AcquireLock("resource:123", 30*time.Second)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    // Release the lock when done
//	    released, err := lockProvider.ReleaseLock("resource:123", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
//
// Security Considerations:
//
//	The lockmgr mechanism uses randomly generated owner IDs, which provides
//	reasonable protection against accidental lock stealing. However, it is
//	not designed to resist malicious attacks, as code with access to
//	the underlying store could manipulate lock data directly.
//
// Performance Impact:
//
//	Lock operations require 1-2 store operations each:
//	- AcquireLock: One PutIfAbsent
//	- ReleaseLock: One Get followed by a CompareAndErase
package lockmgr
