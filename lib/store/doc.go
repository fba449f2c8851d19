// Package store provides a high-level interface for key-value storage operations
// with expiration and unified error handling.
// It serves as an abstraction layer over the lower-level db.KVDB implementations, adding
// feature checks, argument validation, lifecycle handling and standardized error reporting.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Pluggable storage backend architecture through DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. The lock manager and the command line tools only talk to this
//     interface. The interface methods return custom Error types that provide detailed
//     information about operation results.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     and descriptive messages. This system allows applications to make informed
//     decisions based on specific error conditions rather than generic errors.
//     Errors with code RetCClosed match db.ErrClosed with errors.Is.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.KVDB
//     instances, providing dependency injection and flexible configuration of
//     storage backends.
//
// Implementations:
//
//	The package includes one implementation of the IStore interface:
//
//	- Local Store (lstore): A single process implementation that directly
//	  utilizes a db.KVDB instance.
//	  Available in the "github.com/ValentinKolb/ttlkv/lib/store/lstore" package.
//
// Absence of a key is reported through the boolean return values and is never an error.
package store
