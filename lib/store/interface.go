package store

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() (db.KVDB, error)

// IStore is the generic interface for interacting with a key–value store.
// All write operations return only an error (nil on success),
// while read operations return the requested data along with an error (nil on success).
// Errors are always of type *Error. Absence of a key is never an error.
type IStore interface {
	// Put inserts or updates a key–value pair. A ttl <= 0 means the pair never expires.
	Put(key string, value []byte, ttl time.Duration) (err error)
	// PutIfAbsent inserts a key–value pair if the key has no live value.
	// If the key already exists, the old value is not updated, no matter the value of ttl.
	PutIfAbsent(key string, value []byte, ttl time.Duration) (written bool, err error)
	// Erase deletes a key–value pair. Erasing a missing key is not an error.
	Erase(key string) (removed bool, err error)
	// CompareAndErase deletes a key–value pair only if it holds the expected value.
	CompareAndErase(key string, expected []byte) (removed bool, err error)
	// Clear deletes all key–value pairs.
	Clear() (err error)
	// Get return the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// PrefixGet returns the live pairs whose key starts with prefix in ascending key order.
	// A limit of 0 means unlimited, a negative limit is rejected.
	PrefixGet(prefix string, limit int) (result []db.KV, err error)
	// Size returns the number of entries physically present in the underlying database.
	Size() (size int, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// WriteMetrics writes the metrics of the underlying database in Prometheus text format.
	WriteMetrics(w io.Writer) (err error)
	// Close closes the underlying database. Every later call returns an error with code RetCClosed.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap maps the return code to the sentinel errors of the db package
func (e *Error) Unwrap() error {
	if e.Code == RetCClosed {
		return db.ErrClosed
	}
	return nil
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf returns the return code of err, RetCSuccess for nil and RetCInternalError
// for errors that are not of type *Error.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCClosed                              // 4: The store was closed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
