package db

import (
	"errors"
	"io"
	"time"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplBirch Implementation = "birch"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeaturePut             Feature = 1 << iota // Support for Put operations
	FeaturePutTTL                              // Support for Put operations with a ttl
	FeaturePutIfAbsent                         // Support for PutIfAbsent operations
	FeatureGet                                 // Support for Get operations
	FeatureErase                               // Support for Erase operations
	FeatureCompareAndErase                     // Support for CompareAndErase operations
	FeaturePrefixGet                           // Support for PrefixGet operations
	FeatureClear                               // Support for Clear operations
	FeatureBackgroundSweep                     // Expired entries are reclaimed without being accessed
)

func (f Feature) String() string {
	switch f {
	case FeaturePut:
		return "Put"
	case FeaturePutTTL:
		return "PutTTL"
	case FeaturePutIfAbsent:
		return "PutIfAbsent"
	case FeatureGet:
		return "Get"
	case FeatureErase:
		return "Erase"
	case FeatureCompareAndErase:
		return "CompareAndErase"
	case FeaturePrefixGet:
		return "PrefixGet"
	case FeatureClear:
		return "Clear"
	case FeatureBackgroundSweep:
		return "BackgroundSweep"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// KV is a single key-value pair as returned by prefix queries
type KV struct {
	Key   string
	Value []byte
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrInvalidSweepInterval is returned when a database is created with a non-positive sweep interval
	ErrInvalidSweepInterval = errors.New("sweep interval must be positive")
	// ErrInvalidDegree is returned when a database is created with an unusable tree degree
	ErrInvalidDegree = errors.New("tree degree must be at least 2")
	// ErrClosed is returned by layers above the database when it is used after Close
	ErrClosed = errors.New("database is closed")
)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for ordered, in-memory key-value database implementations
// with optional per-key time-to-live.
// Any implementation of this interface must manage keys in a consistent way.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or updates an entry with the given key and value.
	// If the key already exists, the old value, old expiry and old version are replaced.
	// A ttl <= 0 means the entry never expires.
	Put(key string, value []byte, ttl time.Duration)

	// PutIfAbsent inserts an entry only if the key has no live (non-expired) value.
	// Returns whether the entry was written.
	PutIfAbsent(key string, value []byte, ttl time.Duration) (written bool)

	// Erase removes the entry with the specified key.
	// Erase is idempotent, the return value reports whether an entry was physically removed.
	Erase(key string) (removed bool)

	// CompareAndErase removes the entry only if it is live and holds exactly the expected value.
	CompareAndErase(key string, expected []byte) (removed bool)

	// Clear removes all entries and all pending expirations.
	Clear()

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a (not expired) value for the key was found.
	// Absence is never an error.
	Get(key string) (value []byte, loaded bool)

	// PrefixGet returns all non-expired pairs whose key starts with prefix, sorted ascending by key.
	// A limit <= 0 means unlimited.
	PrefixGet(prefix string, limit int) []KV

	// Size returns the number of entries physically present.
	// This may include entries that are logically expired but not yet reclaimed,
	// so it is an upper bound of the live key count.
	Size() int

	// --------------------------------------------------------------------------
	// Feature Support and Metadata
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// WriteMetrics writes the metrics of the database in Prometheus text format to w.
	WriteMetrics(w io.Writer)

	// Close stops all background work of the database.
	Close() (err error)
}
