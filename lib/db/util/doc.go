// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - deadlineheap: A min-heap of expiration hints ordered by deadline and version, tolerating stale hints
//   - functions: Key range helpers (prefix successor computation) for ordered range scans
//   - statistics: A lock-free SizeHistogram for estimating the memory held by values
//
// This package is particularly useful for:
//   - Database developers implementing the KVDB interface
//   - Implementation of expiration scheduling or other deadline driven systems
//   - Monitoring systems that need to estimate database size
//
// Each component is designed to work with any implementation of the db.KVDB interface,
// allowing for consistent validation and measurement across different storage backends.
package util
