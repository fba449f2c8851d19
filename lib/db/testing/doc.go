// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: A conformance suite for the KVDB contract, including expiry, ttl refresh,
//     ordered prefix scans, conditional writes and concurrent usage
//   - benchmark: Performance tests for measuring throughput of common database operations
//
// Some tests depend on wall-clock time (ttls of tens of milliseconds). They leave at
// least 30ms between a deadline and the assertion that depends on it.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(tb testing.TB) db.KVDB {
//		database, err := NewMyDatabase()
//		if err != nil {
//			tb.Fatal(err)
//		}
//		return database
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
