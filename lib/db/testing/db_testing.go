package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation.
// The factory should fail tb if the instance can not be created.
type DBFactory func(tb testing.TB) db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("NonPositiveTTL", func(t *testing.T) {
			testNonPositiveTTL(t, factory(t))
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory(t))
		})

		t.Run("TTLRefresh", func(t *testing.T) {
			testTTLRefresh(t, factory(t))
		})

		t.Run("TTLRemoved", func(t *testing.T) {
			testTTLRemoved(t, factory(t))
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory(t))
		})

		t.Run("Erase", func(t *testing.T) {
			testErase(t, factory(t))
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory(t))
		})

		t.Run("PrefixGet", func(t *testing.T) {
			testPrefixGet(t, factory(t))
		})

		t.Run("PrefixGetSkipsExpired", func(t *testing.T) {
			testPrefixGetSkipsExpired(t, factory(t))
		})

		t.Run("PrefixGetBoundaries", func(t *testing.T) {
			testPrefixGetBoundaries(t, factory(t))
		})

		t.Run("PutIfAbsent", func(t *testing.T) {
			testPutIfAbsent(t, factory(t))
		})

		t.Run("CompareAndErase", func(t *testing.T) {
			testCompareAndErase(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// keysOf returns the keys of a prefix query result
func keysOf(result []db.KV) []string {
	keys := make([]string, len(result))
	for i, kv := range result {
		keys[i] = kv.Key
	}
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Put(testKey, testValue1, 0)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}

	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Put(testKey, testValue2, 0)

	result, exists = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}

	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = database.Get("nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	inputValue := []byte("input-value")
	database.Put(testKey, inputValue, 0)
	inputValue[0] = 'X'

	result, _ = database.Get(testKey)
	if !bytes.Equal(result, []byte("input-value")) {
		t.Errorf("Put should store a copy, got %s after modifying the input", result)
	}

	if database.Size() != 1 {
		t.Errorf("Expected size 1 after overwriting a single key, got %d", database.Size())
	}
}

func testNonPositiveTTL(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	database.Put("zero-ttl", []byte("v"), 0)
	database.Put("negative-ttl", []byte("v"), -time.Second)

	time.Sleep(20 * time.Millisecond)

	if _, exists := database.Get("zero-ttl"); !exists {
		t.Errorf("Key with ttl=0 should never expire")
	}
	if _, exists := database.Get("negative-ttl"); !exists {
		t.Errorf("Key with negative ttl should never expire")
	}
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePutTTL|db.FeatureGet)

	database.Put("temp", []byte("x"), 50*time.Millisecond)

	result, exists := database.Get("temp")
	if !exists {
		t.Fatalf("Key should exist right after Put")
	}
	if !bytes.Equal(result, []byte("x")) {
		t.Errorf("Expected value x, got %s", result)
	}

	time.Sleep(80 * time.Millisecond)

	if _, exists = database.Get("temp"); exists {
		t.Errorf("Key should have expired after 80ms (ttl 50ms)")
	}

	// an expired key is never revived
	if _, exists = database.Get("temp"); exists {
		t.Errorf("Expired key should stay absent")
	}
}

func testTTLRefresh(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePutTTL|db.FeatureGet)

	database.Put("k", []byte("v1"), 50*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	database.Put("k", []byte("v2"), 100*time.Millisecond)

	// the first deadline has passed, the second has not
	time.Sleep(30 * time.Millisecond)
	result, exists := database.Get("k")
	if !exists {
		t.Fatalf("Key should still exist at 60ms after being refreshed at 30ms")
	}
	if !bytes.Equal(result, []byte("v2")) {
		t.Errorf("Expected value v2, got %s", result)
	}

	time.Sleep(100 * time.Millisecond)
	if _, exists = database.Get("k"); exists {
		t.Errorf("Key should have expired at 160ms")
	}
}

func testTTLRemoved(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePutTTL|db.FeatureGet)

	// overwriting with ttl=0 removes the deadline
	database.Put("k", []byte("v1"), 30*time.Millisecond)
	database.Put("k", []byte("v2"), 0)

	time.Sleep(60 * time.Millisecond)

	result, exists := database.Get("k")
	if !exists {
		t.Fatalf("Key overwritten without ttl should not expire")
	}
	if !bytes.Equal(result, []byte("v2")) {
		t.Errorf("Expected value v2, got %s", result)
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePutTTL|db.FeatureGet)

	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("expire-key-%d", i)
		value := []byte(fmt.Sprintf("expire-value-%d", i))

		// even keys expire quickly, odd keys live long
		ttl := 20 * time.Millisecond
		if i%2 == 1 {
			ttl = time.Minute
		}
		database.Put(key, value, ttl)
	}

	time.Sleep(60 * time.Millisecond)

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("expire-key-%d", i)
		_, exists := database.Get(key)

		if i%2 == 0 && exists {
			t.Errorf("Key %s should have expired", key)
		}
		if i%2 == 1 && !exists {
			t.Errorf("Key %s should still exist", key)
		}
	}
}

func testErase(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureErase)

	testKey := "erase-test-key"
	testValue := []byte("erase-test-value")

	database.Put(testKey, testValue, 0)

	if !database.Erase(testKey) {
		t.Errorf("Expected first Erase of %s to report removed", testKey)
	}

	if database.Erase(testKey) {
		t.Errorf("Expected second Erase of %s to report not found", testKey)
	}

	if _, exists := database.Get(testKey); exists {
		t.Errorf("Expected key %s to not exist after Erase", testKey)
	}

	if database.Erase("nonexistent-key") {
		t.Errorf("Expected Erase of a nonexistent key to report not found")
	}

	// erase every second key
	prefix := "erase-many-"
	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		database.Put(fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)), 0)
	}
	for i := 0; i < numKeys; i += 2 {
		database.Erase(fmt.Sprintf("%s%d", prefix, i))
	}
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		_, exists := database.Get(key)

		if i%2 == 0 && exists {
			t.Errorf("Key %s should be erased", key)
		}
		if i%2 == 1 && !exists {
			t.Errorf("Key %s should still exist", key)
		}
	}
}

func testClear(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureClear)

	keys := []string{"a", "b", "c", "with-ttl"}
	for _, key := range keys[:3] {
		database.Put(key, []byte("value"), 0)
	}
	database.Put("with-ttl", []byte("value"), time.Minute)

	database.Clear()

	if size := database.Size(); size != 0 {
		t.Errorf("Expected size 0 after Clear, got %d", size)
	}

	for _, key := range keys {
		if _, exists := database.Get(key); exists {
			t.Errorf("Key %s should not exist after Clear", key)
		}
	}

	// the database is usable after Clear
	database.Put("a", []byte("new"), 0)
	result, exists := database.Get("a")
	if !exists || !bytes.Equal(result, []byte("new")) {
		t.Errorf("Expected value new after Clear and Put, got %s (exists=%v)", result, exists)
	}
}

func testPrefixGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeaturePrefixGet)

	for _, key := range []string{"banana", "apricot", "app", "apple"} {
		database.Put(key, []byte("value-"+key), 0)
	}

	result := database.PrefixGet("ap", 0)
	expected := []string{"app", "apple", "apricot"}
	if !equalKeys(keysOf(result), expected) {
		t.Errorf("Expected keys %v, got %v", expected, keysOf(result))
	}

	for _, kv := range result {
		if !bytes.Equal(kv.Value, []byte("value-"+kv.Key)) {
			t.Errorf("Expected value value-%s, got %s", kv.Key, kv.Value)
		}
	}

	limited := database.PrefixGet("ap", 2)
	if !equalKeys(keysOf(limited), expected[:2]) {
		t.Errorf("Expected keys %v with limit 2, got %v", expected[:2], keysOf(limited))
	}

	if exact := database.PrefixGet("apple", 0); !equalKeys(keysOf(exact), []string{"apple"}) {
		t.Errorf("Expected the prefix to include the key equal to it, got %v", keysOf(exact))
	}

	if none := database.PrefixGet("cherry", 0); len(none) != 0 {
		t.Errorf("Expected no keys for prefix cherry, got %v", keysOf(none))
	}

	all := database.PrefixGet("", 0)
	if !equalKeys(keysOf(all), []string{"app", "apple", "apricot", "banana"}) {
		t.Errorf("Expected all keys in order for the empty prefix, got %v", keysOf(all))
	}

	if many := database.PrefixGet("a", 100); len(many) != 3 {
		t.Errorf("Expected a limit above the match count to return all 3 matches, got %d", len(many))
	}
}

func testPrefixGetSkipsExpired(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePutTTL|db.FeaturePrefixGet)

	database.Put("session:1", []byte("a"), 0)
	database.Put("session:2", []byte("b"), 20*time.Millisecond)
	database.Put("session:3", []byte("c"), 0)
	database.Put("session:4", []byte("d"), 20*time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	result := database.PrefixGet("session:", 0)
	expected := []string{"session:1", "session:3"}
	if !equalKeys(keysOf(result), expected) {
		t.Errorf("Expected keys %v, got %v", expected, keysOf(result))
	}

	// the limit counts live entries only
	limited := database.PrefixGet("session:", 2)
	if !equalKeys(keysOf(limited), expected) {
		t.Errorf("Expected keys %v with limit 2, got %v", expected, keysOf(limited))
	}
}

func testPrefixGetBoundaries(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeaturePrefixGet)

	keys := []string{"a", "a\xff", "a\xff\x01", "b", "\xff", "\xff\xff", "\xff\xff\x00"}
	for _, key := range keys {
		database.Put(key, []byte("v"), 0)
	}

	// prefix ending in the maximum byte: upper bound is "b"
	if got := keysOf(database.PrefixGet("a\xff", 0)); !equalKeys(got, []string{"a\xff", "a\xff\x01"}) {
		t.Errorf("Unexpected keys for prefix a\\xff: %q", got)
	}

	// prefix of only maximum bytes: no upper bound
	if got := keysOf(database.PrefixGet("\xff\xff", 0)); !equalKeys(got, []string{"\xff\xff", "\xff\xff\x00"}) {
		t.Errorf("Unexpected keys for prefix \\xff\\xff: %q", got)
	}

	if got := keysOf(database.PrefixGet("\xff", 0)); !equalKeys(got, []string{"\xff", "\xff\xff", "\xff\xff\x00"}) {
		t.Errorf("Unexpected keys for prefix \\xff: %q", got)
	}
}

func testPutIfAbsent(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePutIfAbsent|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value")
	testValue2 := []byte("test-value2")

	if !database.PutIfAbsent(testKey, testValue1, 30*time.Millisecond) {
		t.Errorf("Expected PutIfAbsent to write a new key")
	}

	if database.PutIfAbsent(testKey, testValue2, 0) {
		t.Errorf("Expected PutIfAbsent to not overwrite a live key")
	}

	result, exists := database.Get(testKey)
	if !exists || !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s (exists=%v)", testValue1, result, exists)
	}

	time.Sleep(60 * time.Millisecond)

	// an expired key counts as absent, even if it was not reclaimed yet
	if !database.PutIfAbsent(testKey, testValue2, 0) {
		t.Errorf("Expected PutIfAbsent to replace an expired key")
	}

	result, exists = database.Get(testKey)
	if !exists || !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s (exists=%v)", testValue2, result, exists)
	}
}

func testCompareAndErase(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureCompareAndErase|db.FeaturePut|db.FeatureGet)

	database.Put("k", []byte("owner-a"), 0)

	if database.CompareAndErase("k", []byte("owner-b")) {
		t.Errorf("Expected CompareAndErase with a different value to fail")
	}
	if _, exists := database.Get("k"); !exists {
		t.Errorf("Key should still exist after a failed CompareAndErase")
	}

	if !database.CompareAndErase("k", []byte("owner-a")) {
		t.Errorf("Expected CompareAndErase with the stored value to succeed")
	}
	if _, exists := database.Get("k"); exists {
		t.Errorf("Key should not exist after CompareAndErase")
	}

	if database.CompareAndErase("k", []byte("owner-a")) {
		t.Errorf("Expected CompareAndErase of a missing key to fail")
	}

	// expired entries do not match
	database.Put("ttl", []byte("owner-a"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if database.CompareAndErase("ttl", []byte("owner-a")) {
		t.Errorf("Expected CompareAndErase of an expired key to fail")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	emptyKey := ""
	emptyKeyValue := []byte("value for empty key")

	database.Put(emptyKey, emptyKeyValue, 0)

	result, exists := database.Get(emptyKey)
	if !exists {
		t.Errorf("Empty key not found after Put")
	} else if !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	emptyValueKey := "empty-value-key"
	emptyValue := []byte{}

	database.Put(emptyValueKey, emptyValue, 0)

	result, exists = database.Get(emptyValueKey)
	if !exists {
		t.Errorf("Key for empty value not found after Put")
	} else if len(result) != 0 {
		t.Errorf("Empty value mismatch")
	}

	nilValueKey := "nil-value-key"
	database.Put(nilValueKey, nil, 0)

	result, exists = database.Get(nilValueKey)
	if !exists {
		t.Errorf("Key for nil value not found after Put")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	binaryKey := "bin\x00\x01\xff"
	database.Put(binaryKey, []byte("binary"), 0)
	if result, exists = database.Get(binaryKey); !exists || !bytes.Equal(result, []byte("binary")) {
		t.Errorf("Binary key not found after Put")
	}

	largeKey := string(make([]byte, 1000))
	largeKeyValue := []byte("value for large key")

	database.Put(largeKey, largeKeyValue, 0)

	result, exists = database.Get(largeKey)
	if !exists {
		t.Errorf("Large key not found after Put")
	} else if !bytes.Equal(result, largeKeyValue) {
		t.Errorf("Value mismatch for large key")
	}

	largeValueKey := "large-value-key"
	largeValue := make([]byte, 8*1024*1024)

	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}

	database.Put(largeValueKey, largeValue, 0)

	result, exists = database.Get(largeValueKey)
	if !exists {
		t.Errorf("Key for large value not found after Put")
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch: size %d, expected %d", len(result), len(largeValue))
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeaturePutTTL|db.FeatureGet|db.FeatureErase|db.FeaturePrefixGet)

	type operation struct {
		op    string
		key   string
		value []byte
		ttl   time.Duration
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4:
			op = "put"
		case 5, 6:
			op = "get"
		case 7:
			op = "prefix"
		case 8:
			op = "erase"
		case 9:
			op = "size"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var (
			value []byte
			ttl   time.Duration
		)
		if op == "put" {
			value = []byte(fmt.Sprintf("value-%d", i))
			if i%3 == 0 {
				ttl = time.Duration(1+i%5) * time.Millisecond
			}
		}

		operations[i] = operation{op, key, value, ttl}
	}

	numWorkers := 8
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	opsPerWorker := numOperations / numWorkers

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]

				switch op.op {
				case "put":
					database.Put(op.key, op.value, op.ttl)
				case "get":
					database.Get(op.key)
				case "prefix":
					database.PrefixGet("hot-key-", 10)
				case "erase":
					database.Erase(op.key)
				case "size":
					database.Size()
				}
			}
		}(w)
	}

	wg.Wait()

	// let all ttls pass
	time.Sleep(20 * time.Millisecond)

	// every remaining key must be consistent between Get and PrefixGet
	for _, kv := range database.PrefixGet("", 0) {
		value, exists := database.Get(kv.Key)
		if !exists {
			t.Errorf("Consistency error: Key %s returned by PrefixGet but not by Get", kv.Key)
			continue
		}
		if !bytes.Equal(value, kv.Value) {
			t.Errorf("Value mismatch for key %s between PrefixGet and Get", kv.Key)
		}
	}

	// no key written with a ttl may have survived
	for _, op := range operations {
		if op.op != "put" || op.ttl == 0 || op.key[:3] == "hot" {
			continue
		}
		if _, exists := database.Get(op.key); exists {
			t.Errorf("Key %s written with ttl %s should have expired", op.key, op.ttl)
		}
	}
}
