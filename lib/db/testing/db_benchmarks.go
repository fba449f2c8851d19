package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory(b))
		})

		b.Run("PutExisting", func(b *testing.B) {
			benchmarkPutExisting(b, factory(b))
		})

		b.Run("PutLargeValue", func(b *testing.B) {
			benchmarkPutLargeValue(b, factory(b))
		})

		b.Run("PutWithTTL", func(b *testing.B) {
			benchmarkPutWithTTL(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("Get(miss)", func(b *testing.B) {
			benchmarkGetMiss(b, factory(b))
		})

		b.Run("Erase", func(b *testing.B) {
			benchmarkErase(b, factory(b))
		})

		b.Run("PrefixGet", func(b *testing.B) {
			benchmarkPrefixGet(b, factory(b))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(b))
		})

		b.Run("MixedUsageWithTTL", func(b *testing.B) {
			benchmarkMixedUsageWithTTL(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Put operation
func benchmarkPut(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			database.Put(key, value, 0)
			counter++
		}
	})
}

// Benchmark for Put operation with existing keys
func benchmarkPutExisting(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	// Prepare data
	numKeys := 10000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		database.Put(key, value, 0)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			database.Put(key, value, 0)
			counter++
		}
	})
}

// Benchmark for Put operation with large values
func benchmarkPutLargeValue(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	largeValue := make([]byte, 64*1024) // 64KB

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			// bounded key space, the value is copied on every put
			key := fmt.Sprintf("test-key-%d", counter%1000)
			database.Put(key, largeValue, 0)
			counter++
		}
	})
}

// benchmarkPutWithTTL measures puts that schedule an expiration
func benchmarkPutWithTTL(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePutTTL)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-ttl-key-%d", counter)
			value := []byte(fmt.Sprintf("test-ttl-value-%d", counter))
			// mix of short and long ttls, so the sweeper has work to do
			ttl := time.Duration(1+counter%100) * time.Millisecond
			database.Put(key, value, ttl)
			counter++
		}
	})
}

// Parallel benchmarking for Get operation
func benchmarkGet(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureGet)

	// Prepare data
	numKeys := 10000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		database.Put(key, value, 0)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			database.Get(key)
			counter++
		}
	})
}

// Parallel benchmarking for Get operation (with key miss)
func benchmarkGetMiss(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureGet)
	const key = "test-key"

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			database.Get(key)
		}
	})
}

// Parallel benchmarking for Erase operation
func benchmarkErase(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureErase)

	numKeys := 100000
	if b.N < numKeys {
		numKeys = b.N
	}

	// Prepare data
	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		database.Put(keys[i], value, 0)
	}

	// Counter for atomic access
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys
			database.Erase(keys[idx])
		}
	})
}

// Parallel benchmarking for PrefixGet with a limit
func benchmarkPrefixGet(b *testing.B, database db.KVDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeaturePrefixGet)

	// 100 groups of 100 keys each
	for group := 0; group < 100; group++ {
		for i := 0; i < 100; i++ {
			key := fmt.Sprintf("group-%03d/item-%03d", group, i)
			database.Put(key, []byte(key), 0)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			prefix := fmt.Sprintf("group-%03d/", counter%100)
			database.PrefixGet(prefix, 10)
			counter++
		}
	})
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureGet|db.FeatureErase|db.FeaturePrefixGet)

	// Number of pre-populated keys
	numKeys := 100000
	if b.N < numKeys {
		numKeys = b.N
	}

	// Prepare initial data
	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		database.Put(keys[i], value, 0)
	}

	// Counter for atomic access
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		// Local counter for each goroutine
		localCounter := 0

		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys

			// Select operation (0-4: get, put, erase, prefix, get)
			op := localCounter % 5

			// For every 10th operation, use a completely new key
			var key string
			if localCounter%10 == 0 {
				key = fmt.Sprintf("new-key-%d", localCounter)
			} else {
				key = keys[idx]
			}

			switch op {
			case 0, 4:
				database.Get(key)
			case 1:
				value := []byte(fmt.Sprintf("mixed-value-%d", localCounter))
				database.Put(key, value, 0)
			case 2:
				database.Erase(key)
			case 3:
				database.PrefixGet(key, 5)
			}

			localCounter++
		}
	})
}

// benchmarkMixedUsageWithTTL mixes reads with ttl-bearing writes, so lazy deletion
// and the sweeper run during the benchmark
func benchmarkMixedUsageWithTTL(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePutTTL|db.FeatureGet)

	// Prepare some initial data
	numKeys := 50_000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-mixed-key-%d", i)
		value := []byte(fmt.Sprintf("test-mixed-value-%d", i))
		ttl := time.Duration(i%2000) * time.Millisecond // Various TTLs, some never expire
		database.Put(key, value, ttl)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			// Random operation: 70% Get, 30% Put
			key := fmt.Sprintf("test-mixed-key-%d", counter%numKeys)

			if rnd.Float32() < .7 {
				database.Get(key)
			} else {
				value := []byte(fmt.Sprintf("test-mixed-updated-value-%d", counter))
				ttl := time.Duration(rnd.Intn(1000)) * time.Millisecond
				database.Put(key, value, ttl)
			}

			counter++
		}
	})
}
