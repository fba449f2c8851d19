package birch

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
	"github.com/ValentinKolb/ttlkv/lib/db/engines/birch/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBirch creates a database with a short sweep interval and returns the concrete type
func newBirch(t *testing.T, sweepInterval time.Duration) *birchImpl {
	t.Helper()

	database, err := NewBirchDB(&DBOptions{SweepInterval: sweepInterval, Degree: defaultDegree})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database.(*birchImpl)
}

// newStoppedBirch creates a closed database: nothing is swept, only lazy deletion applies
func newStoppedBirch(t *testing.T) *birchImpl {
	t.Helper()

	database, err := NewBirchDB(nil)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	return database.(*birchImpl)
}

// peek returns the raw entry for key, expired or not
func (birch *birchImpl) peek(key string) (internal.Entry, bool) {
	token := birch.mu.RLock()
	defer birch.mu.RUnlock(token)
	item, ok := birch.tree.Get(internal.Pivot(key))
	return item.Entry, ok
}

func TestNewBirchDBOptions(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		database, err := NewBirchDB(nil)
		require.NoError(t, err)
		defer database.Close()

		impl := database.(*birchImpl)
		assert.Equal(t, defaultSweepInterval, impl.sweepInterval)
		assert.Equal(t, defaultDegree, impl.degree)
	})

	t.Run("InvalidSweepInterval", func(t *testing.T) {
		for _, interval := range []time.Duration{0, -time.Second} {
			database, err := NewBirchDB(&DBOptions{SweepInterval: interval, Degree: defaultDegree})
			assert.Nil(t, database)
			assert.True(t, errors.Is(err, db.ErrInvalidSweepInterval), "got %v", err)
		}
	})

	t.Run("InvalidDegree", func(t *testing.T) {
		database, err := NewBirchDB(&DBOptions{SweepInterval: time.Second, Degree: 1})
		assert.Nil(t, database)
		assert.ErrorIs(t, err, db.ErrInvalidDegree)
	})
}

func TestSweeperReclaimsWithoutAccess(t *testing.T) {
	birch := newBirch(t, 10*time.Millisecond)

	for i := 0; i < 100; i++ {
		birch.Put(fmt.Sprintf("key-%03d", i), []byte("value"), 10*time.Millisecond)
	}
	birch.Put("persistent", []byte("value"), 0)

	require.Equal(t, 101, birch.Size())

	// no Get is issued, only the sweeper can shrink the store
	require.Eventually(t, func() bool {
		return birch.Size() == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, uint64(100), birch.stats.sweeperDeletes.Get())
	assert.Equal(t, uint64(0), birch.stats.lazyDeletes.Get())
	assert.Equal(t, 0, birch.scheduler.Len())
}

func TestSweeperWakesForEarlierDeadline(t *testing.T) {
	// long idle interval, the sweeper must be woken by the put
	birch := newBirch(t, time.Hour)

	birch.Put("late", []byte("value"), time.Hour)
	birch.Put("early", []byte("value"), 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := birch.peek("early")
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, ok := birch.peek("late")
	assert.True(t, ok)
}

func TestStaleNodeDoesNotDeleteRewrittenKey(t *testing.T) {
	birch := newBirch(t, 5*time.Millisecond)

	t.Run("RewrittenWithoutTTL", func(t *testing.T) {
		birch.Put("k1", []byte("v1"), 20*time.Millisecond)
		birch.Put("k1", []byte("v2"), 0)

		time.Sleep(60 * time.Millisecond)

		entry, ok := birch.peek("k1")
		require.True(t, ok, "rewritten key must not be swept by the old hint")
		assert.Equal(t, []byte("v2"), entry.Value)
		assert.False(t, entry.HasExpiry)
	})

	t.Run("RewrittenWithLongerTTL", func(t *testing.T) {
		birch.Put("k2", []byte("v1"), 20*time.Millisecond)
		birch.Put("k2", []byte("v2"), time.Minute)

		time.Sleep(60 * time.Millisecond)

		value, ok := birch.Get("k2")
		require.True(t, ok)
		assert.Equal(t, []byte("v2"), value)
	})

	assert.GreaterOrEqual(t, birch.stats.staleNodes.Get(), uint64(2))
}

func TestEraseExpiredValidatesVersion(t *testing.T) {
	birch := newStoppedBirch(t)

	birch.Put("k", []byte("v1"), time.Millisecond)
	first, ok := birch.peek("k")
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	birch.Put("k", []byte("v2"), time.Millisecond)
	second, ok := birch.peek("k")
	require.True(t, ok)
	require.Greater(t, second.Version, first.Version)

	time.Sleep(5 * time.Millisecond)
	now := time.Now()

	// a hint with the old version is stale even though the live entry is expired
	assert.False(t, birch.eraseExpired("k", first.Version, now))
	_, ok = birch.peek("k")
	assert.True(t, ok)

	// a hint with the live version deletes the entry
	assert.True(t, birch.eraseExpired("k", second.Version, now))
	_, ok = birch.peek("k")
	assert.False(t, ok)

	// nothing left to delete
	assert.False(t, birch.eraseExpired("k", second.Version, now))
}

func TestEraseExpiredKeepsLiveEntry(t *testing.T) {
	birch := newBirch(t, time.Hour)

	birch.Put("k", []byte("v"), time.Minute)
	entry, ok := birch.peek("k")
	require.True(t, ok)

	assert.False(t, birch.eraseExpired("k", entry.Version, time.Now()))
	_, ok = birch.peek("k")
	assert.True(t, ok)
}

func TestVersionsIncrease(t *testing.T) {
	birch := newBirch(t, time.Hour)

	var last uint64
	for i := 0; i < 100; i++ {
		birch.Put(fmt.Sprintf("key-%d", i%10), []byte("v"), 0)
		entry, ok := birch.peek(fmt.Sprintf("key-%d", i%10))
		require.True(t, ok)
		require.Greater(t, entry.Version, last)
		last = entry.Version
	}

	// a rejected PutIfAbsent does not consume a version
	assert.False(t, birch.PutIfAbsent("key-0", []byte("v"), 0))
	assert.Equal(t, last, birch.version.Load())

	// Clear does not reset the counter
	birch.Clear()
	birch.Put("after-clear", []byte("v"), 0)
	entry, ok := birch.peek("after-clear")
	require.True(t, ok)
	assert.Greater(t, entry.Version, last)
}

func TestConcurrentVersionsAreUnique(t *testing.T) {
	birch := newBirch(t, time.Hour)

	numWorkers := 8
	perWorker := 500

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				birch.Put(fmt.Sprintf("w%d-%d", w, i), []byte("v"), 0)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, numWorkers*perWorker)
	token := birch.mu.RLock()
	birch.tree.Ascend(func(item internal.Item) bool {
		seen[item.Entry.Version] = struct{}{}
		return true
	})
	birch.mu.RUnlock(token)

	assert.Len(t, seen, numWorkers*perWorker)
	assert.Equal(t, uint64(numWorkers*perWorker), birch.version.Load())
}

func TestGetLazilyDeletes(t *testing.T) {
	birch := newStoppedBirch(t)

	birch.Put("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	// still physically present, there is no sweeper
	assert.Equal(t, 1, birch.Size())

	_, ok := birch.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, birch.Size())
	assert.Equal(t, uint64(1), birch.stats.lazyDeletes.Get())
	assert.Equal(t, uint64(1), birch.stats.expired.Get())
}

func TestPrefixGetDoesNotDelete(t *testing.T) {
	birch := newStoppedBirch(t)

	birch.Put("p/a", []byte("v"), 10*time.Millisecond)
	birch.Put("p/b", []byte("v"), 0)
	time.Sleep(30 * time.Millisecond)

	result := birch.PrefixGet("p/", 0)
	require.Len(t, result, 1)
	assert.Equal(t, "p/b", result[0].Key)

	// the expired entry is skipped, not removed
	assert.Equal(t, 2, birch.Size())
}

func TestClearEmptiesScheduler(t *testing.T) {
	birch := newBirch(t, time.Hour)

	for i := 0; i < 50; i++ {
		birch.Put(fmt.Sprintf("key-%d", i), []byte("v"), time.Minute)
	}
	require.Equal(t, 50, birch.scheduler.Len())

	birch.Clear()

	assert.Equal(t, 0, birch.Size())
	assert.Equal(t, 0, birch.scheduler.Len())
}

func TestCloseIsIdempotent(t *testing.T) {
	database, err := NewBirchDB(&DBOptions{SweepInterval: time.Millisecond, Degree: 4})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, database.Close())
		assert.NoError(t, database.Close())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}

func TestOperationsAfterClose(t *testing.T) {
	database, err := NewBirchDB(nil)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	birch := database.(*birchImpl)

	// no hint is scheduled without a sweeper, lazy deletion still applies
	database.Put("k", []byte("v"), 10*time.Millisecond)
	assert.Equal(t, 0, birch.scheduler.Len())

	value, ok := database.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	time.Sleep(30 * time.Millisecond)
	_, ok = database.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, database.Size())
}

func TestWriteMetrics(t *testing.T) {
	birch := newBirch(t, time.Hour)

	birch.Put("a", []byte("v"), 0)
	birch.Get("a")
	birch.Get("missing")
	birch.PrefixGet("", 0)

	var buf bytes.Buffer
	birch.WriteMetrics(&buf)
	out := buf.String()

	for _, name := range []string{
		"ttlkv_puts_total 1",
		`ttlkv_gets_total{result="hit"} 1`,
		`ttlkv_gets_total{result="miss"} 1`,
		"ttlkv_prefix_scans_total 1",
		"ttlkv_entries 1",
		"ttlkv_scheduled_nodes 0",
		"ttlkv_sweeper_deletes_total",
		"ttlkv_lazy_deletes_total",
	} {
		assert.Contains(t, out, name)
	}
}

func TestMetricsAreIsolated(t *testing.T) {
	first := newBirch(t, time.Hour)
	second := newBirch(t, time.Hour)

	first.Put("a", []byte("v"), 0)

	assert.Equal(t, uint64(1), first.stats.puts.Get())
	assert.Equal(t, uint64(0), second.stats.puts.Get())
}

func TestGetInfo(t *testing.T) {
	birch := newBirch(t, time.Hour)

	for i := 0; i < 10; i++ {
		birch.Put(fmt.Sprintf("key-%d", i), make([]byte, 100), time.Minute)
	}

	info := birch.GetInfo()
	assert.Equal(t, db.ImplBirch, info.DbType)
	assert.Greater(t, info.SizeBytes, 10*100)
	assert.Contains(t, info.SupportedFeatures, db.FeatureBackgroundSweep)
	assert.NotNil(t, info.Metadata)

	assert.True(t, birch.SupportsFeature(db.FeaturePut|db.FeaturePrefixGet|db.FeatureCompareAndErase))
}
