package birch

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db"
	"github.com/ValentinKolb/ttlkv/lib/db/engines/birch/internal"
	"github.com/ValentinKolb/ttlkv/lib/db/util"
	"github.com/google/btree"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("birch")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for database behavior and structure
const (
	defaultSweepInterval = 200 * time.Millisecond // Default fallback interval of the sweeper
	defaultDegree        = 32                     // Default degree of the B-tree
	infoSamples          = 100                    // Number of entries sampled by GetInfo
	entryOverhead        = 48                     // Estimated bytes per entry besides key and value
)

// --------------------------------------------------------------------------
// Core Birch database structure
// --------------------------------------------------------------------------

// birchImpl implements an ordered in-memory database with ttl support
type birchImpl struct {
	// entry store
	mu   *xsync.RBMutex                // Guards tree (shared for reads, exclusive for writes)
	tree *btree.BTreeG[internal.Item] // Ordered map of key -> entry

	// expiration
	scheduler     *internal.Scheduler
	version       atomic.Uint64 // Last version handed out to a write
	sweepInterval time.Duration
	degree        int

	// sweeper lifecycle
	wake        chan struct{} // Signals the sweeper that an earlier deadline was scheduled
	stop        chan struct{} // Closed on Close
	closed      atomic.Bool
	sweeperDone sync.WaitGroup

	stats *stats
}

// DBOptions configures the birchImpl behavior during initialization
type DBOptions struct {
	SweepInterval time.Duration // Time the sweeper waits when nothing is scheduled (must be > 0)
	Degree        int           // Degree of the B-tree (must be >= 2)
}

// DefaultOptions returns the default birchImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		SweepInterval: defaultSweepInterval,
		Degree:        defaultDegree,
	}
}

// Validate checks that the options can be used to create a database
func (o *DBOptions) Validate() error {
	if o.SweepInterval <= 0 {
		return fmt.Errorf("%w: got %s", db.ErrInvalidSweepInterval, o.SweepInterval)
	}
	if o.Degree < 2 {
		return fmt.Errorf("%w: got %d", db.ErrInvalidDegree, o.Degree)
	}
	return nil
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewBirchDB creates a new BirchDB instance with the specified options (optional)
// and starts its background sweeper. Invalid options are rejected.
//
// The returned database must be closed to stop the sweeper.
func NewBirchDB(opts *DBOptions) (db.KVDB, error) {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	newDB := &birchImpl{
		mu:            xsync.NewRBMutex(),
		tree:          btree.NewG[internal.Item](opts.Degree, internal.LessItem),
		scheduler:     internal.NewScheduler(),
		sweepInterval: opts.SweepInterval,
		degree:        opts.Degree,
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
	}
	newDB.stats = newStats(newDB)

	// start the sweeper
	newDB.sweeperDone.Add(1)
	go newDB.sweeper()

	return newDB, nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Put inserts or updates an entry.
// If the key already exists, the old value, expiry and version are replaced.
// A ttl <= 0 means the entry never expires.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) Put(key string, value []byte, ttl time.Duration) {
	birch.write(key, value, ttl, func(internal.Entry, bool) bool {
		return true
	})
}

// PutIfAbsent inserts an entry only if the key has no live value.
// An expired entry that was not reclaimed yet counts as absent and is replaced.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) PutIfAbsent(key string, value []byte, ttl time.Duration) bool {
	return birch.write(key, value, ttl, func(old internal.Entry, live bool) bool {
		return !live
	})
}

// write is the shared implementation of Put and PutIfAbsent.
// The accept function decides, under the write lock, whether the write is applied
// given the current entry and whether that entry is live.
//
// The version is taken under the write lock so that versions of one key grow in
// the order in which the writes are applied. The expiration hint is scheduled
// after the store lock is released.
func (birch *birchImpl) write(key string, value []byte, ttl time.Duration, accept func(old internal.Entry, live bool) bool) bool {
	now := time.Now()

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var entry internal.Entry

	birch.mu.Lock()
	old, loaded := birch.tree.Get(internal.Pivot(key))
	if !accept(old.Entry, loaded && !old.Entry.IsExpired(now)) {
		birch.mu.Unlock()
		return false
	}
	entry = internal.NewEntry(valueCopy, birch.version.Add(1), now, ttl)
	birch.tree.ReplaceOrInsert(internal.Item{Key: key, Entry: entry})
	birch.mu.Unlock()

	birch.stats.puts.Inc()

	if entry.HasExpiry {
		birch.schedule(key, entry)
	}
	return true
}

// schedule registers the expiration of a write with the sweeper
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) schedule(key string, entry internal.Entry) {
	// a closed database has no sweeper, lazy deletion still applies
	if birch.closed.Load() {
		return
	}

	earliest := birch.scheduler.Schedule(util.Node{
		Deadline: entry.ExpireAt,
		Version:  entry.Version,
		Key:      key,
	})

	if earliest {
		birch.signal()
	}
}

// signal wakes the sweeper without blocking
func (birch *birchImpl) signal() {
	select {
	case birch.wake <- struct{}{}:
	default: // a wake up is already pending
	}
}

// Erase removes the entry with the specified key.
// It reports whether an entry was physically removed, calling it again for the same key
// returns false.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) Erase(key string) bool {
	birch.mu.Lock()
	defer birch.mu.Unlock()

	_, removed := birch.tree.Delete(internal.Pivot(key))
	return removed
}

// CompareAndErase removes the entry only if it is live and holds the expected value
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) CompareAndErase(key string, expected []byte) bool {
	now := time.Now()

	birch.mu.Lock()
	defer birch.mu.Unlock()

	item, loaded := birch.tree.Get(internal.Pivot(key))
	if !loaded || item.Entry.IsExpired(now) || !bytes.Equal(item.Entry.Value, expected) {
		return false
	}

	birch.tree.Delete(item)
	return true
}

// eraseExpired removes the entry for key if it still carries the given version and is
// expired at now. This is the only deletion path for expired entries and is shared by
// lazy deletion (Get) and the sweeper: both re-validate under the write lock because
// the key may have been rewritten or removed since they looked at it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) eraseExpired(key string, version uint64, now time.Time) bool {
	birch.mu.Lock()
	defer birch.mu.Unlock()

	item, loaded := birch.tree.Get(internal.Pivot(key))
	if !loaded || item.Entry.Version != version || !item.Entry.IsExpired(now) {
		return false
	}

	birch.tree.Delete(item)
	return true
}

// Clear removes all entries and all scheduled expirations.
// The scheduler is reset before the entries are dropped: a write racing with Clear
// either loses its entry or keeps its hint, so no ttl-bearing entry is left without one.
// The version counter is not reset.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) Clear() {
	birch.scheduler.Reset()

	birch.mu.Lock()
	birch.tree.Clear(false)
	birch.mu.Unlock()
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The boolean indicates whether a (not expired) value for the key was found.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// If the entry is expired, it is removed before returning. The read lock is released
// before the write lock is taken, there is no lock upgrade.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) Get(key string) ([]byte, bool) {
	now := time.Now()

	token := birch.mu.RLock()
	item, loaded := birch.tree.Get(internal.Pivot(key))

	// case the key doesn't exist
	if !loaded {
		birch.mu.RUnlock(token)
		birch.stats.misses.Inc()
		return nil, false
	}

	// case expired -> lazy delete
	if item.Entry.IsExpired(now) {
		birch.mu.RUnlock(token)
		birch.stats.expired.Inc()
		if birch.eraseExpired(key, item.Entry.Version, now) {
			birch.stats.lazyDeletes.Inc()
			plog.Debugf("lazily deleted expired key %q (version %d)", key, item.Entry.Version)
		}
		return nil, false
	}

	// case valid data -> copy data
	data := make([]byte, len(item.Entry.Value))
	copy(data, item.Entry.Value)
	birch.mu.RUnlock(token)

	birch.stats.hits.Inc()
	return data, true
}

// PrefixGet returns all non-expired pairs whose key starts with prefix, in ascending key order.
// A limit <= 0 means unlimited.
// Expired entries are skipped but not removed, the scan only holds the read lock.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) PrefixGet(prefix string, limit int) []db.KV {
	now := time.Now()
	keyRange := util.PrefixRange(prefix)
	result := make([]db.KV, 0)

	visit := func(item internal.Item) bool {
		if item.Entry.IsExpired(now) {
			return true
		}

		value := make([]byte, len(item.Entry.Value))
		copy(value, item.Entry.Value)
		result = append(result, db.KV{Key: item.Key, Value: value})

		return limit <= 0 || len(result) < limit
	}

	token := birch.mu.RLock()
	if keyRange.Bounded {
		birch.tree.AscendRange(internal.Pivot(keyRange.From), internal.Pivot(keyRange.To), visit)
	} else {
		birch.tree.AscendGreaterOrEqual(internal.Pivot(keyRange.From), visit)
	}
	birch.mu.RUnlock(token)

	birch.stats.prefixScans.Inc()
	return result
}

// Size returns the number of entries physically present, including expired entries
// that were not reclaimed yet.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (birch *birchImpl) Size() int {
	token := birch.mu.RLock()
	defer birch.mu.RUnlock(token)
	return birch.tree.Len()
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (birch *birchImpl) GetInfo() db.DatabaseInfo {
	now := time.Now()

	// sample a few entries to estimate the size
	histogram := util.NewSizeHistogram()
	samples := 0
	expiredSamples := 0

	token := birch.mu.RLock()
	entries := birch.tree.Len()
	birch.tree.Ascend(func(item internal.Item) bool {
		histogram.AddSample(int64(len(item.Key) + len(item.Entry.Value)))
		if item.Entry.IsExpired(now) {
			expiredSamples++
		}
		samples++
		return samples < infoSamples
	})
	birch.mu.RUnlock(token)

	// weighted estimate (60% median, 40% average)
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead
	perEntry := (medianSize*60 + avgSize*40) / 100

	var expiredBacklog float64
	if samples > 0 {
		expiredBacklog = float64(expiredSamples) / float64(samples)
	}

	// Metadata for this specific database implementation
	meta := &struct {
		CurrentVersion   uint64  `json:"current_version"`
		Entries          int     `json:"entries"`
		ScheduledNodes   int     `json:"scheduled_nodes"`
		SweepInterval    string  `json:"sweep_interval"`
		Degree           int     `json:"degree"`
		ExpiredBacklog   float64 `json:"expired_backlog"`
		LazyDeletes      uint64  `json:"lazy_deletes"`
		SweeperDeletes   uint64  `json:"sweeper_deletes"`
		StaleNodes       uint64  `json:"stale_nodes"`
		SweeperIsRunning bool    `json:"sweeper_is_running"`
		Info             string  `json:"info"`
	}{
		CurrentVersion:   birch.version.Load(),
		Entries:          entries,
		ScheduledNodes:   birch.scheduler.Len(),
		SweepInterval:    birch.sweepInterval.String(),
		Degree:           birch.degree,
		ExpiredBacklog:   expiredBacklog, // how many sampled entries are expired but not yet reclaimed
		LazyDeletes:      birch.stats.lazyDeletes.Get(),
		SweeperDeletes:   birch.stats.sweeperDeletes.Get(),
		StaleNodes:       birch.stats.staleNodes.Get(),
		SweeperIsRunning: !birch.closed.Load(),
		Info:             "SizeBytes and ExpiredBacklog are estimates based on a sample of the entries.",
	}

	return db.DatabaseInfo{
		SizeBytes:         int(perEntry * int64(entries)),
		DbType:            db.ImplBirch,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

// supportedFeatures lists all features of this implementation
var supportedFeatures = []db.Feature{
	db.FeaturePut, db.FeaturePutTTL, db.FeaturePutIfAbsent,
	db.FeatureGet, db.FeaturePrefixGet,
	db.FeatureErase, db.FeatureCompareAndErase, db.FeatureClear,
	db.FeatureBackgroundSweep,
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (birch *birchImpl) SupportsFeature(feature db.Feature) bool {
	var supported db.Feature
	for _, f := range supportedFeatures {
		supported |= f
	}
	return supported&feature == feature
}

// WriteMetrics writes the metrics of this instance in Prometheus text format
func (birch *birchImpl) WriteMetrics(w io.Writer) {
	birch.stats.set.WritePrometheus(w)
}

// Close stops the sweeper and waits for it to exit.
// Calling Close more than once is a no-op.
func (birch *birchImpl) Close() error {
	if birch.closed.CompareAndSwap(false, true) {
		close(birch.stop)
		birch.sweeperDone.Wait()
	}
	return nil
}
