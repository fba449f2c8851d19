package internal

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/db/util"
)

// --------------------------------------------------------------------------
// Entry Type (value with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with its expiry metadata
type Entry struct {
	Value     []byte    // Stored data (owned by the entry, never mutated after the write)
	ExpireAt  time.Time // Deadline, only meaningful if HasExpiry is set
	HasExpiry bool      // Whether the entry expires at all
	Version   uint64    // Version stamped by the write that created this entry
}

// NewEntry creates an entry for a write at now.
// A ttl <= 0 creates an entry that never expires.
func NewEntry(value []byte, version uint64, now time.Time, ttl time.Duration) Entry {
	e := Entry{
		Value:   value,
		Version: version,
	}
	if ttl > 0 {
		e.HasExpiry = true
		e.ExpireAt = now.Add(ttl)
	}
	return e
}

// IsExpired returns whether the entry is expired at the given time
func (e Entry) IsExpired(now time.Time) bool {
	return e.HasExpiry && !now.Before(e.ExpireAt)
}

func (e Entry) String() string {
	if !e.HasExpiry {
		return fmt.Sprintf("Entry{Version: %d, Size: %d}", e.Version, len(e.Value))
	}
	return fmt.Sprintf("Entry{Version: %d, Size: %d, ExpireAt: %s}", e.Version, len(e.Value), e.ExpireAt.Format(time.RFC3339Nano))
}

// --------------------------------------------------------------------------
// Item Type (element of the ordered tree)
// --------------------------------------------------------------------------

// Item is a key with its entry as stored in the B-tree
type Item struct {
	Key   string
	Entry Entry
}

// LessItem orders items by key (byte-wise)
func LessItem(a, b Item) bool {
	return a.Key < b.Key
}

// Pivot returns an item that only carries a key, used for lookups and range bounds
func Pivot(key string) Item {
	return Item{Key: key}
}

// --------------------------------------------------------------------------
// Scheduler Type (expiration hints)
// --------------------------------------------------------------------------

// Scheduler holds the expiration hints of all TTL-bearing writes.
// It has its own lock, independent of the lock of the entry store.
type Scheduler struct {
	mu   sync.Mutex
	heap *util.DeadlineHeap
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		heap: util.NewDeadlineHeap(),
	}
}

// Schedule adds a hint and reports whether it is now the earliest one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Scheduler) Schedule(node util.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Schedule(node)
}

// PopDue removes and returns the earliest hint if it is due at now (due=true).
// Otherwise the earliest hint is returned without removing it (pending=true),
// or nothing if the scheduler is empty.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Scheduler) PopDue(now time.Time) (node util.Node, due bool, pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.heap.Peek()
	if !ok {
		return util.Node{}, false, false
	}

	if now.Before(node.Deadline) {
		return node, false, true
	}

	s.heap.PopMin()
	return node, true, false
}

// Reset drops all hints
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heap.Reset()
}

// Len returns the number of hints, including stale ones
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}
