// Package util
//
// This file provides the priority queue used to schedule expirations.
//
// The DeadlineHeap is a binary min-heap of expiration hints. Each hint records
// the deadline of a write, the version stamped into that write and the key it
// refers to. Hints are ordered by deadline first and version second, so two
// writes with the same deadline pop in write order.
//
// In contrast to a keyed priority queue, hints are never updated or removed
// individually. When a key is rewritten, its previous hint stays in the heap
// and is recognised as stale when it is popped (its version no longer matches
// the live entry). This trades heap size for the secondary index that would
// otherwise be needed to find and fix a hint by key.
//
// Concurrency Considerations:
//   - Note: This implementation is not thread-safe
//   - For concurrent use, external synchronization should be applied
//
// Example usage:
//
//	h := NewDeadlineHeap()
//	h.Schedule(Node{Deadline: time.Now().Add(time.Second), Version: 1, Key: "a"})
//
//	for {
//	    n, ok := h.Peek()
//	    if !ok || n.Deadline.After(time.Now()) {
//	        break
//	    }
//	    h.PopMin()
//	    // validate n against the live entry
//	}
package util

import (
	"container/heap"
	"strconv"
	"time"
)

// Node is an expiration hint for a single write
type Node struct {
	Deadline time.Time // When the write expires
	Version  uint64    // Version stamped into the write
	Key      string    // Key that was written
}

func (n Node) String() string {
	return "{Key: " + n.Key + ", Version: " + strconv.FormatUint(n.Version, 10) + ", Deadline: " + n.Deadline.Format(time.RFC3339Nano) + "}"
}

// before reports whether n is ordered before o
func (n Node) before(o Node) bool {
	if !n.Deadline.Equal(o.Deadline) {
		return n.Deadline.Before(o.Deadline)
	}
	return n.Version < o.Version
}

// DeadlineHeap implements a min-heap of expiration hints
type DeadlineHeap struct {
	nodes []Node
}

// NewDeadlineHeap creates a new empty heap
func NewDeadlineHeap() *DeadlineHeap {
	return &DeadlineHeap{
		nodes: make([]Node, 0),
	}
}

// Len returns the number of nodes in the heap (part of heap.Interface)
func (h *DeadlineHeap) Len() int { return len(h.nodes) }

// Less compares nodes by deadline, then version (part of heap.Interface)
func (h *DeadlineHeap) Less(i, j int) bool {
	return h.nodes[i].before(h.nodes[j])
}

// Swap exchanges nodes at positions i and j (part of heap.Interface)
func (h *DeadlineHeap) Swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
}

// Push appends a node to the heap (part of heap.Interface)
// Use Schedule instead, this method does not restore the heap property.
func (h *DeadlineHeap) Push(x interface{}) {
	h.nodes = append(h.nodes, x.(Node))
}

// Pop removes and returns the last node (part of heap.Interface)
// Use PopMin instead, this method does not restore the heap property.
func (h *DeadlineHeap) Pop() interface{} {
	old := h.nodes
	n := len(old)
	node := old[n-1]
	old[n-1] = Node{} // Avoid holding on to the key
	h.nodes = old[:n-1]
	return node
}

// Schedule adds a node and reports whether it became the earliest node
func (h *DeadlineHeap) Schedule(n Node) bool {
	heap.Push(h, n)
	return !h.nodes[0].before(n)
}

// PopMin removes and returns the earliest node
func (h *DeadlineHeap) PopMin() (Node, bool) {
	if len(h.nodes) == 0 {
		return Node{}, false
	}
	return heap.Pop(h).(Node), true
}

// Peek returns the earliest node without removing it
func (h *DeadlineHeap) Peek() (Node, bool) {
	if len(h.nodes) == 0 {
		return Node{}, false
	}
	return h.nodes[0], true
}

// Reset drops all nodes
func (h *DeadlineHeap) Reset() {
	h.nodes = make([]Node, 0)
}
