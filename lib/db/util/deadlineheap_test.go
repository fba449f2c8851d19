package util

import (
	"sort"
	"testing"
	"time"
)

// TestNewDeadlineHeap tests the creation of a new DeadlineHeap
func TestNewDeadlineHeap(t *testing.T) {
	h := NewDeadlineHeap()

	if h == nil {
		t.Fatal("NewDeadlineHeap() returned nil")
	}

	if h.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", h.Len())
	}
}

// TestScheduleReportsEarliest tests that Schedule reports when a node becomes the new minimum
func TestScheduleReportsEarliest(t *testing.T) {
	h := NewDeadlineHeap()
	base := time.Now()

	if !h.Schedule(Node{Deadline: base.Add(100 * time.Millisecond), Version: 1, Key: "a"}) {
		t.Error("First node should always be the earliest")
	}

	if h.Schedule(Node{Deadline: base.Add(200 * time.Millisecond), Version: 2, Key: "b"}) {
		t.Error("Later node should not be reported as earliest")
	}

	if !h.Schedule(Node{Deadline: base.Add(50 * time.Millisecond), Version: 3, Key: "c"}) {
		t.Error("Earlier node should be reported as earliest")
	}

	n, ok := h.Peek()
	if !ok {
		t.Fatal("Peek() should return a node")
	}

	if n.Key != "c" {
		t.Errorf("Expected min node to be c, got %s", n.Key)
	}
}

// TestPopOrder tests if nodes are popped by deadline, then version
func TestPopOrder(t *testing.T) {
	h := NewDeadlineHeap()
	base := time.Now()

	nodes := []Node{
		{Deadline: base.Add(50 * time.Millisecond), Version: 5, Key: "e"},
		{Deadline: base.Add(30 * time.Millisecond), Version: 3, Key: "c"},
		{Deadline: base.Add(10 * time.Millisecond), Version: 9, Key: "a2"},
		{Deadline: base.Add(10 * time.Millisecond), Version: 1, Key: "a1"},
		{Deadline: base.Add(40 * time.Millisecond), Version: 4, Key: "d"},
		{Deadline: base.Add(20 * time.Millisecond), Version: 2, Key: "b"},
	}

	for _, n := range nodes {
		h.Schedule(n)
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].before(nodes[j])
	})

	for i, expected := range nodes {
		got, ok := h.PopMin()
		if !ok {
			t.Fatalf("Heap empty after %d nodes, expected %d nodes", i, len(nodes))
		}
		if got.Key != expected.Key || got.Version != expected.Version {
			t.Errorf("Pop %d: expected %s, got %s", i, expected, got)
		}
	}

	if h.Len() != 0 {
		t.Errorf("Heap should be empty after popping all nodes, has %d nodes", h.Len())
	}
}

// TestDuplicateKeys tests that several hints for the same key are kept
func TestDuplicateKeys(t *testing.T) {
	h := NewDeadlineHeap()
	base := time.Now()

	h.Schedule(Node{Deadline: base.Add(50 * time.Millisecond), Version: 1, Key: "k"})
	h.Schedule(Node{Deadline: base.Add(130 * time.Millisecond), Version: 2, Key: "k"})

	if h.Len() != 2 {
		t.Fatalf("Heap should keep stale hints, expected 2 nodes, got %d", h.Len())
	}

	first, _ := h.PopMin()
	second, _ := h.PopMin()
	if first.Version != 1 || second.Version != 2 {
		t.Errorf("Expected versions 1, 2 got %d, %d", first.Version, second.Version)
	}
}

// TestPeekEmptyHeap tests behavior when peeking or popping an empty heap
func TestPeekEmptyHeap(t *testing.T) {
	h := NewDeadlineHeap()

	if _, ok := h.Peek(); ok {
		t.Error("Peek on empty heap should return ok=false")
	}

	if _, ok := h.PopMin(); ok {
		t.Error("PopMin on empty heap should return ok=false")
	}
}

// TestReset tests that Reset drops all nodes
func TestReset(t *testing.T) {
	h := NewDeadlineHeap()
	base := time.Now()

	for i := 0; i < 100; i++ {
		h.Schedule(Node{Deadline: base.Add(time.Duration(i) * time.Millisecond), Version: uint64(i + 1), Key: "k"})
	}

	h.Reset()

	if h.Len() != 0 {
		t.Errorf("Heap should be empty after Reset, has %d nodes", h.Len())
	}

	if !h.Schedule(Node{Deadline: base, Version: 101, Key: "k"}) {
		t.Error("Heap should be usable after Reset")
	}
}

// TestLargeNumberOfNodes tests the heap with many nodes
func TestLargeNumberOfNodes(t *testing.T) {
	h := NewDeadlineHeap()
	base := time.Now()

	const count = 10000
	for i := 0; i < count; i++ {
		// spread deadlines so that insertion order differs from pop order
		offset := time.Duration((i*7919)%count) * time.Microsecond
		h.Schedule(Node{Deadline: base.Add(offset), Version: uint64(i + 1), Key: "k"})
	}

	if h.Len() != count {
		t.Fatalf("Expected %d nodes, got %d", count, h.Len())
	}

	prev, _ := h.PopMin()
	for h.Len() > 0 {
		curr, _ := h.PopMin()
		if curr.before(prev) {
			t.Fatalf("Heap order violated: %s popped after %s", curr, prev)
		}
		prev = curr
	}
}
