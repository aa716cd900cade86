// Package queue provides the bounded max-heap used for top-k selection.
package queue

import (
	"errors"
	"slices"
)

// ErrInvalidCapacity is returned when a heap is created with capacity < 1.
var ErrInvalidCapacity = errors.New("heap capacity must be positive")

// Item is a candidate held by the heap.
type Item[T any] struct {
	ID       uint64  // ID breaks distance ties, smaller first.
	Distance float64 // Distance is the priority of the item.
	Value    T       // Value is carried along untouched.
}

// worse reports whether a ranks after b: larger distance, or equal distance and larger ID.
func worse[T any](a, b Item[T]) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.ID > b.ID
}

// BoundedMaxHeap retains the k best items pushed so far.
// The root is always the worst retained item, so a full heap decides in O(1)
// whether an incoming item is discarded and in O(log k) how it replaces the root.
//
// A BoundedMaxHeap is not safe for concurrent use.
type BoundedMaxHeap[T any] struct {
	k     int
	items []Item[T] // arena of k slots in heap order
}

// NewBoundedMax creates a heap that keeps at most k items.
func NewBoundedMax[T any](k int) (*BoundedMaxHeap[T], error) {
	if k < 1 {
		return nil, ErrInvalidCapacity
	}
	return &BoundedMaxHeap[T]{
		k:     k,
		items: make([]Item[T], 0, k),
	}, nil
}

// Len returns the number of retained items.
func (h *BoundedMaxHeap[T]) Len() int { return len(h.items) }

// Cap returns k.
func (h *BoundedMaxHeap[T]) Cap() int { return h.k }

// Full reports whether k items are retained.
func (h *BoundedMaxHeap[T]) Full() bool { return len(h.items) == h.k }

// Max returns the worst retained item.
func (h *BoundedMaxHeap[T]) Max() (Item[T], bool) {
	if len(h.items) == 0 {
		return Item[T]{}, false
	}
	return h.items[0], true
}

// Push offers an item to the heap and reports whether it was retained.
// While the heap holds fewer than k items the item is always kept. Once full,
// an item that does not rank strictly before the root is discarded; otherwise
// it evicts the root.
func (h *BoundedMaxHeap[T]) Push(item Item[T]) bool {
	if len(h.items) < h.k {
		h.items = append(h.items, item)
		h.siftUp(len(h.items) - 1)
		return true
	}
	if !worse(h.items[0], item) {
		return false
	}
	h.items[0] = item
	h.siftDown(0)
	return true
}

// Drain empties the heap and returns its items sorted by ascending
// distance, then ascending ID. The result has Len() entries and is never padded.
func (h *BoundedMaxHeap[T]) Drain() []Item[T] {
	out := slices.Clone(h.items)
	slices.SortFunc(out, func(a, b Item[T]) int {
		switch {
		case worse(b, a):
			return -1
		case worse(a, b):
			return 1
		default:
			return 0
		}
	})
	h.Reset()
	return out
}

// Reset clears the heap for reuse, keeping its capacity.
func (h *BoundedMaxHeap[T]) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *BoundedMaxHeap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(h.items[i], h.items[p]) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *BoundedMaxHeap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && worse(h.items[r], h.items[l]) {
			best = r
		}
		if !worse(h.items[best], h.items[i]) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
