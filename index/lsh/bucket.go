package lsh

import (
	"sync"

	"github.com/agrirecsys/agriknn/model"
)

// bucketTable maps hash codes of one band to the records inserted with them.
// It is split into shards, each guarded by its own lock, so concurrent
// inserts only contend when their codes land in the same shard.
// Buckets only ever grow.
type bucketTable struct {
	shards []bucketShard
	mask   uint64
}

type bucketShard struct {
	mu      sync.RWMutex
	buckets map[uint64][]model.Record
}

// newBucketTable creates a table with n shards rounded up to a power of two.
func newBucketTable(n int) *bucketTable {
	size := 1
	for size < n {
		size <<= 1
	}
	t := &bucketTable{
		shards: make([]bucketShard, size),
		mask:   uint64(size - 1),
	}
	for i := range t.shards {
		t.shards[i].buckets = make(map[uint64][]model.Record)
	}
	return t
}

func (t *bucketTable) shard(code uint64) *bucketShard {
	return &t.shards[code&t.mask]
}

// append adds r to the bucket for code.
func (t *bucketTable) append(code uint64, r model.Record) {
	s := t.shard(code)
	s.mu.Lock()
	s.buckets[code] = append(s.buckets[code], r)
	s.mu.Unlock()
}

// visit calls fn for every record in the bucket for code.
// fn must not call back into the table.
func (t *bucketTable) visit(code uint64, fn func(model.Record)) {
	s := t.shard(code)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.buckets[code] {
		fn(r)
	}
}

// members returns the IDs stored under code, in insertion order.
func (t *bucketTable) members(code uint64) []model.ID {
	var ids []model.ID
	t.visit(code, func(r model.Record) { ids = append(ids, r.ID()) })
	return ids
}

// codes returns every code with a non-empty bucket.
func (t *bucketTable) codes() []uint64 {
	var out []uint64
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for code := range s.buckets {
			out = append(out, code)
		}
		s.mu.RUnlock()
	}
	return out
}

type tableStats struct {
	buckets int
	entries int
	largest int
}

func (t *bucketTable) stats() tableStats {
	var st tableStats
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		st.buckets += len(s.buckets)
		for _, b := range s.buckets {
			st.entries += len(b)
			st.largest = max(st.largest, len(b))
		}
		s.mu.RUnlock()
	}
	return st
}
