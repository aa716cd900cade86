package index

import (
	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/model"
	"github.com/agrirecsys/agriknn/queue"
)

// Rank reduces candidates to the k nearest neighbors of query under fn.
// Candidates sharing the query's ID are skipped, as are candidates for which
// skip returns true (nil keeps all); skip receives the candidate's position.
// The result is sorted by ascending distance, then ID, and holds fewer than
// k entries when there are not enough candidates.
func Rank(query model.Record, candidates []model.Record, k int, fn distance.Func, skip func(i int, c model.Record) bool) ([]model.Neighbor, error) {
	h, err := queue.NewBoundedMax[model.Record](k)
	if err != nil {
		return nil, ErrInvalidK
	}
	qid := query.ID()
	for i, c := range candidates {
		if c.ID() == qid {
			continue
		}
		if skip != nil && skip(i, c) {
			continue
		}
		h.Push(queue.Item[model.Record]{
			ID:       uint64(c.ID()),
			Distance: fn(query, c),
			Value:    c,
		})
	}
	items := h.Drain()
	out := make([]model.Neighbor, len(items))
	for i, it := range items {
		out[i] = model.Neighbor{Record: it.Value, Distance: it.Distance}
	}
	return out, nil
}
