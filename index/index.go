package index

import (
	"context"
	"errors"
	"slices"

	"github.com/agrirecsys/agriknn/model"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidBands is returned when an LSH index is configured without bands.
	ErrInvalidBands = errors.New("number of bands must be positive")

	// ErrInvalidHashFunctions is returned when a band has no hash functions.
	ErrInvalidHashFunctions = errors.New("hash functions per band must be positive")

	// ErrInvalidWorkers is returned when the worker count is negative.
	ErrInvalidWorkers = errors.New("workers must not be negative")
)

// ValidateK checks the neighbor count shared by all engines.
func ValidateK(k int) error {
	if k < 1 {
		return ErrInvalidK
	}
	return nil
}

// Results maps every query ID to its ranked neighbors.
// Lists are sorted by ascending distance, then ascending neighbor ID.
type Results map[model.ID][]model.Neighbor

// QueryIDs returns the query IDs in ascending order.
func (r Results) QueryIDs() []model.ID {
	ids := make([]model.ID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Short counts the queries with fewer than k neighbors.
func (r Results) Short(k int) int {
	n := 0
	for _, nb := range r {
		if len(nb) < k {
			n++
		}
	}
	return n
}

// Searcher computes the neighbors of every record in a collection.
type Searcher interface {
	Name() string
	FindNeighbors(ctx context.Context, records []model.Record) (Results, error)
}
