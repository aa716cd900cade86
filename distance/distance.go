package distance

import (
	"fmt"

	"github.com/agrirecsys/agriknn/model"
	"gonum.org/v1/gonum/floats"
)

// Hamming counts the categorical attributes on which a and b differ.
func Hamming(a, b model.Record) int {
	av, bv := a.Categorical().Values(), b.Categorical().Values()
	n := 0
	for i := range av {
		if av[i] != bv[i] {
			n++
		}
	}
	return n
}

// Euclidean returns the L2 norm of the difference of the numeric attributes.
func Euclidean(a, b model.Record) float64 {
	af, bf := a.Features(), b.Features()
	return floats.Distance(af[:], bf[:], 2)
}

// Combined returns Hamming(a, b) + Euclidean(a, b).
// Used by the exact engine.
func Combined(a, b model.Record) float64 {
	return float64(Hamming(a, b)) + Euclidean(a, b)
}

// Refinement returns Euclidean(a, b).
// Used to rank LSH candidates, whose buckets only see numeric projections.
func Refinement(a, b model.Record) float64 {
	return Euclidean(a, b)
}

// Metric identifies a distance function.
type Metric int

const (
	MetricCombined Metric = iota
	MetricRefinement
)

func (m Metric) String() string {
	switch m {
	case MetricCombined:
		return "Combined"
	case MetricRefinement:
		return "Refinement"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation between two records.
type Func func(a, b model.Record) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricCombined:
		return Combined, nil
	case MetricRefinement:
		return Refinement, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
