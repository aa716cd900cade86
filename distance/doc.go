// Package distance provides the similarity metrics used to rank neighbors.
//
// # Supported Metrics
//
//   - MetricCombined: categorical Hamming count plus numeric Euclidean norm
//   - MetricRefinement: numeric Euclidean norm only
//
// The combined metric adds an integer mismatch count (0..9) to a real-valued
// Euclidean distance without normalization. It is symmetric and zero for
// identical records, which is all ranking needs, but it does not weight the
// two domains against each other.
//
// # Usage
//
//	d := distance.Combined(a, b)
//	fn, _ := distance.Provider(distance.MetricRefinement)
//	d = fn(a, b)
package distance
