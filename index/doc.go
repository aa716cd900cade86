// Package index provides the shared contracts of the neighbor engines.
//
// Two engines are available:
//
//   - Flat: exact nearest neighbors by comparing every pair of records
//   - LSH: approximate nearest neighbors from banded random projections
//
// # Engine Selection
//
//   - Flat: O(n²) metric evaluations, exact results under the combined metric
//   - LSH: candidate retrieval from hash buckets, refined with the numeric metric;
//     recall below 100% is expected
//
// # Short Results
//
// Neither engine pads its output. A query with fewer than k genuine
// candidates gets a shorter list, and callers must handle that.
package index
