// Package testutil provides testing utilities for agriknn.
//
// This package is intended for tests, benchmarks and the synthetic dataset
// command. It provides a seeded record generator, a sort-based reference
// neighbor search and recall measurement.
//
// # Random Record Generation
//
//	rng := testutil.NewRNG(seed)
//	records := rng.Records(1000)          // IDs 1..1000
//	clustered := rng.ClusteredRecords(1000, 20, 0.5)
//
// # Reference Search (Ground Truth)
//
//	want := testutil.BruteForce(query, records, k, distance.Combined)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(want, got)
package testutil
