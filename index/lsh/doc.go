// Package lsh provides an approximate neighbor index based on banded random
// projections.
//
// Each of the B bands owns H random weights drawn once from a seeded source.
// A record is hashed in a band by projecting its numeric feature vector
// (water temperature, humidity, harvest yield, distance to retailer, cycled to
// length H) onto the band's weights, scaling by a fixed factor, truncating to an
// integer and hashing that integer with xxhash. Records sharing a code in any
// band are candidates for each other (OR over bands).
//
// Candidates are refined with the numeric Euclidean metric into a true top-k.
// Results are approximate: a close record that collides in no band is never
// seen.
//
// # Usage
//
//	ix, _ := lsh.New(func(o *lsh.Options) {
//	    o.Bands = 5
//	    o.HashFunctionsPerBand = 10
//	})
//	n, _ := ix.BulkInsert(ctx, records) // invalid records are skipped
//	neighbors, _ := ix.Neighbors(query)
package lsh
