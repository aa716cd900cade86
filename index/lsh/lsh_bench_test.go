package lsh_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/agrirecsys/agriknn/index/lsh"
	"github.com/agrirecsys/agriknn/testutil"
)

// Benchmark concurrent index construction
func BenchmarkLSHBulkInsert(b *testing.B) {
	records := testutil.NewRNG(0).Records(20000)
	ctx := context.Background()

	for _, bands := range []int{5, 10} {
		b.Run(fmt.Sprintf("bands=%d", bands), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				ix, err := lsh.New(func(o *lsh.Options) { o.Bands = bands })
				if err != nil {
					b.Fatal(err)
				}
				if _, err := ix.BulkInsert(ctx, records); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Benchmark candidate retrieval plus refinement
func BenchmarkLSHNeighbors(b *testing.B) {
	records := testutil.NewRNG(0).Records(20000)
	ix, err := lsh.New()
	if err != nil {
		b.Fatal(err)
	}
	if _, err := ix.BulkInsert(context.Background(), records); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		if _, err := ix.Neighbors(records[i%len(records)]); err != nil {
			b.Fatal(err)
		}
	}
}
