package lsh

import (
	"context"
	"encoding/binary"
	"math"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/index"
	"github.com/agrirecsys/agriknn/model"
	"github.com/agrirecsys/agriknn/testutil"
)

func withNumeric(id model.ID, cat model.Categorical, num model.Numeric) model.Record {
	return model.MustRecord(id, cat, num)
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		ix, err := New()
		require.NoError(t, err)
		assert.Equal(t, "LSH", ix.Name())
		assert.Equal(t, 3, ix.K())
		assert.Equal(t, 0, ix.Len())

		st := ix.Stats()
		assert.Equal(t, 5, st.Bands)
		assert.Equal(t, 10, st.HashFunctionsPerBand)
		assert.Len(t, st.PerBand, 5)
	})

	cases := []struct {
		name string
		fn   func(o *Options)
		err  error
	}{
		{"ZeroBands", func(o *Options) { o.Bands = 0 }, index.ErrInvalidBands},
		{"ZeroHashFunctions", func(o *Options) { o.HashFunctionsPerBand = 0 }, index.ErrInvalidHashFunctions},
		{"ZeroK", func(o *Options) { o.K = 0 }, index.ErrInvalidK},
		{"NegativeK", func(o *Options) { o.K = -2 }, index.ErrInvalidK},
		{"ZeroScale", func(o *Options) { o.Scale = 0 }, ErrInvalidScale},
		{"ZeroShards", func(o *Options) { o.Shards = 0 }, ErrInvalidShards},
		{"NegativeWorkers", func(o *Options) { o.Workers = -1 }, index.ErrInvalidWorkers},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.fn)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestWeightsAreSeeded(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	c, err := New(func(o *Options) { o.Seed = 7 })
	require.NoError(t, err)

	for band := range 5 {
		wa := a.Weights(band)
		require.Len(t, wa, 10)
		assert.Equal(t, wa, b.Weights(band))
		for _, w := range wa {
			assert.GreaterOrEqual(t, w, -0.5)
			assert.Less(t, w, 0.5)
		}
	}
	assert.NotEqual(t, a.Weights(0), c.Weights(0))

	// Weights are returned by copy.
	w := a.Weights(0)
	w[0] = 42
	assert.NotEqual(t, 42.0, a.Weights(0)[0])
}

func TestProjectionAndHash(t *testing.T) {
	ix, err := New(func(o *Options) { o.HashFunctionsPerBand = 6 })
	require.NoError(t, err)

	r := testutil.NewRNG(9).Record(1)
	f := r.Features()
	cycled := []float64{f[0], f[1], f[2], f[3], f[0], f[1]}

	for band := range 5 {
		want := int64(floats.Dot(cycled, ix.Weights(band)) * DefaultScale)
		assert.Equal(t, want, ix.Projection(r, band))
		assert.Equal(t, HashCode(want), ix.Hash(r, band))
	}

	// Negative projections hash their two's complement bytes.
	p := int64(-1234)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(p))
	assert.Equal(t, xxhash.Sum64(buf[:]), HashCode(p))
	assert.NotEqual(t, HashCode(1), HashCode(2))
}

func TestSingleBandSingleHash(t *testing.T) {
	newIndex := func() *Index {
		ix, err := New(func(o *Options) {
			o.Bands = 1
			o.HashFunctionsPerBand = 1
		})
		require.NoError(t, err)
		return ix
	}
	a, b := newIndex(), newIndex()

	w := a.Weights(0)
	require.Len(t, w, 1)
	assert.Equal(t, w, b.Weights(0))

	// With one weight only the first feature, water temperature, is projected.
	for _, r := range testutil.NewRNG(12).Records(20) {
		want := int64(r.Numeric().WaterTemperature * w[0] * DefaultScale)
		assert.Equal(t, want, a.Projection(r, 0))
		assert.Equal(t, a.Hash(r, 0), b.Hash(r, 0))
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1.9, 1},
		{-1.9, -1},
		{-3936.7, -3936},
		{1e300, math.MaxInt64},
		{-1e300, math.MinInt64},
		{math.Inf(1), math.MaxInt64},
		{math.Inf(-1), math.MinInt64},
		{0x1p63, math.MaxInt64},
		{-0x1p63, math.MinInt64},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, truncate(tc.in), "truncate(%v)", tc.in)
	}
}

func TestExtremeFeaturesSaturate(t *testing.T) {
	rng := testutil.NewRNG(6)
	num := model.Numeric{HumidityLevel: 1e308, WaterTemperature: 1e308, DistanceToRetailer: 1e308, HarvestYield: 1e308}
	r := withNumeric(1, rng.Record(0).Categorical(), num)

	ix, err := New()
	require.NoError(t, err)
	require.NoError(t, ix.Insert(r))

	for band := range 5 {
		p := ix.Projection(r, band)
		assert.True(t, p == math.MaxInt64 || p == math.MinInt64, "band %d projection %d", band, p)
		assert.Equal(t, []model.ID{1}, ix.Bucket(band, ix.Hash(r, band)))
	}
}

func TestBandOutOfRange(t *testing.T) {
	ix, err := New()
	require.NoError(t, err)
	require.NoError(t, ix.Insert(testutil.NewRNG(1).Record(1)))

	for _, band := range []int{-1, 5, 100} {
		assert.Nil(t, ix.Weights(band))
		assert.Nil(t, ix.Bucket(band, 0))
		assert.Nil(t, ix.Codes(band))
	}
}

func TestCollisionIffCandidate(t *testing.T) {
	records := testutil.NewRNG(400).Records(400)

	ix, err := New(func(o *Options) { o.HashFunctionsPerBand = 2 })
	require.NoError(t, err)
	_, err = ix.BulkInsert(context.Background(), records)
	require.NoError(t, err)

	codes := make([][]uint64, len(records))
	for i, r := range records {
		codes[i] = make([]uint64, 5)
		for band := range 5 {
			codes[i][band] = ix.Hash(r, band)
		}
	}

	collisions, misses := 0, 0
	for i, q := range records {
		cands := make(map[model.ID]bool)
		for _, c := range ix.ApproximateNeighbors(q) {
			cands[c.ID()] = true
		}
		for j, c := range records {
			if i == j {
				continue
			}
			collide := false
			for band := range 5 {
				if codes[i][band] == codes[j][band] {
					collide = true
					break
				}
			}
			if collide {
				collisions++
			}
			if collide != cands[c.ID()] {
				misses++
			}
		}
	}

	assert.Positive(t, collisions)
	assert.Zero(t, misses)
}

func TestEqualFeaturesAlwaysCollide(t *testing.T) {
	rng := testutil.NewRNG(11)
	base := rng.Record(1)
	twin := withNumeric(2, rng.Record(0).Categorical(), base.Numeric())

	ix, err := New()
	require.NoError(t, err)
	require.NoError(t, ix.Insert(base))
	require.NoError(t, ix.Insert(twin))

	for band := range 5 {
		assert.Equal(t, ix.Hash(base, band), ix.Hash(twin, band))
	}

	ids := func(rs []model.Record) []model.ID {
		out := make([]model.ID, len(rs))
		for i, r := range rs {
			out[i] = r.ID()
		}
		return out
	}
	assert.Contains(t, ids(ix.ApproximateNeighbors(base)), twin.ID())
	assert.Contains(t, ids(ix.ApproximateNeighbors(twin)), base.ID())
}

func TestApproximateNeighborsDeduplicated(t *testing.T) {
	records := testutil.NewRNG(21).Records(300)

	ix, err := New(func(o *Options) { o.Bands = 8 })
	require.NoError(t, err)
	n, err := ix.BulkInsert(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, len(records), n)

	for _, q := range records[:50] {
		cands := ix.ApproximateNeighbors(q)
		assert.True(t, slices.IsSortedFunc(cands, func(a, b model.Record) int { return int(a.ID()) - int(b.ID()) }))
		for i := 1; i < len(cands); i++ {
			assert.NotEqual(t, cands[i-1].ID(), cands[i].ID())
		}

		// Every candidate shares at least one bucket with the query.
		for _, c := range cands {
			shared := false
			for band := range 8 {
				if ix.Hash(q, band) == ix.Hash(c, band) {
					shared = true
					break
				}
			}
			assert.True(t, shared, "candidate %d of %d", c.ID(), q.ID())
		}
	}
}

func TestNeighborsRefinesCandidates(t *testing.T) {
	records := testutil.NewRNG(33).Records(250)

	ix, err := New(func(o *Options) {
		o.K = 4
		o.HashFunctionsPerBand = 2
	})
	require.NoError(t, err)
	_, err = ix.BulkInsert(context.Background(), records)
	require.NoError(t, err)

	for _, q := range records {
		got, err := ix.Neighbors(q)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), 4)
		assert.True(t, slices.IsSortedFunc(got, model.Compare))

		want := testutil.BruteForce(q, ix.ApproximateNeighbors(q), 4, distance.Refinement)
		assert.Equal(t, want, got)
	}
}

func TestNeighborsNotPadded(t *testing.T) {
	rng := testutil.NewRNG(2)
	a := rng.Record(1)
	b := withNumeric(2, rng.Record(0).Categorical(), a.Numeric())

	ix, err := New(func(o *Options) {
		o.Bands = 1
		o.HashFunctionsPerBand = 1
		o.K = 3
	})
	require.NoError(t, err)

	require.NoError(t, ix.Insert(a))
	got, err := ix.Neighbors(a)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, ix.Insert(b))
	got, err = ix.Neighbors(a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID(), got[0].ID())
	assert.Equal(t, 0.0, got[0].Distance)
}

func TestInsertOrderIndependence(t *testing.T) {
	rng := testutil.NewRNG(77)
	records := rng.Records(150)

	sequential, err := New()
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, sequential.Insert(r))
	}

	shuffled := slices.Clone(records)
	rng.Shuffle(shuffled)
	concurrent, err := New(func(o *Options) { o.Workers = 8 })
	require.NoError(t, err)
	_, err = concurrent.BulkInsert(context.Background(), shuffled)
	require.NoError(t, err)

	for band := range 5 {
		codes := sequential.Codes(band)
		require.Equal(t, codes, concurrent.Codes(band))
		for _, code := range codes {
			assert.Equal(t, sequential.Bucket(band, code), concurrent.Bucket(band, code))
		}
	}

	for _, q := range records {
		want, err := sequential.Neighbors(q)
		require.NoError(t, err)
		got, err := concurrent.Neighbors(q)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBulkInsertSkipsInvalid(t *testing.T) {
	records := testutil.NewRNG(4).Records(10)
	records = append(records, model.Record{})

	ix, err := New()
	require.NoError(t, err)
	n, err := ix.BulkInsert(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 10, ix.Len())

	assert.Error(t, ix.Insert(model.Record{}))
	_, err = ix.Neighbors(model.Record{})
	assert.Error(t, err)
}

func TestFindNeighbors(t *testing.T) {
	// Identical members of a cluster always collide, so the approximate
	// result matches the exact refinement ranking.
	records := testutil.NewRNG(8).ClusteredRecords(60, 6, 0)

	var calls atomic.Int64
	ix, err := New(func(o *Options) {
		o.Workers = 4
		o.Progress = func(int) { calls.Add(1) }
	})
	require.NoError(t, err)

	res, err := ix.FindNeighbors(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, res, len(records))
	assert.Equal(t, int64(len(records)), calls.Load())
	assert.Equal(t, 0, res.Short(3))

	for _, q := range records {
		exact := testutil.BruteForce(q, records, 3, distance.Refinement)
		assert.Equal(t, 1.0, testutil.ComputeRecall(exact, res[q.ID()]))
	}

	st := ix.Stats()
	assert.Equal(t, len(records), st.Records)
	for _, b := range st.PerBand {
		assert.Equal(t, len(records), b.Entries)
		assert.LessOrEqual(t, b.Buckets, 6)
		assert.GreaterOrEqual(t, b.Largest, 10)
	}

	_, err = ix.FindNeighbors(context.Background(), records)
	assert.ErrorIs(t, err, ErrIndexNotEmpty)
}

func TestFindNeighborsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, err := New()
	require.NoError(t, err)
	_, err = ix.FindNeighbors(ctx, testutil.NewRNG(1).Records(20))
	assert.ErrorIs(t, err, context.Canceled)
}
