package testutil

import (
	"slices"
	"testing"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords(t *testing.T) {
	rng := NewRNG(4711)

	recs := rng.Records(50)

	require.Len(t, recs, 50)
	for i, r := range recs {
		assert.Equal(t, model.ID(i+1), r.ID())
		require.NoError(t, r.Validate())

		num := r.Numeric()
		assert.GreaterOrEqual(t, num.HumidityLevel, 60.0)
		assert.LessOrEqual(t, num.HumidityLevel, 85.0)
		assert.GreaterOrEqual(t, num.WaterTemperature, 20.0)
		assert.LessOrEqual(t, num.WaterTemperature, 34.0)
		assert.GreaterOrEqual(t, num.DistanceToRetailer, 128.0)
		assert.LessOrEqual(t, num.DistanceToRetailer, 134.0)
		assert.GreaterOrEqual(t, num.HarvestYield, 20.0)
		assert.LessOrEqual(t, num.HarvestYield, 100.0)
		assert.Contains(t, SoilTypes, r.Categorical().SoilType)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	r1 := rng.Records(5)

	rng.Reset()
	r2 := rng.Records(5)

	assert.Equal(t, r1, r2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestClusteredRecords(t *testing.T) {
	rng := NewRNG(4711)

	recs := rng.ClusteredRecords(40, 4, 0.5)

	require.Len(t, recs, 40)
	// Members 0 and 4 share a prototype.
	assert.Equal(t, 0, distance.Hamming(recs[0], recs[4]))
	assert.LessOrEqual(t, distance.Euclidean(recs[0], recs[4]), 2.0)
}

func TestBruteForce(t *testing.T) {
	rng := NewRNG(4711)
	recs := rng.Records(30)

	got := BruteForce(recs[0], recs, 5, distance.Combined)

	require.Len(t, got, 5)
	assert.True(t, slices.IsSortedFunc(got, model.Compare))
	for _, n := range got {
		assert.NotEqual(t, recs[0].ID(), n.ID())
	}

	all := BruteForce(recs[0], recs, 100, distance.Combined)
	assert.Len(t, all, 29)
}

func TestComputeRecall(t *testing.T) {
	rng := NewRNG(4711)
	recs := rng.Records(4)
	n := func(r model.Record) model.Neighbor { return model.Neighbor{Record: r} }

	truth := []model.Neighbor{n(recs[0]), n(recs[1])}

	assert.Equal(t, 1.0, ComputeRecall(truth, truth))
	assert.Equal(t, 0.5, ComputeRecall(truth, []model.Neighbor{n(recs[1]), n(recs[2])}))
	assert.Equal(t, 0.0, ComputeRecall(truth, nil))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
}
