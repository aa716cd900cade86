package index

import (
	"testing"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id model.ID, humidity float64) model.Record {
	return model.MustRecord(id, model.Categorical{
		SoilType:       "Sandy",
		FertilizerType: "Organic",
		Climate:        "Tropical",
		PestManagement: "Integrated Pest Management",
		PlantTime:      "Early Spring",
		CropHarvested:  "Tomato",
		HarvestColour:  "Medium",
		SeedSupplier:   "GreenFields",
		Season:         "Spring",
	}, model.Numeric{HumidityLevel: humidity, WaterTemperature: 20, DistanceToRetailer: 130, HarvestYield: 50})
}

func TestRank(t *testing.T) {
	q := rec(1, 60)
	candidates := []model.Record{q, rec(2, 70), rec(3, 61), rec(4, 65), rec(5, 59)}

	t.Run("ExcludesSelf", func(t *testing.T) {
		got, err := Rank(q, candidates, 10, distance.Refinement, nil)
		require.NoError(t, err)
		require.Len(t, got, 4)
		for _, n := range got {
			assert.NotEqual(t, q.ID(), n.ID())
		}
	})

	t.Run("OrderedWithTies", func(t *testing.T) {
		got, err := Rank(q, candidates, 3, distance.Refinement, nil)
		require.NoError(t, err)
		require.Len(t, got, 3)
		// 3 and 5 are both at distance 1; ID breaks the tie.
		assert.Equal(t, model.ID(3), got[0].ID())
		assert.Equal(t, model.ID(5), got[1].ID())
		assert.Equal(t, model.ID(4), got[2].ID())
		assert.Equal(t, 5.0, got[2].Distance)
	})

	t.Run("Skip", func(t *testing.T) {
		got, err := Rank(q, candidates, 3, distance.Refinement, func(_ int, r model.Record) bool { return r.ID() == 3 })
		require.NoError(t, err)
		assert.Equal(t, model.ID(5), got[0].ID())
	})

	t.Run("InvalidK", func(t *testing.T) {
		_, err := Rank(q, candidates, 0, distance.Refinement, nil)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		got, err := Rank(q, []model.Record{q}, 3, distance.Refinement, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestResults(t *testing.T) {
	r := Results{
		5: {{Record: rec(1, 60)}},
		2: {},
		9: {{Record: rec(1, 60)}, {Record: rec(3, 60)}},
	}

	assert.Equal(t, []model.ID{2, 5, 9}, r.QueryIDs())
	assert.Equal(t, 2, r.Short(2))
	assert.NoError(t, ValidateK(1))
	assert.ErrorIs(t, ValidateK(0), ErrInvalidK)
}
