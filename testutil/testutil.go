package testutil

import (
	"math/rand"
	"slices"
	"sync"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/model"
)

// Value domains of the synthetic agriculture dataset.
var (
	SoilTypes       = []string{"Sandy", "Clay", "Saline", "Loamy"}
	FertilizerTypes = []string{"Organic", "Chemical", "Compost"}
	Climates        = []string{"Tropical", "Temperate", "Arid"}
	PestManagement  = []string{
		"Chemical Control - Synthetic Pesticides",
		"Chemical Control - Organic Pesticides",
		"Biological Control - Predatory Insects",
		"Integrated Pest Management",
	}
	PlantTimes     = []string{"Early Spring", "Late Spring", "Early Summer", "Late Summer", "Autumn", "Winter"}
	Crops          = []string{"Tomato", "Carrot", "Wheat", "Corn", "Lettuce", "Potato"}
	HarvestColours = []string{"Rare", "Medium-Rare", "Medium", "Medium-Well", "Well-Done", "Overdone"}
	SeedSuppliers  = []string{"AgriSeeds Co.", "FarmGrow Inc.", "GreenFields", "CropLife Solutions"}
	Seasons        = []string{"Spring", "Summer", "Autumn", "Winter"}
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Shuffle pseudo-randomizes the order of records in place.
func (r *RNG) Shuffle(records []model.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
}

// Record generates one record with the given ID.
func (r *RNG) Record(id model.ID) model.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(id)
}

// Records generates n records with IDs 1..n.
func (r *RNG) Records(n int) []model.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Record, n)
	for i := range n {
		out[i] = r.recordLocked(model.ID(i + 1))
	}
	return out
}

// ClusteredRecords generates n records with IDs 1..n grouped around
// `clusters` prototypes. Members share the prototype's categorical attributes
// and deviate from its numeric attributes by at most spread per field.
func (r *RNG) ClusteredRecords(n, clusters int, spread float64) []model.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	protos := make([]model.Record, clusters)
	for i := range protos {
		protos[i] = r.recordLocked(0)
	}

	out := make([]model.Record, n)
	for i := range n {
		p := protos[i%clusters]
		num := p.Numeric()
		num.HumidityLevel += r.jitterLocked(spread)
		num.WaterTemperature += r.jitterLocked(spread)
		num.DistanceToRetailer += r.jitterLocked(spread)
		num.HarvestYield += r.jitterLocked(spread)
		out[i] = model.MustRecord(model.ID(i+1), p.Categorical(), num)
	}
	return out
}

func (r *RNG) jitterLocked(spread float64) float64 {
	return (r.rand.Float64()*2 - 1) * spread
}

func (r *RNG) pickLocked(values []string) string {
	return values[r.rand.Intn(len(values))]
}

// recordLocked mirrors the ranges of the agriculture dataset generator:
// humidity 60..85, water temperature 20..34, distance 128..134, yield 20..100.
func (r *RNG) recordLocked(id model.ID) model.Record {
	cat := model.Categorical{
		SoilType:       r.pickLocked(SoilTypes),
		FertilizerType: r.pickLocked(FertilizerTypes),
		Climate:        r.pickLocked(Climates),
		PestManagement: r.pickLocked(PestManagement),
		PlantTime:      r.pickLocked(PlantTimes),
		CropHarvested:  r.pickLocked(Crops),
		HarvestColour:  r.pickLocked(HarvestColours),
		SeedSupplier:   r.pickLocked(SeedSuppliers),
		Season:         r.pickLocked(Seasons),
	}
	num := model.Numeric{
		HumidityLevel:      float64(r.rand.Intn(26) + 60),
		WaterTemperature:   float64(r.rand.Intn(15) + 20),
		DistanceToRetailer: float64(r.rand.Intn(7) + 128),
		HarvestYield:       float64(r.rand.Intn(81) + 20),
	}
	return model.MustRecord(id, cat, num)
}

// BruteForce returns the k nearest neighbors of query by sorting every
// candidate. It shares no code with the engines and serves as ground truth.
func BruteForce(query model.Record, records []model.Record, k int, fn distance.Func) []model.Neighbor {
	all := make([]model.Neighbor, 0, len(records))
	for _, c := range records {
		if c.ID() == query.ID() {
			continue
		}
		all = append(all, model.Neighbor{Record: c, Distance: fn(query, c)})
	}
	slices.SortFunc(all, model.Compare)
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// ComputeRecall computes the fraction of groundTruth neighbor IDs found in approximate.
// An empty ground truth yields 1.
func ComputeRecall(groundTruth, approximate []model.Neighbor) float64 {
	if len(groundTruth) == 0 {
		return 1
	}
	found := make(map[model.ID]struct{}, len(approximate))
	for _, n := range approximate {
		found[n.ID()] = struct{}{}
	}
	hits := 0
	for _, n := range groundTruth {
		if _, ok := found[n.ID()]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}
