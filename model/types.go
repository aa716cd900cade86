package model

import (
	"cmp"
	"fmt"
	"math"
)

// ID is the unique identifier of a record.
type ID uint64

// NumCategorical is the number of categorical attributes compared by the Hamming metric.
const NumCategorical = 9

// NumNumeric is the number of numeric attributes compared by the Euclidean metric.
const NumNumeric = 4

// Categorical holds the enumerated attributes of a record.
// Values are opaque strings compared by equality.
type Categorical struct {
	SoilType       string
	FertilizerType string
	Climate        string
	PestManagement string
	PlantTime      string
	CropHarvested  string
	HarvestColour  string
	SeedSupplier   string
	Season         string
}

// Values returns the categorical attributes in a fixed order.
func (c Categorical) Values() [NumCategorical]string {
	return [NumCategorical]string{
		c.SoilType,
		c.FertilizerType,
		c.Climate,
		c.PestManagement,
		c.PlantTime,
		c.CropHarvested,
		c.HarvestColour,
		c.SeedSupplier,
		c.Season,
	}
}

// categoricalNames matches the order of Categorical.Values.
var categoricalNames = [NumCategorical]string{
	"soil_type",
	"fertilizer_type",
	"climate",
	"pest_disease_management",
	"plant_time",
	"crop_harvested",
	"harvest_colour",
	"seed_supplier",
	"season",
}

// Numeric holds the real-valued attributes of a record.
type Numeric struct {
	HumidityLevel      float64 // percent
	WaterTemperature   float64 // degrees Celsius
	DistanceToRetailer float64 // kilometres
	HarvestYield       float64 // percent
}

// Features returns the numeric attributes in projection order:
// water temperature, humidity, harvest yield, distance to retailer.
func (n Numeric) Features() [NumNumeric]float64 {
	return [NumNumeric]float64{
		n.WaterTemperature,
		n.HumidityLevel,
		n.HarvestYield,
		n.DistanceToRetailer,
	}
}

// numericNames matches the order of Numeric.Features.
var numericNames = [NumNumeric]string{
	"water_temperature",
	"humidity_level",
	"harvest_yield",
	"distance_to_retailer",
}

// Record is an immutable farm record.
// The zero value is not a valid record; use NewRecord.
type Record struct {
	id  ID
	cat Categorical
	num Numeric
}

// NewRecord constructs a record after checking that every field is populated.
func NewRecord(id ID, cat Categorical, num Numeric) (Record, error) {
	r := Record{id: id, cat: cat, num: num}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// MustRecord is like NewRecord but panics on invalid input.
// Intended for tests and static fixtures.
func MustRecord(id ID, cat Categorical, num Numeric) Record {
	r, err := NewRecord(id, cat, num)
	if err != nil {
		panic(err)
	}
	return r
}

// ID returns the record identifier.
func (r Record) ID() ID { return r.id }

// Categorical returns a copy of the categorical attributes.
func (r Record) Categorical() Categorical { return r.cat }

// Numeric returns a copy of the numeric attributes.
func (r Record) Numeric() Numeric { return r.num }

// Features is shorthand for r.Numeric().Features().
func (r Record) Features() [NumNumeric]float64 { return r.num.Features() }

// Validate reports the first missing or non-finite field.
func (r Record) Validate() error {
	values := r.cat.Values()
	for i, v := range values {
		if v == "" {
			return &ErrMissingField{ID: r.id, Field: categoricalNames[i]}
		}
	}
	features := r.num.Features()
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ErrMissingField{ID: r.id, Field: numericNames[i]}
		}
	}
	return nil
}

// String returns a short representation of the record.
func (r Record) String() string {
	return fmt.Sprintf("Record(%d)", r.id)
}

// Neighbor pairs a candidate record with its distance to a query.
type Neighbor struct {
	Record   Record
	Distance float64
}

// ID returns the candidate identifier.
func (n Neighbor) ID() ID { return n.Record.id }

// Compare orders neighbors by ascending distance, then by ascending ID.
func Compare(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.Record.id, b.Record.id)
}
