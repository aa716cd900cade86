package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/agrirecsys/agriknn/model"
)

// Header is the column layout of a record file.
var Header = []string{
	"id",
	"soil_type",
	"fertilizer_type",
	"climate",
	"humidity_level",
	"pest_disease_management",
	"plant_time",
	"crop_harvested",
	"water_temperature",
	"harvest_colour",
	"seed_supplier",
	"season",
	"distance_to_retailer",
	"harvest_yield",
}

const (
	colID = iota
	colSoil
	colFertilizer
	colClimate
	colHumidity
	colPest
	colPlantTime
	colCrop
	colWaterTemp
	colColour
	colSupplier
	colSeason
	colDistance
	colYield
)

// unitSuffixes are stripped from numeric fields, longest first.
var unitSuffixes = []string{"°C", "km", "C", "%"}

// ErrHeader is returned when the first row does not match Header.
var ErrHeader = errors.New("unexpected header")

// ErrRow describes a malformed data row.
type ErrRow struct {
	Line   int
	Column string // empty when the row as a whole is malformed
	Err    error
}

func (e *ErrRow) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ErrRow) Unwrap() error { return e.Err }

// ReadOptions configures Read.
type ReadOptions struct {
	// SkipInvalid drops malformed rows instead of failing on the first one.
	SkipInvalid bool

	// Logger receives a warning for every skipped row. Nil discards them.
	Logger *slog.Logger
}

// ReadStats summarizes a Read.
type ReadStats struct {
	Rows    int // data rows seen
	Skipped int // rows dropped because SkipInvalid was set
}

// Read parses records from r. The first row must be the header.
func Read(r io.Reader, optFns ...func(o *ReadOptions)) ([]model.Record, ReadStats, error) {
	var opts ReadOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	var stats ReadStats

	head, err := cr.Read()
	if err == io.EOF {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	for i, name := range head {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")), Header[i]) {
			return nil, stats, fmt.Errorf("%w: column %d is %q, want %q", ErrHeader, i+1, name, Header[i])
		}
	}

	var records []model.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}

		var rec model.Record
		var rowErr error
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) || !errors.Is(err, csv.ErrFieldCount) {
				return nil, stats, err
			}
			rowErr = &ErrRow{Line: pe.Line, Err: pe.Err}
		} else {
			line, _ := cr.FieldPos(0)
			rec, rowErr = parseRow(row, line)
		}

		stats.Rows++
		if rowErr != nil {
			if !opts.SkipInvalid {
				return nil, stats, rowErr
			}
			stats.Skipped++
			if opts.Logger != nil {
				opts.Logger.Warn("skipping malformed row", "error", rowErr)
			}
			continue
		}
		records = append(records, rec)
	}

	return records, stats, nil
}

// ReadFile reads records from path, decompressing by suffix.
func ReadFile(path string, optFns ...func(o *ReadOptions)) ([]model.Record, ReadStats, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer func() { _ = rc.Close() }()

	return Read(rc, optFns...)
}

func parseRow(row []string, line int) (model.Record, error) {
	field := func(col int) string { return strings.TrimSpace(row[col]) }

	id, err := strconv.ParseUint(field(colID), 10, 64)
	if err != nil {
		return model.Record{}, &ErrRow{Line: line, Column: Header[colID], Err: err}
	}

	var nums [4]float64
	for i, col := range []int{colHumidity, colWaterTemp, colDistance, colYield} {
		v, err := parseNumber(field(col))
		if err != nil {
			return model.Record{}, &ErrRow{Line: line, Column: Header[col], Err: err}
		}
		nums[i] = v
	}

	cat := model.Categorical{
		SoilType:       field(colSoil),
		FertilizerType: field(colFertilizer),
		Climate:        field(colClimate),
		PestManagement: field(colPest),
		PlantTime:      field(colPlantTime),
		CropHarvested:  field(colCrop),
		HarvestColour:  field(colColour),
		SeedSupplier:   field(colSupplier),
		Season:         field(colSeason),
	}
	num := model.Numeric{
		HumidityLevel:      nums[0],
		WaterTemperature:   nums[1],
		DistanceToRetailer: nums[2],
		HarvestYield:       nums[3],
	}

	rec, err := model.NewRecord(model.ID(id), cat, num)
	if err != nil {
		var mf *model.ErrMissingField
		if errors.As(err, &mf) {
			return model.Record{}, &ErrRow{Line: line, Column: mf.Field, Err: err}
		}
		return model.Record{}, &ErrRow{Line: line, Err: err}
	}
	return rec, nil
}

func parseNumber(s string) (float64, error) {
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	return strconv.ParseFloat(s, 64)
}
