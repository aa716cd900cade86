package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/agrirecsys/agriknn/index"
	"github.com/agrirecsys/agriknn/model"
)

// NeighborHeader is the column layout of a neighbor report.
var NeighborHeader = []string{"query_id", "rank", "neighbor_id", "distance"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteRecords writes records in the layout Read expects, with the unit
// suffixes used by the generated dataset files.
func WriteRecords(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	row := make([]string, len(Header))
	for _, r := range records {
		cat, num := r.Categorical(), r.Numeric()
		row[colID] = strconv.FormatUint(uint64(r.ID()), 10)
		row[colSoil] = cat.SoilType
		row[colFertilizer] = cat.FertilizerType
		row[colClimate] = cat.Climate
		row[colHumidity] = formatFloat(num.HumidityLevel)
		row[colPest] = cat.PestManagement
		row[colPlantTime] = cat.PlantTime
		row[colCrop] = cat.CropHarvested
		row[colWaterTemp] = formatFloat(num.WaterTemperature) + "C"
		row[colColour] = cat.HarvestColour
		row[colSupplier] = cat.SeedSupplier
		row[colSeason] = cat.Season
		row[colDistance] = formatFloat(num.DistanceToRetailer) + "km"
		row[colYield] = formatFloat(num.HarvestYield) + "%"
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteNeighbors writes one row per neighbor in ascending query ID order.
// Ranks start at 1. Queries with short lists get only their real neighbors.
func WriteNeighbors(w io.Writer, results index.Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NeighborHeader); err != nil {
		return err
	}

	row := make([]string, len(NeighborHeader))
	for _, qid := range results.QueryIDs() {
		row[0] = strconv.FormatUint(uint64(qid), 10)
		for rank, n := range results[qid] {
			row[1] = strconv.Itoa(rank + 1)
			row[2] = strconv.FormatUint(uint64(n.ID()), 10)
			row[3] = formatFloat(n.Distance)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRecordsFile writes records to path, compressing by suffix.
func WriteRecordsFile(path string, records []model.Record) error {
	return writeFile(path, func(w io.Writer) error { return WriteRecords(w, records) })
}

// WriteNeighborsFile writes a neighbor report to path, compressing by suffix.
func WriteNeighborsFile(path string, results index.Results) error {
	return writeFile(path, func(w io.Writer) error { return WriteNeighbors(w, results) })
}

func writeFile(path string, fn func(w io.Writer) error) (err error) {
	wc, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(wc)
}
