// Package dataset loads the tree-cover loss table and the country boundary
// layer, joins them, and holds the result as an immutable Dataset shared by
// every request.
package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/banshee-data/treecover.report/internal/config"
	"github.com/banshee-data/treecover.report/internal/fsutil"
	"github.com/banshee-data/treecover.report/internal/monitoring"
)

// LossRecord is one row of the loss table. Nil pointers are absent values,
// never zero.
type LossRecord struct {
	ISO            string
	Year           int
	HectaresLost   *float64
	CO2EmissionsMg *float64
}

// CountryBoundary is one feature of the boundary layer. Geometry is an
// orb.Polygon or orb.MultiPolygon.
type CountryBoundary struct {
	SovereignISO  string
	SovereignName string
	Geometry      orb.Geometry
}

// JoinedRow pairs a boundary with its loss record for one year. Loss is nil
// when the country has no record for Year.
type JoinedRow struct {
	Boundary *CountryBoundary
	Year     int
	Loss     *LossRecord
}

// Dataset is the loaded and joined data. It is never mutated after New
// returns, so it can be read from any goroutine.
type Dataset struct {
	records    []LossRecord
	boundaries []CountryBoundary
	rows       []JoinedRow
	years      []int
	byYear     map[int][]LossRecord
}

// New joins boundaries and records and indexes the result.
func New(boundaries []CountryBoundary, records []LossRecord) (*Dataset, error) {
	ds := &Dataset{
		records:    records,
		boundaries: boundaries,
		byYear:     make(map[int][]LossRecord),
	}
	for _, r := range records {
		if _, ok := ds.byYear[r.Year]; !ok {
			ds.years = append(ds.years, r.Year)
		}
		ds.byYear[r.Year] = append(ds.byYear[r.Year], r)
	}
	sort.Ints(ds.years)

	rows, err := Join(ds.boundaries, ds.records)
	if err != nil {
		return nil, err
	}
	ds.rows = rows
	return ds, nil
}

// Options locates and describes the two input files.
type Options struct {
	LossPath        string
	BoundaryPath    string
	LossColumns     config.LossColumns
	BoundaryColumns config.BoundaryColumns
	DuplicatePolicy config.DuplicatePolicy
}

// OptionsFromConfig fills Options from a dashboard config.
func OptionsFromConfig(cfg *config.DashboardConfig) Options {
	return Options{
		LossPath:        cfg.GetLossPath(),
		BoundaryPath:    cfg.GetBoundaryPath(),
		LossColumns:     cfg.GetLossColumns(),
		BoundaryColumns: cfg.GetBoundaryColumns(),
		DuplicatePolicy: cfg.GetDuplicatePolicy(),
	}
}

// Load reads both inputs, applies the duplicate policy and joins them.
func Load(fsys fsutil.FileSystem, opts Options) (*Dataset, error) {
	records, err := LoadLossRecords(fsys, opts.LossPath, opts.LossColumns)
	if err != nil {
		return nil, err
	}
	records, err = DedupeRecords(records, opts.DuplicatePolicy)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = opts.LossPath
		}
		return nil, err
	}
	boundaries, err := LoadBoundaries(fsys, opts.BoundaryPath, opts.BoundaryColumns)
	if err != nil {
		return nil, err
	}

	ds, err := New(boundaries, records)
	if err != nil {
		return nil, fmt.Errorf("join %s with %s: %w", opts.BoundaryPath, opts.LossPath, err)
	}
	monitoring.Logf("loaded %d loss records over %d years and %d boundaries (%d joined rows)",
		len(ds.records), len(ds.years), len(ds.boundaries), len(ds.rows))
	return ds, nil
}

// Records returns every loss record in file order.
func (d *Dataset) Records() []LossRecord { return d.records }

// Boundaries returns every boundary in file order.
func (d *Dataset) Boundaries() []CountryBoundary { return d.boundaries }

// Rows returns the joined rows ordered by boundary, then year.
func (d *Dataset) Rows() []JoinedRow { return d.rows }

// Years returns the sorted distinct years of the loss table.
func (d *Dataset) Years() []int { return d.years }

// HasYear reports whether year occurs in the loss table.
func (d *Dataset) HasYear(year int) bool {
	_, ok := d.byYear[year]
	return ok
}

// RecordsForYear returns the records for year in file order.
func (d *Dataset) RecordsForYear(year int) []LossRecord {
	return d.byYear[year]
}

// RowsForYear returns the joined rows for year, one per boundary.
func (d *Dataset) RowsForYear(year int) []JoinedRow {
	var out []JoinedRow
	for _, r := range d.rows {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}
