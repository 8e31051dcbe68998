package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/treecover.report/internal/dashboard"
	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/units"
)

// Sheet names. The year sheets get the year appended.
const (
	LossSheet    = "Loss"
	MarkersSheet = "Markers"
	TotalsSheet  = "Totals"
)

// CountryTotal summarises one country across every year of the loss table.
// Sums and means cover only the years where the value is present.
type CountryTotal struct {
	ISO          string
	Name         string
	Years        int
	Hectares     float64
	CO2          float64
	MeanHectares float64
	PeakYear     int
}

// Totals aggregates the loss table per country, in order of first
// appearance. Name is empty for countries without a boundary.
func Totals(ds *dataset.Dataset) []CountryTotal {
	type acc struct {
		ha, co2  []float64
		years    int
		peak     float64
		peakYear int
	}
	names := boundaryNames(ds)
	var order []string
	byISO := make(map[string]*acc)
	for _, r := range ds.Records() {
		a, ok := byISO[r.ISO]
		if !ok {
			a = &acc{}
			byISO[r.ISO] = a
			order = append(order, r.ISO)
		}
		a.years++
		if r.HectaresLost != nil && finite(*r.HectaresLost) {
			v := *r.HectaresLost
			if len(a.ha) == 0 || v > a.peak {
				a.peak, a.peakYear = v, r.Year
			}
			a.ha = append(a.ha, v)
		}
		if r.CO2EmissionsMg != nil && finite(*r.CO2EmissionsMg) {
			a.co2 = append(a.co2, *r.CO2EmissionsMg)
		}
	}

	out := make([]CountryTotal, 0, len(order))
	for _, iso := range order {
		a := byISO[iso]
		t := CountryTotal{
			ISO:      iso,
			Name:     names[iso],
			Years:    a.years,
			Hectares: floats.Sum(a.ha),
			CO2:      floats.Sum(a.co2),
			PeakYear: a.peakYear,
		}
		if len(a.ha) > 0 {
			t.MeanHectares = stat.Mean(a.ha, nil)
		}
		out = append(out, t)
	}
	return out
}

func boundaryNames(ds *dataset.Dataset) map[string]string {
	names := make(map[string]string)
	for _, b := range ds.Boundaries() {
		if _, ok := names[b.SovereignISO]; !ok {
			names[b.SovereignISO] = b.SovereignName
		}
	}
	return names
}

// sheetWriter writes rows to one sheet, leaving nil cells blank.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) header(style int, widths []float64, cols ...string) error {
	if err := w.write(toCells(cols)...); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, "A1", last+"1", style); err != nil {
		return err
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(w.sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) write(cells ...interface{}) error {
	w.row++
	for i, v := range cells {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			return fmt.Errorf("%s!%s: %w", w.sheet, cell, err)
		}
	}
	return nil
}

func toCells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// cell turns an optional value into a cell, nil when absent.
func cell(v *float64) interface{} {
	if v == nil || !finite(*v) {
		return nil
	}
	return *v
}

// buildWorkbook lays out the year's records, its map markers and the
// all-years country totals on three sheets.
func buildWorkbook(ds *dataset.Dataset, year int, markers dashboard.MapData, areaUnit string) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	lossSheet := LossSheet + " " + strconv.Itoa(year)
	if err := f.SetSheetName("Sheet1", lossSheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{MarkersSheet + " " + strconv.Itoa(year), TotalsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := writeLoss(f, lossSheet, bold, ds, year); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeMarkers(f, MarkersSheet+" "+strconv.Itoa(year), bold, markers); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeTotals(f, TotalsSheet, bold, Totals(ds), areaUnit); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeLoss(f *excelize.File, sheet string, style int, ds *dataset.Dataset, year int) error {
	w := &sheetWriter{f: f, sheet: sheet}
	if err := w.header(style, []float64{8, 28, 8, 18, 20}, "ISO", "Country", "Year", "Tree cover loss (ha)", "CO2 emissions (Mg)"); err != nil {
		return err
	}
	names := boundaryNames(ds)
	for _, r := range ds.RecordsForYear(year) {
		if err := w.write(r.ISO, names[r.ISO], r.Year, cell(r.HectaresLost), cell(r.CO2EmissionsMg)); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkers(f *excelize.File, sheet string, style int, d dashboard.MapData) error {
	w := &sheetWriter{f: f, sheet: sheet}
	if err := w.header(style, []float64{8, 28, 12, 12, 18, 12}, "ISO", "Country", "Latitude", "Longitude", "Tree cover loss (ha)", "Radius"); err != nil {
		return err
	}
	for _, m := range d.Markers {
		if err := w.write(m.ISO, m.Name, m.Lat, m.Lon, m.Hectares, cell(&m.Radius)); err != nil {
			return err
		}
	}
	return nil
}

// writeTotals adds the total loss in areaUnit as the last column.
func writeTotals(f *excelize.File, sheet string, style int, totals []CountryTotal, areaUnit string) error {
	w := &sheetWriter{f: f, sheet: sheet}
	if err := w.header(style, []float64{8, 28, 10, 20, 20, 20, 10, 20},
		"ISO", "Country", "Years", "Total loss (ha)", "Total CO2 (Mg)", "Mean loss (ha)", "Peak year",
		"Total loss ("+units.Label(areaUnit)+")"); err != nil {
		return err
	}
	for _, t := range totals {
		var peak interface{}
		if t.PeakYear != 0 {
			peak = t.PeakYear
		}
		if err := w.write(t.ISO, t.Name, t.Years, t.Hectares, t.CO2, t.MeanHectares, peak, units.ConvertArea(t.Hectares, areaUnit)); err != nil {
			return err
		}
	}
	return nil
}
