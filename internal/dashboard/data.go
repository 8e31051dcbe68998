package dashboard

import (
	"html"
	"math"
	"sort"
	"strconv"

	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/treecover.report/internal/dataset"
)

// Bar is one country's bar. A nil Hectares draws as an empty bar.
type Bar struct {
	ISO      string
	Hectares *float64
}

// BarData feeds the per-year bar chart.
type BarData struct {
	Year int
	Bars []Bar
}

// BuildBarData selects the records for year, one bar per country in order
// of first appearance.
func BuildBarData(records []dataset.LossRecord, year int) BarData {
	d := BarData{Year: year}
	at := make(map[string]int)
	for _, r := range records {
		if r.Year != year {
			continue
		}
		if i, ok := at[r.ISO]; ok {
			d.Bars[i].Hectares = r.HectaresLost
			continue
		}
		at[r.ISO] = len(d.Bars)
		d.Bars = append(d.Bars, Bar{ISO: r.ISO, Hectares: r.HectaresLost})
	}
	return d
}

// LinePoint is one year of one country's trend.
type LinePoint struct {
	Year     int
	Hectares *float64
}

// LineSeries is one country's trend, sorted by year.
type LineSeries struct {
	ISO    string
	Points []LinePoint
}

// LineData feeds the all-years trend chart. Years is the shared x axis.
type LineData struct {
	Years  []int
	Series []LineSeries
}

// PointCount is the number of plotted records across all series.
func (d LineData) PointCount() int {
	n := 0
	for _, s := range d.Series {
		n += len(s.Points)
	}
	return n
}

// BuildLineData groups every record by country, in order of first
// appearance.
func BuildLineData(records []dataset.LossRecord) LineData {
	var d LineData
	at := make(map[string]int)
	years := make(map[int]struct{})
	for _, r := range records {
		years[r.Year] = struct{}{}
		i, ok := at[r.ISO]
		if !ok {
			i = len(d.Series)
			at[r.ISO] = i
			d.Series = append(d.Series, LineSeries{ISO: r.ISO})
		}
		d.Series[i].Points = append(d.Series[i].Points, LinePoint{Year: r.Year, Hectares: r.HectaresLost})
	}
	for i := range d.Series {
		pts := d.Series[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Year < pts[b].Year })
	}
	for y := range years {
		d.Years = append(d.Years, y)
	}
	sort.Ints(d.Years)
	return d
}

// ScatterPoint is one country-year with both values present.
type ScatterPoint struct {
	Hectares float64
	CO2      float64
}

// ScatterSeries holds one country's points.
type ScatterSeries struct {
	ISO    string
	Points []ScatterPoint
}

// ScatterData feeds the emissions against loss chart. Correlation is the
// Pearson coefficient over all points, nil with fewer than two points or
// when it is undefined.
type ScatterData struct {
	Year        int
	Series      []ScatterSeries
	Dropped     int
	Correlation *float64
}

// PointCount is the number of plotted points across all series.
func (d ScatterData) PointCount() int {
	n := 0
	for _, s := range d.Series {
		n += len(s.Points)
	}
	return n
}

// BuildScatterData selects the records for year that have both hectares and
// emissions. Records missing either are counted in Dropped.
func BuildScatterData(records []dataset.LossRecord, year int) ScatterData {
	d := ScatterData{Year: year}
	at := make(map[string]int)
	var xs, ys []float64
	for _, r := range records {
		if r.Year != year {
			continue
		}
		if r.HectaresLost == nil || r.CO2EmissionsMg == nil {
			d.Dropped++
			continue
		}
		i, ok := at[r.ISO]
		if !ok {
			i = len(d.Series)
			at[r.ISO] = i
			d.Series = append(d.Series, ScatterSeries{ISO: r.ISO})
		}
		p := ScatterPoint{Hectares: *r.HectaresLost, CO2: *r.CO2EmissionsMg}
		d.Series[i].Points = append(d.Series[i].Points, p)
		xs = append(xs, p.Hectares)
		ys = append(ys, p.CO2)
	}
	if len(xs) >= 2 {
		c := stat.Correlation(xs, ys, nil)
		if !math.IsNaN(c) { // NaN when either axis is constant
			d.Correlation = &c
		}
	}
	return d
}

// Marker is one circle on the map.
type Marker struct {
	ISO      string  `json:"iso"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Hectares float64 `json:"hectares"`
	Radius   float64 `json:"radius"`
	Popup    string  `json:"popup"`
}

// MapData is the map view for one year.
type MapData struct {
	Year    int
	Center  [2]float64
	Zoom    int
	Markers []Marker
}

// Map view defaults: the whole world at zoom 2.
var (
	DefaultMapCenter = [2]float64{0, 0}
	DefaultMapZoom   = 2
)

// BuildMapData places a marker at the planar centroid of every boundary
// whose joined row for year carries a hectare value. The radius is
// Hectares/scale.
func BuildMapData(rows []dataset.JoinedRow, year int, scale float64) MapData {
	d := MapData{Year: year, Center: DefaultMapCenter, Zoom: DefaultMapZoom}
	for _, r := range rows {
		if r.Loss == nil || r.Loss.Year != year || r.Loss.HectaresLost == nil {
			continue
		}
		ha := *r.Loss.HectaresLost
		c, _ := planar.CentroidArea(r.Boundary.Geometry)
		d.Markers = append(d.Markers, Marker{
			ISO:      r.Boundary.SovereignISO,
			Name:     r.Boundary.SovereignName,
			Lat:      c.Lat(),
			Lon:      c.Lon(),
			Hectares: ha,
			Radius:   ha / scale,
			Popup:    html.EscapeString(r.Boundary.SovereignName) + ": " + formatHectares(ha) + " ha lost",
		})
	}
	return d
}

func formatHectares(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
