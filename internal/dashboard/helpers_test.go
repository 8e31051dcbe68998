package dashboard

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/monitoring"
)

func f64(v float64) *float64 { return &v }

func box(lon, lat, size float64) orb.Polygon {
	return orb.Polygon{{{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat}}}
}

// scenarioDataset: BRA 2010 and 2011, IDN 2010 only, ATA never.
func scenarioDataset(t testing.TB) *dataset.Dataset {
	t.Helper()
	boundaries := []dataset.CountryBoundary{
		{SovereignISO: "BRA", SovereignName: "Brazil", Geometry: box(-60, -20, 20)},
		{SovereignISO: "IDN", SovereignName: "Indonesia", Geometry: box(110, -10, 20)},
		{SovereignISO: "ATA", SovereignName: "Antarctica", Geometry: box(-180, -90, 30)},
	}
	records := []dataset.LossRecord{
		{ISO: "BRA", Year: 2010, HectaresLost: f64(100), CO2EmissionsMg: f64(50)},
		{ISO: "BRA", Year: 2011, HectaresLost: f64(200), CO2EmissionsMg: f64(90)},
		{ISO: "IDN", Year: 2010, HectaresLost: f64(80), CO2EmissionsMg: f64(40)},
	}
	ds, err := dataset.New(boundaries, records)
	require.NoError(t, err)
	return ds
}

func datasetOf(t testing.TB, records []dataset.LossRecord) *dataset.Dataset {
	t.Helper()
	boundaries := []dataset.CountryBoundary{
		{SovereignISO: "BRA", SovereignName: "Brazil", Geometry: box(-60, -20, 20)},
		{SovereignISO: "IDN", SovereignName: "Indonesia", Geometry: box(110, -10, 20)},
	}
	ds, err := dataset.New(boundaries, records)
	require.NoError(t, err)
	return ds
}

func quietLogs(t testing.TB) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

// echartsOption is the subset of an ECharts option the tests inspect.
type echartsOption struct {
	Title struct {
		Text    string `json:"text"`
		Subtext string `json:"subtext"`
	} `json:"title"`
	XAxis []struct {
		Type string        `json:"type"`
		Data []interface{} `json:"data"`
	} `json:"xAxis"`
	Series []struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Data []struct {
			Name  string      `json:"name"`
			Value interface{} `json:"value"`
		} `json:"data"`
	} `json:"series"`
}

func parseOption(t testing.TB, raw json.RawMessage) echartsOption {
	t.Helper()
	var o echartsOption
	require.NoError(t, json.Unmarshal(raw, &o), "option: %s", raw)
	return o
}

type leafletView struct {
	Center      [2]float64 `json:"center"`
	Zoom        int        `json:"zoom"`
	Color       string     `json:"color"`
	FillColor   string     `json:"fillColor"`
	FillOpacity float64    `json:"fillOpacity"`
	Markers     []Marker   `json:"markers"`
}

func parseMap(t testing.TB, raw json.RawMessage) leafletView {
	t.Helper()
	var v leafletView
	require.NoError(t, json.Unmarshal(raw, &v), "map: %s", raw)
	return v
}

func setLogger(t testing.TB, sink *[]string) {
	var mu sync.Mutex
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		*sink = append(*sink, fmt.Sprintf(format, args...))
	})
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}
