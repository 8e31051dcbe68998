// Package testutil provides shared test helpers and the small loss and
// boundary fixtures used across package tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/treecover.report/internal/fsutil"
)

// Fixture paths inside the filesystem returned by SampleFS.
const (
	LossPath     = "data/loss.csv"
	BoundaryPath = "data/countries.geojson"
)

// LossCSV has two years for BRA and IDN, an absent hectare value for IDN in
// 2011 and a ZZZ record with no matching boundary.
const LossCSV = `iso,umd_tree_cover_loss__year,umd_tree_cover_loss__ha,gfw_gross_emissions_co2e_all_gases__Mg
BRA,2010,1500000,900000
IDN,2010,800000,600000
ZZZ,2010,1000,50
BRA,2011,1200000,700000
IDN,2011,,500000
`

// BoundariesGeoJSON holds axis-aligned boxes for BRA, IDN and ATA.
// Centroids: BRA (-50,-10), IDN (120,-5), ATA (0,-75).
const BoundariesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"SOV_A3": "BRA", "SOVEREIGNT": "Brazil"},
     "geometry": {"type": "Polygon", "coordinates": [[[-60,-20],[-40,-20],[-40,0],[-60,0],[-60,-20]]]}},
    {"type": "Feature",
     "properties": {"SOV_A3": "IDN", "SOVEREIGNT": "Indonesia"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[110,-10],[130,-10],[130,0],[110,0],[110,-10]]]]}},
    {"type": "Feature",
     "properties": {"SOV_A3": "ATA", "SOVEREIGNT": "Antarctica"},
     "geometry": {"type": "Polygon", "coordinates": [[[-180,-90],[180,-90],[180,-60],[-180,-60],[-180,-90]]]}}
  ]
}`

// SampleFS returns an in-memory filesystem holding LossCSV and
// BoundariesGeoJSON at LossPath and BoundaryPath.
func SampleFS(t testing.TB) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	AssertNoError(t, fsys.WriteFile(LossPath, []byte(LossCSV), 0o644))
	AssertNoError(t, fsys.WriteFile(BoundaryPath, []byte(BoundariesGeoJSON), 0o644))
	return fsys
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
