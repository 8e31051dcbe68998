package debugdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/treecover.report/internal/dataset"
)

func f64(v float64) *float64 { return &v }

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	square := func(lon, lat float64) orb.Polygon {
		return orb.Polygon{{{lon, lat}, {lon + 20, lat}, {lon + 20, lat + 20}, {lon, lat + 20}, {lon, lat}}}
	}
	boundaries := []dataset.CountryBoundary{
		{SovereignISO: "BRA", SovereignName: "Brazil", Geometry: square(-60, -20)},
		{SovereignISO: "IDN", SovereignName: "Indonesia", Geometry: orb.MultiPolygon{square(110, -10)}},
	}
	records := []dataset.LossRecord{
		{ISO: "BRA", Year: 2010, HectaresLost: f64(100), CO2EmissionsMg: f64(50)},
		{ISO: "IDN", Year: 2010, HectaresLost: f64(80)},
		{ISO: "BRA", Year: 2011, HectaresLost: f64(200), CO2EmissionsMg: f64(90)},
	}
	ds, err := dataset.New(boundaries, records)
	require.NoError(t, err)
	return ds
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_Migrates(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestMirror(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ds := testDataset(t)

	require.NoError(t, db.Mirror(ctx, ds))
	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"countries": 2, "loss_records": 3, "joined_rows": 4}, counts)

	// Mirroring replaces rather than appends.
	require.NoError(t, db.Mirror(ctx, ds))
	again, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, counts, again)

	var kind string
	var lat, lon float64
	require.NoError(t, db.QueryRow(`SELECT geometry_type, centroid_lat, centroid_lon FROM countries WHERE iso = 'BRA'`).Scan(&kind, &lat, &lon))
	assert.Equal(t, "Polygon", kind)
	assert.InDelta(t, -10, lat, 1e-9)
	assert.InDelta(t, -50, lon, 1e-9)

	var co2 sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT co2_emissions_mg FROM loss_records WHERE iso = 'IDN'`).Scan(&co2))
	assert.False(t, co2.Valid)

	// IDN has no 2011 record, so its joined row carries NULL loss.
	var ha sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT hectares_lost FROM joined_rows WHERE iso = 'IDN' AND year = 2011`).Scan(&ha))
	assert.False(t, ha.Valid)
}

func TestMirror_CancelledContext(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.Mirror(ctx, testDataset(t)))
}

func TestAttachAdminRoutes(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Mirror(context.Background(), testDataset(t)))

	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/mirror", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var counts map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 2, counts["countries"])

	req = httptest.NewRequest(http.MethodGet, "/debug/", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tailsql")
}
