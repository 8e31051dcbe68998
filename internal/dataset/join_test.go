package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
}

func scenarioBoundaries() []CountryBoundary {
	return []CountryBoundary{
		{SovereignISO: "BRA", SovereignName: "Brazil", Geometry: square(-60, -20, 20)},
		{SovereignISO: "IDN", SovereignName: "Indonesia", Geometry: square(110, -10, 20)},
		{SovereignISO: "ATA", SovereignName: "Antarctica", Geometry: square(-180, -90, 30)},
	}
}

func scenarioRecords() []LossRecord {
	return []LossRecord{
		{ISO: "BRA", Year: 2010, HectaresLost: f64(100), CO2EmissionsMg: f64(50)},
		{ISO: "BRA", Year: 2011, HectaresLost: f64(200), CO2EmissionsMg: f64(90)},
		{ISO: "IDN", Year: 2010, HectaresLost: f64(80), CO2EmissionsMg: f64(40)},
	}
}

type rowKey struct {
	ISO     string
	Year    int
	HasLoss bool
}

func keys(rows []JoinedRow) []rowKey {
	out := make([]rowKey, len(rows))
	for i, r := range rows {
		out[i] = rowKey{r.Boundary.SovereignISO, r.Year, r.Loss != nil}
	}
	return out
}

func TestJoin_Densified(t *testing.T) {
	rows, err := Join(scenarioBoundaries(), scenarioRecords())
	require.NoError(t, err)

	want := []rowKey{
		{"BRA", 2010, true},
		{"BRA", 2011, true},
		{"IDN", 2010, true},
		{"IDN", 2011, false},
		{"ATA", 2010, false},
		{"ATA", 2011, false},
	}
	if diff := cmp.Diff(want, keys(rows)); diff != "" {
		t.Fatalf("joined rows mismatch (-want +got):\n%s", diff)
	}

	for _, r := range rows {
		if r.Loss != nil {
			assert.Equal(t, r.Boundary.SovereignISO, r.Loss.ISO)
			assert.Equal(t, r.Year, r.Loss.Year)
		}
	}
}

func TestJoin_UnmatchedBoundaryNeverDropped(t *testing.T) {
	rows, err := Join(scenarioBoundaries(), scenarioRecords())
	require.NoError(t, err)

	var ata []JoinedRow
	for _, r := range rows {
		if r.Boundary.SovereignISO == "ATA" {
			ata = append(ata, r)
		}
	}
	require.Len(t, ata, 2, "one row per year")
	for _, r := range ata {
		assert.Nil(t, r.Loss)
	}
}

func TestJoin_NoRecords(t *testing.T) {
	rows, err := Join(scenarioBoundaries(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, 0, r.Year)
		assert.Nil(t, r.Loss)
	}
}

func TestJoin_CaseSensitiveAndUnmatchedRecords(t *testing.T) {
	records := []LossRecord{
		{ISO: "bra", Year: 2010, HectaresLost: f64(1)},
		{ISO: "ZZZ", Year: 2010, HectaresLost: f64(1)},
	}
	rows, err := Join(scenarioBoundaries()[:1], records)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Loss, "keys compare case-sensitively")
}

func TestJoin_BlankKey(t *testing.T) {
	_, err := Join(scenarioBoundaries(), []LossRecord{{ISO: "  ", Year: 2010}})
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "  ", je.Key)

	bs := scenarioBoundaries()
	bs[1].SovereignISO = ""
	_, err = Join(bs, scenarioRecords())
	require.ErrorAs(t, err, &je)
	assert.Contains(t, err.Error(), "blank")
}
