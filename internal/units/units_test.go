package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		assert.True(t, IsValid(u), u)
	}
	assert.False(t, IsValid("mph"))
	assert.False(t, IsValid(""))
	assert.Equal(t, "ha, km2, acre, sqmi", GetValidUnitsString())
}

func TestConvertArea(t *testing.T) {
	tests := []struct {
		unit string
		ha   float64
		want float64
	}{
		{HA, 250, 250},
		{KM2, 250, 2.5},
		{ACRE, 1, 2.47105381},
		{SQMI, 258.998811, 1},
		{"unknown", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConvertArea(tt.ha, tt.unit), 1e-9)
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "km²", Label(KM2))
	assert.Equal(t, "ha", Label(HA))
	assert.Equal(t, "ha", Label("bogus"))
}
