// Package units provides shared constants and conversions for area units.
// The loss table stores areas in hectares.
package units

import "strings"

// Unit constants
const (
	HA   = "ha"
	KM2  = "km2"
	ACRE = "acre"
	SQMI = "sqmi"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{HA, KM2, ACRE, SQMI}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertArea converts an area in hectares to the target units.
func ConvertArea(hectares float64, targetUnits string) float64 {
	switch targetUnits {
	case KM2:
		return hectares / 100
	case ACRE:
		return hectares * 2.47105381
	case SQMI:
		return hectares / 258.998811
	default:
		return hectares
	}
}

// Label is the column heading suffix for unit.
func Label(unit string) string {
	switch unit {
	case KM2:
		return "km²"
	case ACRE:
		return "acres"
	case SQMI:
		return "sq mi"
	default:
		return "ha"
	}
}
