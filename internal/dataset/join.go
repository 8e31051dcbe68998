package dataset

import (
	"sort"
	"strings"
)

// Join left-joins records onto boundaries by SovereignISO == ISO (exact,
// case-sensitive). Every boundary yields one row per distinct record year,
// with a nil Loss where the country has no record for that year. With no
// records at all each boundary yields a single Year 0 row. Records whose ISO
// matches no boundary are not represented. Rows are ordered by boundary,
// then year. Records are expected to be unique per (ISO, Year); see
// DedupeRecords.
func Join(boundaries []CountryBoundary, records []LossRecord) ([]JoinedRow, error) {
	type key struct {
		iso  string
		year int
	}
	index := make(map[key]int, len(records))
	yearSet := make(map[int]struct{})
	for i, r := range records {
		if err := checkKey(r.ISO); err != nil {
			return nil, err
		}
		index[key{r.ISO, r.Year}] = i
		yearSet[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) == 0 {
		years = []int{0}
	}

	rows := make([]JoinedRow, 0, len(boundaries)*len(years))
	for i := range boundaries {
		b := &boundaries[i]
		if err := checkKey(b.SovereignISO); err != nil {
			return nil, err
		}
		for _, y := range years {
			row := JoinedRow{Boundary: b, Year: y}
			if at, ok := index[key{b.SovereignISO, y}]; ok {
				row.Loss = &records[at]
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func checkKey(k string) error {
	if strings.TrimSpace(k) == "" {
		return &JoinError{Key: k, Reason: "empty or blank country code"}
	}
	return nil
}
