package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/treecover.report/internal/config"
	"github.com/banshee-data/treecover.report/internal/fsutil"
)

// LoadLossRecords reads the loss CSV at path. The header row must contain
// every column named in cols; other columns are ignored. Empty or NaN cells
// in the hectare and emission columns load as nil.
func LoadLossRecords(fsys fsutil.FileSystem, path string, cols config.LossColumns) ([]LossRecord, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty file")
		}
		return nil, csvLoadError(path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	var pos struct{ iso, year, ha, co2 int }
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{cols.ISO, &pos.iso},
		{cols.Year, &pos.year},
		{cols.Hectares, &pos.ha},
		{cols.CO2, &pos.co2},
	} {
		i, ok := index[c.name]
		if !ok {
			return nil, &LoadError{Path: path, Line: 1, Column: c.name, Err: ErrMissingColumn}
		}
		*c.dst = i
	}

	var records []LossRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvLoadError(path, err)
		}
		line, _ := r.FieldPos(0)

		year, err := strconv.Atoi(strings.TrimSpace(row[pos.year]))
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: cols.Year, Err: err}
		}
		ha, err := parseOptionalFloat(row[pos.ha])
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: cols.Hectares, Err: err}
		}
		co2, err := parseOptionalFloat(row[pos.co2])
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Column: cols.CO2, Err: err}
		}
		records = append(records, LossRecord{
			ISO:            row[pos.iso],
			Year:           year,
			HectaresLost:   ha,
			CO2EmissionsMg: co2,
		})
	}
	return records, nil
}

func csvLoadError(path string, err error) *LoadError {
	le := &LoadError{Path: path, Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		le.Line = pe.Line
	}
	return le
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

// DedupeRecords keeps one record per (ISO, Year). Survivors stay at the
// position of the key's first occurrence. DuplicateLast keeps the value of
// the last occurrence, DuplicateFirst the first, and DuplicateReject fails
// with a LoadError wrapping ErrDuplicateRecord.
func DedupeRecords(records []LossRecord, policy config.DuplicatePolicy) ([]LossRecord, error) {
	type key struct {
		iso  string
		year int
	}
	seen := make(map[key]int, len(records))
	out := make([]LossRecord, 0, len(records))
	for i, r := range records {
		k := key{r.ISO, r.Year}
		at, dup := seen[k]
		if !dup {
			seen[k] = len(out)
			out = append(out, r)
			continue
		}
		switch policy {
		case config.DuplicateFirst:
		case config.DuplicateReject:
			return nil, &LoadError{
				Err: fmt.Errorf("%w: %s %d (record %d)", ErrDuplicateRecord, r.ISO, r.Year, i+1),
			}
		default:
			out[at] = r
		}
	}
	return out, nil
}
