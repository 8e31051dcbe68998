package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is wrapped by a LoadError when a required CSV column
	// or boundary attribute is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrDuplicateRecord is wrapped by a LoadError when the reject policy
	// meets a second record for the same country and year.
	ErrDuplicateRecord = errors.New("duplicate record")
	// ErrUnsupportedFormat is returned for boundary files that are neither
	// GeoJSON nor shapefiles.
	ErrUnsupportedFormat = errors.New("unsupported boundary format")
)

// LoadError reports a failure to read or parse one of the input files.
// Line is the 1-based CSV line, or the 1-based feature or shape number for
// boundary files; zero when the failure is not tied to a row.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// JoinError reports a join key that cannot be compared.
type JoinError struct {
	Key    string
	Reason string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join key %q: %s", e.Key, e.Reason)
}
