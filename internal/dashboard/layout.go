package dashboard

import (
	"errors"
	"sort"
	"strconv"

	"github.com/banshee-data/treecover.report/internal/dataset"
)

// Element ids of the page slots. The page script and the update response
// both address artifacts by these ids.
const (
	BarChartID     = "deforestation-bar-chart"
	LineChartID    = "deforestation-line-chart"
	ScatterChartID = "co2-deforestation-scatter"
	SliderID       = "year-slider"
	MapID          = "map"
)

var (
	// ErrNoYears is returned by NewLayout when the loss table is empty and
	// the slider would have no stops.
	ErrNoYears = errors.New("dataset has no years")
	// ErrUnknownYear is returned for a year that is not a slider stop.
	ErrUnknownYear = errors.New("year is not a slider stop")
)

// Slider is the year control. Its positions index into Stops, so only stop
// values can be selected.
type Slider struct {
	ID    string
	Label string
	Stops []int
	Value int
}

// Min returns the first stop.
func (s Slider) Min() int { return s.Stops[0] }

// Max returns the last stop.
func (s Slider) Max() int { return s.Stops[len(s.Stops)-1] }

// Index returns the position of year in Stops, or -1.
func (s Slider) Index(year int) int {
	i := sort.SearchInts(s.Stops, year)
	if i < len(s.Stops) && s.Stops[i] == year {
		return i
	}
	return -1
}

// Marks returns the stop labels in order.
func (s Slider) Marks() []string {
	out := make([]string, len(s.Stops))
	for i, y := range s.Stops {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// Layout is the static page structure, built once from the dataset.
type Layout struct {
	Title    string
	ChartIDs []string
	Slider   Slider
	MapID    string
}

// NewLayout builds the page layout. The slider stops are the distinct years
// of the loss table and the initial value is the earliest one.
func NewLayout(ds *dataset.Dataset, title string) (*Layout, error) {
	years := ds.Years()
	if len(years) == 0 {
		return nil, ErrNoYears
	}
	stops := make([]int, len(years))
	copy(stops, years)

	return &Layout{
		Title:    title,
		ChartIDs: []string{BarChartID, LineChartID, ScatterChartID},
		Slider: Slider{
			ID:    SliderID,
			Label: "Select Year:",
			Stops: stops,
			Value: stops[0],
		},
		MapID: MapID,
	}, nil
}

// ValidYear reports whether year is a slider stop.
func (l *Layout) ValidYear(year int) bool {
	return l.Slider.Index(year) >= 0
}

// InitialYear is the slider's starting value.
func (l *Layout) InitialYear() int { return l.Slider.Value }
