package dashboard

import (
	"encoding/json"
	"errors"
	"html/template"

	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/monitoring"
)

// Artifact is one rendered slot. Option is the ECharts option (charts) or
// the Leaflet view (map). When rendering failed Option is empty and Error
// carries the message shown in place of the artifact.
type Artifact struct {
	ID     string          `json:"id"`
	Option json.RawMessage `json:"option,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ErrorHTML is the inline replacement shown when the artifact failed.
func (a Artifact) ErrorHTML() template.HTML {
	if a.Error == "" {
		return ""
	}
	return template.HTML(`<div class="artifact-error">` + template.HTMLEscapeString(a.Error) + `</div>`)
}

// Artifacts is the complete response to one year change. All four are built
// before the value is returned, so a page never mixes years.
type Artifacts struct {
	Year    int      `json:"year"`
	Bar     Artifact `json:"bar"`
	Line    Artifact `json:"line"`
	Scatter Artifact `json:"scatter"`
	Map     Artifact `json:"map"`

	BarData     BarData     `json:"-"`
	LineData    LineData    `json:"-"`
	ScatterData ScatterData `json:"-"`
	MapData     MapData     `json:"-"`
}

// List returns the four artifacts in page order.
func (a *Artifacts) List() []Artifact {
	return []Artifact{a.Bar, a.Line, a.Scatter, a.Map}
}

// Updater answers year changes from an immutable dataset. It holds no state
// that changes between calls, so Update is idempotent and safe for
// concurrent use.
type Updater struct {
	ds          *dataset.Dataset
	markerScale float64
	lineData    LineData
	line        Artifact
}

// NewUpdater prepares an Updater. The trend chart does not depend on the
// selected year and is rendered once here.
func NewUpdater(ds *dataset.Dataset, markerScale float64) *Updater {
	u := &Updater{ds: ds, markerScale: markerScale}
	u.lineData = BuildLineData(ds.Records())
	u.line = artifact(LineChartID, func() (json.RawMessage, error) { return RenderLine(u.lineData) })
	return u
}

// Update filters the dataset to year and renders all four artifacts. A year
// without records yields four empty artifacts rather than an error.
func (u *Updater) Update(year int) *Artifacts {
	records := u.ds.Records()
	a := &Artifacts{
		Year:        year,
		BarData:     BuildBarData(records, year),
		LineData:    u.lineData,
		ScatterData: BuildScatterData(records, year),
		MapData:     BuildMapData(u.ds.Rows(), year, u.markerScale),
		Line:        u.line,
	}
	a.Bar = artifact(BarChartID, func() (json.RawMessage, error) { return RenderBar(a.BarData) })
	a.Scatter = artifact(ScatterChartID, func() (json.RawMessage, error) { return RenderScatter(a.ScatterData) })
	a.Map = artifact(MapID, func() (json.RawMessage, error) { return RenderMap(a.MapData) })
	monitoring.Debugf("update year=%d bars=%d scatter=%d markers=%d",
		year, len(a.BarData.Bars), a.ScatterData.PointCount(), len(a.MapData.Markers))
	return a
}

// artifact runs render and converts a RenderError into an inline error.
// Any other error is also contained to the one artifact.
func artifact(id string, render func() (json.RawMessage, error)) Artifact {
	raw, err := render()
	if err == nil {
		return Artifact{ID: id, Option: raw}
	}
	var re *RenderError
	if !errors.As(err, &re) {
		re = &RenderError{Artifact: id, Err: err}
	}
	monitoring.Logf("dashboard: %v", re)
	return Artifact{ID: id, Error: re.Error()}
}
