package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Axis labels shared by the three charts.
const (
	hectaresLabel = "Tree Cover Loss (ha)"
	co2Label      = "CO2 Emissions (Mg)"
	countryLabel  = "Country"
	yearLabel     = "Year"
)

// ErrNonFinite is wrapped by a RenderError when a plotted value is NaN or
// infinite.
var ErrNonFinite = errors.New("non-finite value")

// RenderError reports that one artifact could not be drawn. The other
// artifacts of the same update are unaffected.
type RenderError struct {
	Artifact string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Artifact, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func nonFinite(artifact, what string, v float64) error {
	return &RenderError{Artifact: artifact, Err: fmt.Errorf("%w: %s = %v", ErrNonFinite, what, v)}
}

// optionJSON turns a chart's escaped-free option dump into a RawMessage,
// rejecting the empty output the encoder leaves behind on failure.
func optionJSON(artifact string, option template.HTML) (json.RawMessage, error) {
	raw := json.RawMessage(option)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, &RenderError{Artifact: artifact, Err: errors.New("chart option did not encode")}
	}
	return raw, nil
}

// RenderBar draws the per-year loss bar chart and returns its ECharts
// option. Absent values are drawn as "-", which ECharts leaves empty.
func RenderBar(d BarData) (json.RawMessage, error) {
	x := make([]string, len(d.Bars))
	values := make([]opts.BarData, len(d.Bars))
	for i, b := range d.Bars {
		x[i] = b.ISO
		values[i] = opts.BarData{Name: b.ISO, Value: "-"}
		if b.Hectares != nil {
			if !finite(*b.Hectares) {
				return nil, nonFinite(BarChartID, b.ISO+" hectares", *b.Hectares)
			}
			values[i].Value = *b.Hectares
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: BarChartID}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Deforestation in %d", d.Year)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Name: countryLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: hectaresLabel, NameLocation: "middle", NameGap: 70}),
	)
	bar.SetXAxis(x).AddSeries(hectaresLabel, values)
	bar.Validate()
	return optionJSON(BarChartID, bar.JSONNotEscaped())
}

// RenderLine draws the all-years trend chart, one series per country.
func RenderLine(d LineData) (json.RawMessage, error) {
	x := make([]string, len(d.Years))
	index := make(map[int]int, len(d.Years))
	for i, y := range d.Years {
		x[i] = strconv.Itoa(y)
		index[y] = i
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: LineChartID}),
		charts.WithTitleOpts(opts.Title{Title: "Deforestation Trends Over Time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Name: yearLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: hectaresLabel, NameLocation: "middle", NameGap: 70}),
	)
	line.SetXAxis(x)

	for _, s := range d.Series {
		values := make([]opts.LineData, len(d.Years))
		for i := range values {
			values[i] = opts.LineData{Value: "-"}
		}
		for _, p := range s.Points {
			i, ok := index[p.Year]
			if !ok {
				return nil, &RenderError{Artifact: LineChartID, Err: fmt.Errorf("%s: year %d not on axis", s.ISO, p.Year)}
			}
			if p.Hectares == nil {
				continue
			}
			if !finite(*p.Hectares) {
				return nil, nonFinite(LineChartID, fmt.Sprintf("%s %d hectares", s.ISO, p.Year), *p.Hectares)
			}
			values[i] = opts.LineData{Value: *p.Hectares}
		}
		line.AddSeries(s.ISO, values,
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(false), ShowSymbol: opts.Bool(true)}),
		)
	}
	line.Validate()
	return optionJSON(LineChartID, line.JSONNotEscaped())
}

// RenderScatter draws emissions against loss for one year, one series per
// country so each country gets its own colour.
func RenderScatter(d ScatterData) (json.RawMessage, error) {
	subtitle := ""
	if d.Correlation != nil {
		subtitle = fmt.Sprintf("Pearson r = %.3f (n = %d)", *d.Correlation, d.PointCount())
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: ScatterChartID}),
		charts.WithTitleOpts(opts.Title{Title: "CO2 Emissions vs. Tree Cover Loss", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: hectaresLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: co2Label, NameLocation: "middle", NameGap: 70}),
	)

	for _, s := range d.Series {
		values := make([]opts.ScatterData, len(s.Points))
		for i, p := range s.Points {
			if !finite(p.Hectares) {
				return nil, nonFinite(ScatterChartID, s.ISO+" hectares", p.Hectares)
			}
			if !finite(p.CO2) {
				return nil, nonFinite(ScatterChartID, s.ISO+" emissions", p.CO2)
			}
			values[i] = opts.ScatterData{Name: s.ISO, Value: []float64{p.Hectares, p.CO2}}
		}
		scatter.AddSeries(s.ISO, values, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	}
	scatter.Validate()
	return optionJSON(ScatterChartID, scatter.JSONNotEscaped())
}
