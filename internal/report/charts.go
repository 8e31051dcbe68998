package report

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/treecover.report/internal/dashboard"
)

var barColor = color.RGBA{R: 84, G: 112, B: 198, A: 255}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func placeLegend(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

// barPlot draws one bar per country. Missing values draw as empty bars so
// the country keeps its slot on the axis.
func barPlot(d dashboard.BarData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Deforestation in %d", d.Year)
	p.X.Label.Text = "Country"
	p.Y.Label.Text = "Tree cover loss (ha)"

	if len(d.Bars) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(d.Bars))
	names := make([]string, len(d.Bars))
	for i, b := range d.Bars {
		names[i] = b.ISO
		if b.Hectares != nil && finite(*b.Hectares) {
			values[i] = *b.Hectares
		}
	}

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// linePlot draws every country's trend. A missing year breaks the line
// into separate segments.
func linePlot(d dashboard.LineData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Deforestation Trends Over Time"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Tree cover loss (ha)"
	p.X.Tick.Marker = yearTicks(d.Years)

	colors := palette(len(d.Series))
	for i, s := range d.Series {
		var legend bool
		for _, seg := range segments(s.Points) {
			line, points, err := plotter.NewLinePoints(seg)
			if err != nil {
				return nil, fmt.Errorf("line %s: %w", s.ISO, err)
			}
			line.Color = colors[i]
			line.Width = vg.Points(1)
			points.GlyphStyle.Color = colors[i]
			points.GlyphStyle.Shape = draw.CircleGlyph{}
			points.GlyphStyle.Radius = vg.Points(2)
			p.Add(line, points)
			if !legend {
				p.Legend.Add(s.ISO, line)
				legend = true
			}
		}
	}
	placeLegend(p)
	return p, nil
}

// segments splits a series at missing or non-finite values.
func segments(points []dashboard.LinePoint) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for _, pt := range points {
		if pt.Hectares == nil || !finite(*pt.Hectares) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(pt.Year), Y: *pt.Hectares})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// yearTicks labels each data year without fractional ticks.
func yearTicks(years []int) plot.Ticker {
	ticks := make(plot.ConstantTicks, len(years))
	for i, y := range years {
		ticks[i] = plot.Tick{Value: float64(y), Label: strconv.Itoa(y)}
	}
	return ticks
}

// scatterPlot draws emissions against loss, one colour per country.
func scatterPlot(d dashboard.ScatterData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "CO2 Emissions vs. Tree Cover Loss"
	if d.Correlation != nil {
		p.Title.Text += fmt.Sprintf("\nPearson r = %.3f (n = %d)", *d.Correlation, d.PointCount())
	}
	p.X.Label.Text = "Tree cover loss (ha)"
	p.Y.Label.Text = "CO2 emissions (Mg)"

	colors := palette(len(d.Series))
	for i, s := range d.Series {
		xys := make(plotter.XYs, 0, len(s.Points))
		for _, pt := range s.Points {
			if finite(pt.Hectares) && finite(pt.CO2) {
				xys = append(xys, plotter.XY{X: pt.Hectares, Y: pt.CO2})
			}
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("scatter %s: %w", s.ISO, err)
		}
		sc.GlyphStyle.Color = colors[i]
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add(s.ISO, sc)
	}
	placeLegend(p)
	return p, nil
}
