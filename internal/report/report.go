// Package report writes a static snapshot of the dashboard for one year:
// the bar, trend and scatter charts as PNG images and an XLSX workbook with
// the year's rows, its map markers and per-country totals.
package report

import (
	"errors"
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/treecover.report/internal/dashboard"
	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/fsutil"
	"github.com/banshee-data/treecover.report/internal/monitoring"
	"github.com/banshee-data/treecover.report/internal/security"
	"github.com/banshee-data/treecover.report/internal/units"
)

// Output file prefixes.
const (
	BarPrefix      = "deforestation_bar"
	LinePrefix     = "deforestation_trend"
	ScatterPrefix  = "co2_vs_loss"
	WorkbookPrefix = "treecover"
)

// Default image size.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// Options controls one export.
type Options struct {
	OutputDir   string
	Year        int
	MarkerScale float64
	Width       vg.Length
	Height      vg.Length

	// AreaUnit is the extra unit of the totals sheet; units.KM2 when empty.
	AreaUnit string

	// AllowedDirs extends the directories OutputDir may live under, beyond
	// the working and temp directories.
	AllowedDirs []string
}

// Result lists the files written, in write order.
type Result struct {
	Year  int
	Files []string
}

// Export renders the charts and workbook for opts.Year into opts.OutputDir.
// The year must occur in the loss table.
func Export(fsys fsutil.FileSystem, ds *dataset.Dataset, opts Options) (*Result, error) {
	if ds == nil {
		return nil, errors.New("report: nil dataset")
	}
	if !ds.HasYear(opts.Year) {
		return nil, fmt.Errorf("report: %w: %d", dashboard.ErrUnknownYear, opts.Year)
	}
	if opts.AreaUnit == "" {
		opts.AreaUnit = units.KM2
	}
	if !units.IsValid(opts.AreaUnit) {
		return nil, fmt.Errorf("report: invalid area unit %q (valid: %s)", opts.AreaUnit, units.GetValidUnitsString())
	}
	if err := security.ValidateOutputDir(opts.OutputDir, opts.AllowedDirs...); err != nil {
		return nil, fmt.Errorf("report: output directory: %w", err)
	}
	if err := fsys.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create output directory: %w", err)
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	records := ds.Records()
	res := &Result{Year: opts.Year}

	bar, err := barPlot(dashboard.BuildBarData(records, opts.Year))
	if err != nil {
		return nil, err
	}
	line, err := linePlot(dashboard.BuildLineData(records))
	if err != nil {
		return nil, err
	}
	scatter, err := scatterPlot(dashboard.BuildScatterData(records, opts.Year))
	if err != nil {
		return nil, err
	}

	for _, img := range []struct {
		prefix string
		plot   *plot.Plot
	}{
		{BarPrefix, bar},
		{LinePrefix, line},
		{ScatterPrefix, scatter},
	} {
		path := filepath.Join(opts.OutputDir, security.ReportFilename(img.prefix, opts.Year, "png"))
		if err := savePlot(fsys, img.plot, opts.Width, opts.Height, path); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}

	markers := dashboard.BuildMapData(ds.Rows(), opts.Year, opts.MarkerScale)
	wb, err := buildWorkbook(ds, opts.Year, markers, opts.AreaUnit)
	if err != nil {
		return nil, fmt.Errorf("report: workbook: %w", err)
	}
	defer wb.Close()

	path := filepath.Join(opts.OutputDir, security.ReportFilename(WorkbookPrefix, opts.Year, "xlsx"))
	out, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := wb.Write(out); err != nil {
		out.Close()
		return nil, fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("report: close %s: %w", path, err)
	}
	res.Files = append(res.Files, path)

	monitoring.Logf("report: wrote %d files for %d to %s", len(res.Files), opts.Year, opts.OutputDir)
	return res, nil
}

func savePlot(fsys fsutil.FileSystem, p *plot.Plot, w, h vg.Length, path string) error {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("report: render %s: %w", path, err)
	}
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", path, err)
	}
	return nil
}
