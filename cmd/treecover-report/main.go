// Command treecover-report writes the dashboard charts for one year as PNG
// images, plus an XLSX workbook of the underlying rows.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/treecover.report/internal/config"
	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/fsutil"
	"github.com/banshee-data/treecover.report/internal/monitoring"
	"github.com/banshee-data/treecover.report/internal/report"
	"github.com/banshee-data/treecover.report/internal/units"
)

var (
	configFile   = flag.String("config", "", "JSON config file")
	lossPath     = flag.String("loss", "", "Tree cover loss CSV (overrides config)")
	boundaryPath = flag.String("boundaries", "", "Country boundaries, .shp or .geojson (overrides config)")
	year         = flag.Int("year", 0, "Year to export (default: latest year in the data)")
	outDir       = flag.String("out", "reports", "Output directory")
	areaUnit     = flag.String("area-unit", units.KM2, "Extra area unit for the totals sheet ("+units.GetValidUnitsString()+")")
	verbose      = flag.Bool("v", false, "Verbose logging")
)

// pickYear returns want when set, otherwise the latest year.
func pickYear(ds *dataset.Dataset, want int) (int, error) {
	years := ds.Years()
	if len(years) == 0 {
		return 0, fmt.Errorf("no years in loss table")
	}
	if want == 0 {
		return years[len(years)-1], nil
	}
	if !ds.HasYear(want) {
		return 0, fmt.Errorf("year %d not in loss table (have %d-%d)", want, years[0], years[len(years)-1])
	}
	return want, nil
}

func main() {
	flag.Parse()
	monitoring.SetVerbose(*verbose)

	cfg := config.EmptyConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile); err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("invalid environment: %v", err)
	}
	if *lossPath != "" {
		cfg.LossPath = lossPath
	}
	if *boundaryPath != "" {
		cfg.BoundaryPath = boundaryPath
	}

	fsys := fsutil.OSFileSystem{}
	ds, err := dataset.Load(fsys, dataset.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	y, err := pickYear(ds, *year)
	if err != nil {
		log.Fatal(err)
	}

	res, err := report.Export(fsys, ds, report.Options{
		OutputDir:   *outDir,
		Year:        y,
		MarkerScale: cfg.GetMarkerScale(),
		AreaUnit:    *areaUnit,
	})
	if err != nil {
		log.Fatalf("failed to export report: %v", err)
	}
	for _, f := range res.Files {
		fmt.Println(f)
	}
}
