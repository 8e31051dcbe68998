package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/treecover.report/internal/config"
	"github.com/banshee-data/treecover.report/internal/dashboard"
	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/debugdb"
	"github.com/banshee-data/treecover.report/internal/fsutil"
	"github.com/banshee-data/treecover.report/internal/monitoring"
	"github.com/banshee-data/treecover.report/internal/version"
)

var (
	configFile   = flag.String("config", "", "JSON config file (default "+config.DefaultConfigPath+" when present)")
	envFile      = flag.String("env", ".env", "dotenv file to load into the environment when present")
	lossPath     = flag.String("loss", "", "Tree cover loss CSV (overrides config)")
	boundaryPath = flag.String("boundaries", "", "Country boundaries, .shp or .geojson (overrides config)")
	listen       = flag.String("listen", "", "Listen address (overrides config)")
	debugMirror  = flag.Bool("debug", false, "Mirror the dataset into SQLite and serve /debug/")
	verbose      = flag.Bool("v", false, "Verbose logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// loadConfig layers the JSON file and then the environment over the
// defaults. An empty path falls back to the default config file if it
// exists in fsys.
func loadConfig(fsys fsutil.FileSystem, path string, lookup func(string) (string, bool)) (*config.DashboardConfig, error) {
	if path == "" && fsys.Exists(config.DefaultConfigPath) {
		path = config.DefaultConfigPath
	}

	cfg := config.EmptyConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// applyFlags gives non-empty command line values the last word.
func applyFlags(cfg *config.DashboardConfig) {
	if *lossPath != "" {
		cfg.LossPath = lossPath
	}
	if *boundaryPath != "" {
		cfg.BoundaryPath = boundaryPath
	}
	if *listen != "" {
		cfg.Listen = listen
	}
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	osfs := fsutil.OSFileSystem{}
	if osfs.Exists(*envFile) {
		if err := config.LoadDotEnv(*envFile); err != nil {
			log.Printf("failed to load %s: %v", *envFile, err)
		}
	}

	cfg, err := loadConfig(osfs, *configFile, os.LookupEnv)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	applyFlags(cfg)

	log.Printf("treecover %s", version.String())

	ds, err := dataset.Load(osfs, dataset.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	ws, err := dashboard.NewWebServer(dashboard.WebServerConfig{
		Address:     cfg.GetListen(),
		Dataset:     ds,
		Title:       cfg.GetTitle(),
		MarkerScale: cfg.GetMarkerScale(),
		SessionTTL:  cfg.GetSessionTTL(),
		AssetsHost:  cfg.GetAssetsHost(),
	})
	if err != nil {
		log.Fatalf("failed to create web server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *debugMirror {
		mirror, err := debugdb.Open(debugdb.MemoryPath)
		if err != nil {
			log.Fatalf("failed to open debug mirror: %v", err)
		}
		defer mirror.Close()

		if err := mirror.Mirror(ctx, ds); err != nil {
			log.Fatalf("failed to mirror dataset: %v", err)
		}
		if err := mirror.AttachAdminRoutes(ws.Mux()); err != nil {
			log.Fatalf("failed to attach debug routes: %v", err)
		}
		log.Printf("debug console at /debug/tailsql/")
	}

	if err := ws.Start(ctx); err != nil {
		log.Printf("web server stopped: %v", err)
		stop()
		os.Exit(1)
	}
	log.Printf("graceful shutdown complete")
}
