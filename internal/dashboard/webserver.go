// Package dashboard serves the tree-cover loss page: a year slider driving
// a bar chart, a trend line, an emissions scatter and a circle-marker map.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/treecover.report/internal/dataset"
	"github.com/banshee-data/treecover.report/internal/httputil"
	"github.com/banshee-data/treecover.report/internal/version"
)

// Default CDN roots for the browser libraries.
const (
	DefaultEChartsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
	DefaultLeafletHost = "https://unpkg.com/leaflet@1.9.4/dist/"
)

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address     string
	Dataset     *dataset.Dataset
	Title       string
	MarkerScale float64
	SessionTTL  time.Duration
	AssetsHost  string
	LeafletHost string
	Templates   TemplateProvider
	Assets      AssetProvider
}

// WebServer serves the dashboard page and its update endpoint.
type WebServer struct {
	address     string
	layout      *Layout
	updater     *Updater
	sessions    *SessionStore
	templates   TemplateProvider
	assets      AssetProvider
	assetsHost  string
	leafletHost string
	mux         *http.ServeMux
	server      *http.Server
}

// NewWebServer builds the layout and updater for the configured dataset and
// registers the routes.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	if config.Dataset == nil {
		return nil, errors.New("dashboard: nil dataset")
	}
	layout, err := NewLayout(config.Dataset, config.Title)
	if err != nil {
		return nil, fmt.Errorf("dashboard layout: %w", err)
	}

	ws := &WebServer{
		address:     config.Address,
		layout:      layout,
		updater:     NewUpdater(config.Dataset, config.MarkerScale),
		sessions:    NewSessionStore(config.SessionTTL, layout.InitialYear()),
		templates:   config.Templates,
		assets:      config.Assets,
		assetsHost:  config.AssetsHost,
		leafletHost: config.LeafletHost,
	}
	if ws.templates == nil {
		ws.templates = DefaultTemplates()
	}
	if ws.assets == nil {
		ws.assets = DefaultAssets()
	}
	if ws.assetsHost == "" {
		ws.assetsHost = DefaultEChartsHost
	}
	if ws.leafletHost == "" {
		ws.leafletHost = DefaultLeafletHost
	}

	ws.mux = ws.setupRoutes()
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws, nil
}

// Mux exposes the route table so optional handlers, such as the debug
// console, can be attached before Start.
func (ws *WebServer) Mux() *http.ServeMux { return ws.mux }

// Layout returns the page layout.
func (ws *WebServer) Layout() *Layout { return ws.layout }

// Sessions returns the viewer session store.
func (ws *WebServer) Sessions() *SessionStore { return ws.sessions }

// SessionSweepInterval is how often idle sessions are collected while the
// server runs.
const SessionSweepInterval = time.Minute

// Start serves until ctx is cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go ws.sessions.RunSweeper(sweepCtx, SessionSweepInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/update", ws.handleUpdate)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(ws.assets.FS()))))
	mux.HandleFunc("/", ws.handleIndex)

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":    "ok",
		"service":   "treecover",
		"version":   version.Version,
		"sessions":  ws.sessions.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// pageData is the input of templates/page.html.
type pageData struct {
	Layout      *Layout
	Year        int
	MaxIndex    int
	ValueIndex  int
	Charts      []Artifact
	Map         Artifact
	State       pageState
	AssetsHost  string
	LeafletHost string
	Version     string
}

// pageState is embedded in the page as JSON for the slider script.
type pageState struct {
	SliderID  string     `json:"sliderId"`
	Stops     []int      `json:"stops"`
	Artifacts *Artifacts `json:"artifacts"`
}

// handleIndex renders the page for the viewer's current year.
func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.MethodNotAllowed(w, "GET, HEAD")
		return
	}

	session := ws.sessions.ForRequest(w, r)
	artifacts := session.Apply(session.Year(), ws.updater.Update)

	data := pageData{
		Layout:      ws.layout,
		Year:        artifacts.Year,
		MaxIndex:    len(ws.layout.Slider.Stops) - 1,
		ValueIndex:  ws.layout.Slider.Index(artifacts.Year),
		Charts:      []Artifact{artifacts.Bar, artifacts.Line, artifacts.Scatter},
		Map:         artifacts.Map,
		AssetsHost:  ws.assetsHost,
		LeafletHost: ws.leafletHost,
		Version:     version.Version,
		State: pageState{
			SliderID:  ws.layout.Slider.ID,
			Stops:     ws.layout.Slider.Stops,
			Artifacts: artifacts,
		},
	}

	var buf bytes.Buffer
	if err := ws.templates.ExecuteTemplate(&buf, "page.html", data); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render page: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

// handleUpdate answers a year change with all four artifacts.
// Query params:
//
//	year (required, must be a slider stop)
func (ws *WebServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	raw := r.URL.Query().Get("year")
	if raw == "" {
		httputil.BadRequest(w, "missing 'year' parameter")
		return
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid 'year' parameter %q", raw))
		return
	}
	if !ws.layout.ValidYear(year) {
		httputil.BadRequest(w, fmt.Sprintf("%v: %d", ErrUnknownYear, year))
		return
	}

	session := ws.sessions.ForRequest(w, r)
	httputil.WriteJSONOK(w, session.Apply(year, ws.updater.Update))
}
