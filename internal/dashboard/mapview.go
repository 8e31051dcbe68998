package dashboard

import (
	"encoding/json"
	"fmt"
)

// Marker style, matching a red filled circle at half opacity.
const (
	markerColor       = "red"
	markerFillOpacity = 0.5
)

// mapView is the document the page hands to Leaflet.
type mapView struct {
	Center      [2]float64 `json:"center"`
	Zoom        int        `json:"zoom"`
	Color       string     `json:"color"`
	FillColor   string     `json:"fillColor"`
	FillOpacity float64    `json:"fillOpacity"`
	Markers     []Marker   `json:"markers"`
}

// RenderMap returns the Leaflet view for d: centre, zoom, marker style and
// one circle marker per entry. Popups are already HTML-escaped.
func RenderMap(d MapData) (json.RawMessage, error) {
	view := mapView{
		Center:      d.Center,
		Zoom:        d.Zoom,
		Color:       markerColor,
		FillColor:   markerColor,
		FillOpacity: markerFillOpacity,
		Markers:     d.Markers,
	}
	if view.Markers == nil {
		view.Markers = []Marker{}
	}
	for _, m := range d.Markers {
		switch {
		case !finite(m.Lat) || !finite(m.Lon):
			return nil, nonFinite(MapID, m.ISO+" centroid", m.Lat+m.Lon)
		case !finite(m.Radius):
			return nil, nonFinite(MapID, m.ISO+" radius", m.Radius)
		case m.Lat < -90 || m.Lat > 90:
			return nil, &RenderError{Artifact: MapID, Err: fmt.Errorf("%s latitude %v out of range", m.ISO, m.Lat)}
		}
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return nil, &RenderError{Artifact: MapID, Err: err}
	}
	return raw, nil
}
