package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/treecover.report/internal/config"
	"github.com/banshee-data/treecover.report/internal/fsutil"
	"github.com/banshee-data/treecover.report/internal/monitoring"
)

// LoadBoundaries reads the boundary layer at path. GeoJSON (.geojson,
// .json) and ESRI shapefiles (.shp with a sibling .dbf) are supported.
// Features without polygonal geometry are skipped.
func LoadBoundaries(fsys fsutil.FileSystem, path string, cols config.BoundaryColumns) ([]CountryBoundary, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		return loadGeoJSON(fsys, path, cols)
	case ".shp":
		return loadShapefile(fsys, path, cols)
	default:
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)}
	}
}

func loadGeoJSON(fsys fsutil.FileSystem, path string, cols config.BoundaryColumns) ([]CountryBoundary, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	out := make([]CountryBoundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		geom, ok := polygonal(f.Geometry)
		if !ok {
			monitoring.Logf("boundary %s feature %d: skipping %s geometry", path, i+1, geometryName(f.Geometry))
			continue
		}
		iso, err := property(f.Properties, cols.SovereignISO)
		if err != nil {
			return nil, &LoadError{Path: path, Line: i + 1, Column: cols.SovereignISO, Err: err}
		}
		name, err := property(f.Properties, cols.SovereignName)
		if err != nil {
			return nil, &LoadError{Path: path, Line: i + 1, Column: cols.SovereignName, Err: err}
		}
		out = append(out, CountryBoundary{SovereignISO: iso, SovereignName: name, Geometry: geom})
	}
	return out, nil
}

func property(props geojson.Properties, key string) (string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", ErrMissingColumn
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func polygonal(g orb.Geometry) (orb.Geometry, bool) {
	switch g := g.(type) {
	case orb.Polygon:
		return g, len(g) > 0
	case orb.MultiPolygon:
		return g, len(g) > 0
	}
	return nil, false
}

func geometryName(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	return g.GeoJSONType()
}

func loadShapefile(fsys fsutil.FileSystem, path string, cols config.BoundaryColumns) ([]CountryBoundary, error) {
	shpFile, err := fsys.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	dbfPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	dbfFile, err := fsys.Open(dbfPath)
	if err != nil {
		shpFile.Close()
		return nil, &LoadError{Path: dbfPath, Err: err}
	}

	r := shp.SequentialReaderFromExt(shpFile, dbfFile)
	defer r.Close()
	if err := r.Err(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	isoField, nameField := -1, -1
	for i, f := range r.Fields() {
		switch f.String() {
		case cols.SovereignISO:
			isoField = i
		case cols.SovereignName:
			nameField = i
		}
	}
	if isoField < 0 {
		return nil, &LoadError{Path: dbfPath, Column: cols.SovereignISO, Err: ErrMissingColumn}
	}
	if nameField < 0 {
		return nil, &LoadError{Path: dbfPath, Column: cols.SovereignName, Err: ErrMissingColumn}
	}

	var out []CountryBoundary
	for r.Next() {
		n, shape := r.Shape()
		parts, points, ok := polygonRings(shape)
		if !ok {
			monitoring.Logf("boundary %s shape %d: skipping %T", path, n+1, shape)
			continue
		}
		geom := assembleRings(parts, points)
		if geom == nil {
			monitoring.Logf("boundary %s shape %d: skipping polygon without rings", path, n+1)
			continue
		}
		out = append(out, CountryBoundary{
			SovereignISO:  dbfString(r.Attribute(isoField)),
			SovereignName: dbfString(r.Attribute(nameField)),
			Geometry:      geom,
		})
	}
	if err := r.Err(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return out, nil
}

// dbfString strips the padding DBF writers leave in character fields.
// go-shp trims spaces only, and some writers pad with NULs.
func dbfString(s string) string {
	return strings.TrimRight(s, "\x00 ")
}

// polygonRings returns the part offsets and points of a polygon shape.
// Z and M variants share the layout; their extra measures are dropped.
func polygonRings(shape shp.Shape) ([]int32, []shp.Point, bool) {
	switch p := shape.(type) {
	case *shp.Polygon:
		return p.Parts, p.Points, true
	case *shp.PolygonZ:
		return p.Parts, p.Points, true
	case *shp.PolygonM:
		return p.Parts, p.Points, true
	}
	return nil, nil, false
}

// assembleRings groups the parts of a shapefile polygon into polygons.
// Clockwise rings are exteriors; counter-clockwise rings are holes of the
// exterior that contains them, or of the most recent exterior. A single
// polygon is returned as orb.Polygon, several as orb.MultiPolygon.
func assembleRings(parts []int32, points []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for i := range parts {
		start := int(parts[i])
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if start < 0 || end > len(points) || end-start < 4 {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}

		if ring.Orientation() != orb.CCW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		owner := len(mp) - 1
		for j := range mp {
			if planar.RingContains(mp[j][0], ring[0]) {
				owner = j
				break
			}
		}
		mp[owner] = append(mp[owner], ring)
	}

	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	}
	return mp
}
