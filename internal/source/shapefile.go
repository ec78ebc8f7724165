package source

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/symbology"
)

// OpenShapefile reads every record of a shapefile into memory. Feature IDs
// are 1-based record numbers; blank DBF values become nulls.
func OpenShapefile(path string) (*Memory, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var (
		features []symbology.Feature
		noGeom   int
	)
	for reader.Next() {
		n, shape := reader.Shape()

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				attrs[name] = nil
				continue
			}
			attrs[name] = val
		}

		g := shapeGeometry(shape)
		if g == nil {
			noGeom++
		}
		features = append(features, symbology.Feature{
			ID:         strconv.Itoa(n + 1),
			Geometry:   g,
			Attributes: attrs,
		})
	}

	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: read shapefile %s", path)
	}

	zap.L().Debug("source: read shapefile",
		zap.String("path", path),
		zap.Int("features", len(features)),
		zap.Int("without_geometry", noGeom),
	)
	return NewMemory(features...), nil
}

// shapeGeometry converts a go-shp shape to a go-geom geometry in SRID 4326.
// Unsupported or empty shapes return nil.
func shapeGeometry(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(4326)
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewMultiPointFlat(geom.XY, flatPoints(s.Points)).SetSRID(4326)
	case *shp.PolyLine:
		if s == nil {
			return nil
		}
		mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)
		for i, pts := range partPoints(s.Parts, s.Points) {
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flatPoints(pts))); err != nil {
				zap.L().Debug("source: skipping malformed line part", zap.Int("part", i), zap.Error(err))
			}
		}
		if mls.NumLineStrings() == 0 {
			return nil
		}
		return mls
	case *shp.Polygon:
		if s == nil {
			return nil
		}
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
		for i, pts := range partPoints(s.Parts, s.Points) {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flatPoints(pts))); err != nil {
				zap.L().Debug("source: skipping malformed ring", zap.Int("part", i), zap.Error(err))
				continue
			}
			if err := mp.Push(poly); err != nil {
				zap.L().Debug("source: skipping malformed polygon", zap.Int("part", i), zap.Error(err))
			}
		}
		if mp.NumPolygons() == 0 {
			return nil
		}
		return mp
	}
	return nil
}

// partPoints slices points into the parts delimited by the start offsets in
// parts.
func partPoints(parts []int32, points []shp.Point) [][]shp.Point {
	out := make([][]shp.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		out = append(out, points[start:end])
	}
	return out
}

func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
