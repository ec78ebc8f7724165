package source

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/choropleth/internal/symbology"
)

// OpenGeoJSON reads a GeoJSON FeatureCollection file into memory.
func OpenGeoJSON(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read geojson %s", path)
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON decodes a FeatureCollection. Features without an ID get their
// 1-based position.
func ParseGeoJSON(data []byte) (*Memory, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "source: decode geojson")
	}
	features := make([]symbology.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		feat := symbology.Feature{ID: f.ID, Geometry: f.Geometry, Attributes: f.Properties}
		if feat.ID == "" {
			feat.ID = strconv.Itoa(i + 1)
		}
		if feat.Attributes == nil {
			feat.Attributes = map[string]any{}
		}
		features = append(features, feat)
	}
	return NewMemory(features...), nil
}
