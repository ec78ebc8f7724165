// Package export writes classified features out: styled GeoJSON, per-feature
// class assignments in PostgreSQL, and legend workbooks.
package export

import (
	"encoding/json"
	"io"
	"maps"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/choropleth/internal/symbology"
)

// Properties added to every classified feature. The color and size keys
// follow the simplestyle convention understood by most web map viewers.
const (
	PropLegendKey   = "legend_key"
	PropClassLabel  = "class_label"
	PropFill        = "fill"
	PropStroke      = "stroke"
	PropStrokeWidth = "stroke-width"
	PropMarkerColor = "marker-color"
	PropMarkerSize  = "marker-size"
)

// Options tunes FeatureCollection.
type Options struct {
	// IncludeUnclassified keeps features that match no visible class,
	// without style properties.
	IncludeUnclassified bool
}

// Summary counts how features fell into classes.
type Summary struct {
	Total        int            `json:"total"`
	Classified   int            `json:"classified"`
	Unclassified int            `json:"unclassified"`
	Counts       map[string]int `json:"counts"`
}

// Match is the class a feature falls into.
type Match struct {
	Key    string
	Range  symbology.Range
	Symbol symbology.Symbol
}

// Classify finds the visible class of f in rs.
func Classify(rs *symbology.RangeSet, f symbology.Feature) (Match, bool) {
	keys := rs.LegendKeysForFeature(f)
	if len(keys) == 0 {
		return Match{}, false
	}
	i, err := strconv.Atoi(keys[0])
	if err != nil {
		return Match{}, false
	}
	r, ok := rs.Range(i)
	if !ok {
		return Match{}, false
	}
	sym, _ := rs.SymbolForFeature(f)
	return Match{Key: keys[0], Range: r, Symbol: sym}, true
}

// Summarize counts features per legend key without building output.
func Summarize(features []symbology.Feature, rs *symbology.RangeSet) Summary {
	sum := Summary{Total: len(features), Counts: make(map[string]int)}
	for _, f := range features {
		m, ok := Classify(rs, f)
		if !ok {
			sum.Unclassified++
			continue
		}
		sum.Classified++
		sum.Counts[m.Key]++
	}
	return sum
}

// FeatureCollection symbolizes features with rs. Attributes are copied, not
// modified.
func FeatureCollection(features []symbology.Feature, rs *symbology.RangeSet, opts Options) (*geojson.FeatureCollection, Summary) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(features))}
	sum := Summary{Total: len(features), Counts: make(map[string]int)}

	for _, f := range features {
		props := make(map[string]interface{}, len(f.Attributes)+4)
		maps.Copy(props, f.Attributes)

		m, ok := Classify(rs, f)
		if !ok {
			sum.Unclassified++
			if !opts.IncludeUnclassified {
				continue
			}
		} else {
			sum.Classified++
			sum.Counts[m.Key]++
			props[PropLegendKey] = m.Key
			props[PropClassLabel] = m.Range.Label()
			if m.Symbol != nil {
				styleProperties(props, m.Symbol.Render())
			}
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         f.ID,
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return fc, sum
}

func styleProperties(props map[string]interface{}, st symbology.Style) {
	switch st.Type {
	case symbology.SymbolMarker:
		props[PropMarkerColor] = st.Color
		props[PropMarkerSize] = st.Size
	case symbology.SymbolLine:
		props[PropStroke] = st.Color
		props[PropStrokeWidth] = st.Size
	default:
		props[PropFill] = st.Color
		if st.Outline != "" {
			props[PropStroke] = st.Outline
		}
	}
}

// WriteGeoJSON encodes fc to w.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}
