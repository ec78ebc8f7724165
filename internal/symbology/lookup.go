package symbology

import (
	"strconv"

	"github.com/spf13/cast"
	"github.com/twpayne/go-geom"
)

// SymbolForValue returns the symbol of the first range, in list order, with
// lower <= v <= upper, as a copy. When ranges overlap the earliest one wins. A hidden
// first match, or no match at all, yields no symbol; callers treat that as
// "not drawn", not as an error.
func (rs *RangeSet) SymbolForValue(v float64) (Symbol, bool) {
	i, ok := rs.matchIndex(v)
	if !ok || rs.ranges[i].symbol == nil {
		return nil, false
	}
	return rs.ranges[i].symbol.Clone(), true
}

// LegendKeyForValue is SymbolForValue returning the legend key of the
// matching range instead of its symbol.
func (rs *RangeSet) LegendKeyForValue(v float64) (string, bool) {
	i, ok := rs.matchIndex(v)
	if !ok {
		return "", false
	}
	return strconv.Itoa(i), true
}

func (rs *RangeSet) matchIndex(v float64) (int, bool) {
	for i, r := range rs.ranges {
		if r.Contains(v) {
			return i, r.render
		}
	}
	return -1, false
}

// Feature is a record to be symbolized: an optional geometry plus attributes.
type Feature struct {
	ID         string
	Geometry   geom.T
	Attributes map[string]any
}

// Number returns the attribute as a float64. Missing, null and non-numeric
// values report false.
func (f Feature) Number(attribute string) (float64, bool) {
	raw, ok := f.Attributes[attribute]
	if !ok || raw == nil {
		return 0, false
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SymbolForFeature looks up the symbol for f's classification attribute.
func (rs *RangeSet) SymbolForFeature(f Feature) (Symbol, bool) {
	v, ok := f.Number(rs.attribute)
	if !ok {
		return nil, false
	}
	return rs.SymbolForValue(v)
}

// LegendKeysForFeature returns the legend keys f falls into: zero or one.
func (rs *RangeSet) LegendKeysForFeature(f Feature) []string {
	v, ok := f.Number(rs.attribute)
	if !ok {
		return nil
	}
	key, ok := rs.LegendKeyForValue(v)
	if !ok {
		return nil
	}
	return []string{key}
}
