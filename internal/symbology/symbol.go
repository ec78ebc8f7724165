// Package symbology manages graduated ranges: ordered numeric classes, each
// mapped to a symbol and a label, plus the color/size assignment, legend and
// persistence built on top of them.
package symbology

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SymbolType identifies the geometry family a symbol draws.
type SymbolType string

// Symbol types.
const (
	SymbolMarker SymbolType = "marker"
	SymbolLine   SymbolType = "line"
	SymbolFill   SymbolType = "fill"
)

// Symbol is the visual payload attached to a range. The engine only clones,
// recolors, resizes and renders it.
type Symbol interface {
	Type() SymbolType
	Clone() Symbol
	Color() color.RGBA
	SetColor(c color.RGBA)
	// Size is the marker diameter or line width; fills report 0.
	Size() float64
	SetSize(s float64)
	Render() Style
}

// Style is the flattened render description of a symbol, consumable by an
// external map renderer or legend.
type Style struct {
	Type    SymbolType `json:"type" yaml:"type"`
	Shape   string     `json:"shape,omitempty" yaml:"shape,omitempty"`
	Color   string     `json:"color" yaml:"color"`
	Outline string     `json:"outline,omitempty" yaml:"outline,omitempty"`
	Size    float64    `json:"size,omitempty" yaml:"size,omitempty"`
}

// MarkerSymbol draws points.
type MarkerSymbol struct {
	Shape    string
	Fill     color.RGBA
	Diameter float64
}

// Type implements Symbol.
func (m *MarkerSymbol) Type() SymbolType { return SymbolMarker }

// Clone implements Symbol.
func (m *MarkerSymbol) Clone() Symbol { c := *m; return &c }

// Color implements Symbol.
func (m *MarkerSymbol) Color() color.RGBA { return m.Fill }

// SetColor implements Symbol.
func (m *MarkerSymbol) SetColor(c color.RGBA) { m.Fill = c }

// Size implements Symbol.
func (m *MarkerSymbol) Size() float64 { return m.Diameter }

// SetSize implements Symbol.
func (m *MarkerSymbol) SetSize(s float64) { m.Diameter = s }

// Render implements Symbol.
func (m *MarkerSymbol) Render() Style {
	return Style{Type: SymbolMarker, Shape: m.Shape, Color: FormatColor(m.Fill), Size: m.Diameter}
}

// LineSymbol draws lines.
type LineSymbol struct {
	Stroke color.RGBA
	Width  float64
}

// Type implements Symbol.
func (l *LineSymbol) Type() SymbolType { return SymbolLine }

// Clone implements Symbol.
func (l *LineSymbol) Clone() Symbol { c := *l; return &c }

// Color implements Symbol.
func (l *LineSymbol) Color() color.RGBA { return l.Stroke }

// SetColor implements Symbol.
func (l *LineSymbol) SetColor(c color.RGBA) { l.Stroke = c }

// Size implements Symbol.
func (l *LineSymbol) Size() float64 { return l.Width }

// SetSize implements Symbol.
func (l *LineSymbol) SetSize(s float64) { l.Width = s }

// Render implements Symbol.
func (l *LineSymbol) Render() Style {
	return Style{Type: SymbolLine, Color: FormatColor(l.Stroke), Size: l.Width}
}

// FillSymbol draws polygons. It has no size; SetSize is a no-op.
type FillSymbol struct {
	Fill    color.RGBA
	Outline color.RGBA
}

// Type implements Symbol.
func (f *FillSymbol) Type() SymbolType { return SymbolFill }

// Clone implements Symbol.
func (f *FillSymbol) Clone() Symbol { c := *f; return &c }

// Color implements Symbol.
func (f *FillSymbol) Color() color.RGBA { return f.Fill }

// SetColor implements Symbol.
func (f *FillSymbol) SetColor(c color.RGBA) { f.Fill = c }

// Size implements Symbol.
func (f *FillSymbol) Size() float64 { return 0 }

// SetSize implements Symbol.
func (f *FillSymbol) SetSize(float64) {}

// Render implements Symbol.
func (f *FillSymbol) Render() Style {
	return Style{Type: SymbolFill, Color: FormatColor(f.Fill), Outline: FormatColor(f.Outline)}
}

var defaultGray = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}

// DefaultSymbol returns a neutral symbol of the given type. Unknown types
// fall back to a fill.
func DefaultSymbol(t SymbolType) Symbol {
	switch t {
	case SymbolMarker:
		return &MarkerSymbol{Shape: "circle", Fill: defaultGray, Diameter: 2}
	case SymbolLine:
		return &LineSymbol{Stroke: defaultGray, Width: 0.26}
	default:
		return &FillSymbol{Fill: defaultGray, Outline: color.RGBA{R: 0x23, G: 0x23, B: 0x23, A: 0xff}}
	}
}

// ParseSymbolType maps a name to a SymbolType.
func ParseSymbolType(s string) (SymbolType, error) {
	switch t := SymbolType(strings.ToLower(strings.TrimSpace(s))); t {
	case SymbolMarker, SymbolLine, SymbolFill:
		return t, nil
	}
	return "", eris.Wrapf(ErrInvalidArgument, "symbology: unknown symbol type %q", s)
}

// ParseColor parses "#rrggbb" or "#rrggbbaa" (the leading '#' is optional).
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, eris.Wrapf(ErrInvalidArgument, "symbology: malformed color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, eris.Wrapf(ErrInvalidArgument, "symbology: malformed color %q", s)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor renders c as "#rrggbb", or "#rrggbbaa" when not opaque.
func FormatColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
