package symbology

import (
	"context"
	"image/color"

	"github.com/rotisserie/eris"
)

// staticSource serves fixed values per attribute.
type staticSource map[string][]float64

func (s staticSource) Values(_ context.Context, attribute string) ([]float64, error) {
	v, ok := s[attribute]
	if !ok {
		return nil, eris.Errorf("unknown attribute %q", attribute)
	}
	return v, nil
}

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
	red   = color.RGBA{R: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func grayRamp() *GradientRamp {
	return &GradientRamp{Color1: white, Color2: black}
}

// contiguous builds ranges [b0,b1], [b1,b2], ... with distinct marker symbols.
func contiguous(breaks ...float64) *RangeSet {
	rs := New("pop")
	rs.SetSourceSymbol(&MarkerSymbol{Shape: "circle", Fill: red, Diameter: 2})
	for i := 0; i+1 < len(breaks); i++ {
		rs.AddClass(breaks[i], breaks[i+1])
	}
	return rs
}
