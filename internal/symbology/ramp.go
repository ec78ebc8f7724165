package symbology

import (
	"image/color"
	"math"

	"github.com/rotisserie/eris"
)

// ColorRamp maps a fraction in [0, 1] to a color.
type ColorRamp interface {
	Color(f float64) color.RGBA
	Clone() ColorRamp
}

// GradientStop is an intermediate color at Offset in (0, 1).
type GradientStop struct {
	Offset float64
	Color  color.RGBA
}

// GradientRamp interpolates linearly between Color1, the stops in offset
// order, and Color2. A discrete ramp returns the color of the segment start.
type GradientRamp struct {
	Color1   color.RGBA
	Color2   color.RGBA
	Stops    []GradientStop
	Discrete bool
}

// NewGradientRamp builds a ramp from two or more colors spread evenly over
// [0, 1].
func NewGradientRamp(colors ...color.RGBA) (*GradientRamp, error) {
	if len(colors) < 2 {
		return nil, eris.Wrapf(ErrInvalidArgument, "symbology: gradient needs 2 colors, got %d", len(colors))
	}
	r := &GradientRamp{Color1: colors[0], Color2: colors[len(colors)-1]}
	inner := colors[1 : len(colors)-1]
	for i, c := range inner {
		r.Stops = append(r.Stops, GradientStop{
			Offset: float64(i+1) / float64(len(colors)-1),
			Color:  c,
		})
	}
	return r, nil
}

// Color implements ColorRamp.
func (g *GradientRamp) Color(f float64) color.RGBA {
	switch {
	case nearlyEqual(f, 0) || f < 0:
		return g.Color1
	case nearlyEqual(f, 1) || f > 1:
		return g.Color2
	}

	lower, c1 := 0.0, g.Color1
	for _, stop := range g.Stops {
		if stop.Offset > f {
			if g.Discrete || nearlyEqual(stop.Offset, lower) {
				return c1
			}
			return lerpColor(c1, stop.Color, (f-lower)/(stop.Offset-lower))
		}
		lower, c1 = stop.Offset, stop.Color
	}
	if g.Discrete || nearlyEqual(lower, 1) {
		return c1
	}
	return lerpColor(c1, g.Color2, (f-lower)/(1-lower))
}

// Clone implements ColorRamp.
func (g *GradientRamp) Clone() ColorRamp {
	c := *g
	c.Stops = append([]GradientStop(nil), g.Stops...)
	return &c
}

// PresetRamp picks from a fixed palette without interpolation.
type PresetRamp struct {
	Colors []color.RGBA
}

// Color implements ColorRamp.
func (p *PresetRamp) Color(f float64) color.RGBA {
	if len(p.Colors) == 0 {
		return color.RGBA{}
	}
	i := int(f * float64(len(p.Colors)))
	i = max(0, min(i, len(p.Colors)-1))
	return p.Colors[i]
}

// Clone implements ColorRamp.
func (p *PresetRamp) Clone() ColorRamp {
	return &PresetRamp{Colors: append([]color.RGBA(nil), p.Colors...)}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	ch := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + t*(float64(y)-float64(x))))
	}
	return color.RGBA{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: ch(a.A, b.A)}
}
