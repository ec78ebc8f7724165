// Package thematic turns configuration into graduated renderers and builds
// them for several attributes at once.
package thematic

import (
	"context"
	"image/color"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/config"
	"github.com/sells-group/choropleth/internal/symbology"
)

// Template holds the symbol, ramp, label format and graduation shared by
// every RangeSet built from it. Build clones the symbol and ramp, so one
// Template can feed any number of sets.
type Template struct {
	Symbol        symbology.Symbol
	Ramp          symbology.ColorRamp
	Format        symbology.LabelFormat
	Method        symbology.GraduatedMethod
	MinSize       float64
	MaxSize       float64
	AutoPrecision bool
}

// FromConfig builds a Template from the classify, label, ramp and symbol
// sections of cfg.
func FromConfig(cfg *config.Config) (Template, error) {
	sym, err := SymbolFromConfig(cfg.Symbol)
	if err != nil {
		return Template{}, err
	}
	ramp, err := RampFromConfig(cfg.Ramp)
	if err != nil {
		return Template{}, err
	}
	format, err := symbology.NewLabelFormat(cfg.Label.Format, cfg.Label.Precision, cfg.Label.TrimTrailingZeroes)
	if err != nil {
		return Template{}, eris.Wrap(err, "thematic: label format")
	}
	method, err := symbology.ParseGraduatedMethod(cfg.Classify.Method)
	if err != nil {
		return Template{}, err
	}
	return Template{
		Symbol:        sym,
		Ramp:          ramp,
		Format:        format,
		Method:        method,
		MinSize:       cfg.Classify.MinSize,
		MaxSize:       cfg.Classify.MaxSize,
		AutoPrecision: cfg.Label.AutoPrecision,
	}, nil
}

// SymbolFromConfig builds the source symbol. Empty colors and non-positive
// sizes keep the defaults of the symbol type.
func SymbolFromConfig(c config.SymbolConfig) (symbology.Symbol, error) {
	t, err := symbology.ParseSymbolType(c.Type)
	if err != nil {
		return nil, err
	}
	sym := symbology.DefaultSymbol(t)
	if c.Color != "" {
		col, err := symbology.ParseColor(c.Color)
		if err != nil {
			return nil, err
		}
		sym.SetColor(col)
	}

	switch s := sym.(type) {
	case *symbology.MarkerSymbol:
		if c.Size > 0 {
			s.Diameter = c.Size
		}
	case *symbology.LineSymbol:
		if c.Width > 0 {
			s.Width = c.Width
		}
	case *symbology.FillSymbol:
		if c.Outline != "" {
			outline, err := symbology.ParseColor(c.Outline)
			if err != nil {
				return nil, err
			}
			s.Outline = outline
		}
	}
	return sym, nil
}

// RampFromConfig builds the source color ramp.
func RampFromConfig(c config.RampConfig) (symbology.ColorRamp, error) {
	colors := slices.Clone(c.Colors)
	if c.Invert {
		slices.Reverse(colors)
	}
	ramp, err := symbology.RampFromDoc(symbology.RampDoc{Type: c.Type, Colors: colors})
	if err != nil {
		return nil, eris.Wrap(err, "thematic: color ramp")
	}
	return ramp, nil
}

// Build classifies attribute from src into n classes with mode and returns
// the symbolized RangeSet. The result is nil in Custom mode, which yields an
// empty set ready for manual classes.
func (t Template) Build(ctx context.Context, src symbology.ValueSource, attribute string,
	mode classify.Mode, n int,
) (*symbology.RangeSet, *classify.Result, error) {
	rs, res, err := symbology.Create(ctx, src, attribute, n, mode, t.symbol(), t.ramp(), t.Format)
	if err != nil {
		return nil, nil, err
	}
	t.apply(rs)
	return rs, res, nil
}

// FromBreaks builds a Custom-mode RangeSet from explicit breaks.
func (t Template) FromBreaks(attribute string, breaks []float64) (*symbology.RangeSet, error) {
	rs := symbology.New(attribute)
	rs.SetSourceSymbol(t.symbol())
	rs.SetSourceColorRamp(t.ramp())
	rs.SetLabelFormat(t.Format, false)
	if err := rs.SetBreaks(breaks); err != nil {
		return nil, err
	}
	t.apply(rs)
	return rs, nil
}

func (t Template) apply(rs *symbology.RangeSet) {
	if t.Method == symbology.GraduatedSize {
		rs.SetGraduatedMethod(symbology.GraduatedSize)
		rs.SetSymbolSizes(t.MinSize, t.MaxSize)
	}
	if t.AutoPrecision {
		rs.CalculateLabelPrecision(true)
	}
}

func (t Template) symbol() symbology.Symbol {
	if t.Symbol == nil {
		return symbology.DefaultSymbol(symbology.SymbolFill)
	}
	return t.Symbol.Clone()
}

func (t Template) ramp() symbology.ColorRamp {
	if t.Ramp == nil {
		return &symbology.GradientRamp{
			Color1: color.RGBA{R: 0xf7, G: 0xfb, B: 0xff, A: 0xff},
			Color2: color.RGBA{R: 0x08, G: 0x30, B: 0x6b, A: 0xff},
		}
	}
	return t.Ramp.Clone()
}
