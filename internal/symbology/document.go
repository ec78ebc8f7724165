package symbology

import (
	"image/color"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/choropleth/internal/classify"
)

// Document is the persisted form of a RangeSet.
type Document struct {
	Attribute       string         `yaml:"attribute" json:"attribute"`
	Mode            string         `yaml:"mode" json:"mode"`
	GraduatedMethod string         `yaml:"graduated_method" json:"graduated_method"`
	LabelFormat     LabelFormatDoc `yaml:"label_format" json:"label_format"`
	SymbolSizes     *SizeDoc       `yaml:"symbol_sizes,omitempty" json:"symbol_sizes,omitempty"`
	SourceSymbol    *Style         `yaml:"source_symbol,omitempty" json:"source_symbol,omitempty"`
	SourceRamp      *RampDoc       `yaml:"source_ramp,omitempty" json:"source_ramp,omitempty"`
	Ranges          []RangeDoc     `yaml:"ranges" json:"ranges"`
}

// LabelFormatDoc is the persisted form of a LabelFormat.
type LabelFormatDoc struct {
	Format             string `yaml:"format" json:"format"`
	Precision          int    `yaml:"precision" json:"precision"`
	TrimTrailingZeroes bool   `yaml:"trim_trailing_zeroes" json:"trim_trailing_zeroes"`
}

// SizeDoc is the size interval used by size graduation.
type SizeDoc struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// RangeDoc is the persisted form of a Range.
type RangeDoc struct {
	Lower  float64 `yaml:"lower" json:"lower"`
	Upper  float64 `yaml:"upper" json:"upper"`
	Label  string  `yaml:"label" json:"label"`
	Render bool    `yaml:"render" json:"render"`
	Symbol *Style  `yaml:"symbol,omitempty" json:"symbol,omitempty"`
}

// RampDoc is the persisted form of a ColorRamp.
type RampDoc struct {
	Type     string    `yaml:"type" json:"type"`
	Colors   []string  `yaml:"colors" json:"colors"`
	Offsets  []float64 `yaml:"offsets,omitempty" json:"offsets,omitempty"`
	Discrete bool      `yaml:"discrete,omitempty" json:"discrete,omitempty"`
}

// Ramp types.
const (
	RampGradient = "gradient"
	RampPreset   = "preset"
)

// ToDocument captures the full state of rs.
func (rs *RangeSet) ToDocument() Document {
	doc := Document{
		Attribute:       rs.attribute,
		Mode:            rs.mode.String(),
		GraduatedMethod: rs.method.String(),
		LabelFormat: LabelFormatDoc{
			Format:             rs.labelFormat.format,
			Precision:          rs.labelFormat.precision,
			TrimTrailingZeroes: rs.labelFormat.trim,
		},
		SymbolSizes: &SizeDoc{Min: rs.minSize, Max: rs.maxSize},
		Ranges:      make([]RangeDoc, 0, len(rs.ranges)),
	}
	if rs.sourceSymbol != nil {
		st := rs.sourceSymbol.Render()
		doc.SourceSymbol = &st
	}
	if rs.sourceRamp != nil {
		doc.SourceRamp = rampDoc(rs.sourceRamp)
	}
	for _, r := range rs.ranges {
		rd := RangeDoc{Lower: r.lower, Upper: r.upper, Label: r.label, Render: r.render}
		if r.symbol != nil {
			st := r.symbol.Render()
			rd.Symbol = &st
		}
		doc.Ranges = append(doc.Ranges, rd)
	}
	return doc
}

// FromDocument rebuilds a RangeSet from its persisted form.
func FromDocument(doc Document) (*RangeSet, error) {
	rs := New(doc.Attribute)

	var err error
	if doc.Mode != "" {
		if rs.mode, err = classify.ParseMode(doc.Mode); err != nil {
			return nil, eris.Wrap(err, "symbology: document mode")
		}
	}
	if doc.GraduatedMethod != "" {
		if rs.method, err = ParseGraduatedMethod(doc.GraduatedMethod); err != nil {
			return nil, eris.Wrap(err, "symbology: document graduated method")
		}
	}
	if doc.LabelFormat.Format != "" {
		lf, err := NewLabelFormat(doc.LabelFormat.Format, doc.LabelFormat.Precision, doc.LabelFormat.TrimTrailingZeroes)
		if err != nil {
			return nil, eris.Wrap(err, "symbology: document label format")
		}
		rs.labelFormat = lf
	}
	if doc.SymbolSizes != nil {
		rs.minSize, rs.maxSize = doc.SymbolSizes.Min, doc.SymbolSizes.Max
	}
	if doc.SourceSymbol != nil {
		if rs.sourceSymbol, err = SymbolFromStyle(*doc.SourceSymbol); err != nil {
			return nil, eris.Wrap(err, "symbology: document source symbol")
		}
	}
	if doc.SourceRamp != nil {
		if rs.sourceRamp, err = RampFromDoc(*doc.SourceRamp); err != nil {
			return nil, eris.Wrap(err, "symbology: document source ramp")
		}
	}
	for i, rd := range doc.Ranges {
		r := Range{lower: rd.Lower, upper: rd.Upper, label: rd.Label, render: rd.Render}
		if rd.Symbol != nil {
			if r.symbol, err = SymbolFromStyle(*rd.Symbol); err != nil {
				return nil, eris.Wrapf(err, "symbology: document range %d", i)
			}
		}
		rs.ranges = append(rs.ranges, r)
	}
	return rs, nil
}

// Marshal encodes rs as YAML.
func Marshal(rs *RangeSet) ([]byte, error) {
	data, err := yaml.Marshal(rs.ToDocument())
	if err != nil {
		return nil, eris.Wrap(err, "symbology: marshal document")
	}
	return data, nil
}

// Unmarshal decodes a YAML document into a RangeSet.
func Unmarshal(data []byte) (*RangeSet, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "symbology: unmarshal document")
	}
	return FromDocument(doc)
}

// SymbolFromStyle rebuilds a concrete symbol from its rendered style.
func SymbolFromStyle(st Style) (Symbol, error) {
	fill, err := ParseColor(st.Color)
	if err != nil {
		return nil, err
	}
	switch st.Type {
	case SymbolMarker:
		shape := st.Shape
		if shape == "" {
			shape = "circle"
		}
		return &MarkerSymbol{Shape: shape, Fill: fill, Diameter: st.Size}, nil
	case SymbolLine:
		return &LineSymbol{Stroke: fill, Width: st.Size}, nil
	case SymbolFill:
		outline := color.RGBA{A: 0xff}
		if st.Outline != "" {
			if outline, err = ParseColor(st.Outline); err != nil {
				return nil, err
			}
		}
		return &FillSymbol{Fill: fill, Outline: outline}, nil
	}
	return nil, eris.Wrapf(ErrInvalidArgument, "symbology: unknown symbol type %q", st.Type)
}

func rampDoc(r ColorRamp) *RampDoc {
	switch ramp := r.(type) {
	case *GradientRamp:
		doc := &RampDoc{Type: RampGradient, Discrete: ramp.Discrete}
		doc.Colors = append(doc.Colors, FormatColor(ramp.Color1))
		doc.Offsets = append(doc.Offsets, 0)
		for _, s := range ramp.Stops {
			doc.Colors = append(doc.Colors, FormatColor(s.Color))
			doc.Offsets = append(doc.Offsets, s.Offset)
		}
		doc.Colors = append(doc.Colors, FormatColor(ramp.Color2))
		doc.Offsets = append(doc.Offsets, 1)
		return doc
	case *PresetRamp:
		doc := &RampDoc{Type: RampPreset}
		for _, c := range ramp.Colors {
			doc.Colors = append(doc.Colors, FormatColor(c))
		}
		return doc
	}
	// Unknown ramps are sampled into an 11-step gradient.
	doc := &RampDoc{Type: RampGradient}
	for i := 0; i <= 10; i++ {
		f := float64(i) / 10
		doc.Colors = append(doc.Colors, FormatColor(r.Color(f)))
		doc.Offsets = append(doc.Offsets, f)
	}
	return doc
}

// RampFromDoc rebuilds a ramp. Gradient offsets default to even spacing.
func RampFromDoc(doc RampDoc) (ColorRamp, error) {
	colors := make([]color.RGBA, 0, len(doc.Colors))
	for _, s := range doc.Colors {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}

	switch doc.Type {
	case RampPreset:
		return &PresetRamp{Colors: colors}, nil
	case RampGradient, "":
		ramp, err := NewGradientRamp(colors...)
		if err != nil {
			return nil, err
		}
		ramp.Discrete = doc.Discrete
		if len(doc.Offsets) == len(colors) {
			for i := range ramp.Stops {
				ramp.Stops[i].Offset = doc.Offsets[i+1]
			}
		}
		return ramp, nil
	}
	return nil, eris.Wrapf(ErrInvalidArgument, "symbology: unknown ramp type %q", doc.Type)
}
