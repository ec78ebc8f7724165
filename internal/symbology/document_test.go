package symbology

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth/internal/classify"
)

func TestMarshalRoundTrip(t *testing.T) {
	src := staticSource{"pop": {1, 2, 3, 10, 20, 30, 100, 200, 300}}
	lf, err := NewLabelFormat("%1 to %2", 1, true)
	require.NoError(t, err)
	rs, _, err := Create(context.Background(), src, "pop", 3, classify.Jenks,
		&MarkerSymbol{Shape: "circle", Fill: red, Diameter: 3}, grayRamp(), lf)
	require.NoError(t, err)
	rs.UpdateRangeLabel(2, "big")
	rs.UpdateRangeRenderState(1, false)

	data, err := Marshal(rs)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: jenks")

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "pop", back.Attribute())
	assert.Equal(t, classify.Jenks, back.Mode())
	assert.Equal(t, GraduatedColor, back.GraduatedMethod())
	assert.True(t, back.LabelFormat().Equal(lf))
	assert.Equal(t, rs.ToDocument(), back.ToDocument())

	for _, v := range []float64{1, 15, 250} {
		want, wok := rs.SymbolForValue(v)
		got, gok := back.SymbolForValue(v)
		assert.Equal(t, wok, gok, "value %g", v)
		if wok {
			assert.Equal(t, want.Render(), got.Render())
		}
	}
}

func TestFromDocument_Defaults(t *testing.T) {
	rs, err := FromDocument(Document{
		Attribute: "v",
		Ranges:    []RangeDoc{{Lower: 0, Upper: 1, Label: "a", Render: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, classify.Custom, rs.Mode())
	assert.Equal(t, DefaultFormat(), rs.LabelFormat())
	assert.Equal(t, 1, rs.Len())
	assert.Nil(t, rs.SourceSymbol())
}

func TestFromDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"mode", Document{Mode: "bogus"}},
		{"method", Document{GraduatedMethod: "shape"}},
		{"label format", Document{LabelFormat: LabelFormatDoc{Format: "%3"}}},
		{"symbol color", Document{SourceSymbol: &Style{Type: SymbolFill, Color: "red"}}},
		{"symbol type", Document{Ranges: []RangeDoc{{Symbol: &Style{Type: "hatch", Color: "#000000"}}}}},
		{"ramp type", Document{SourceRamp: &RampDoc{Type: "cubic", Colors: []string{"#000000"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte("ranges: [unclosed"))
	assert.Error(t, err)
}

func TestRampDocRoundTrip(t *testing.T) {
	ramp, err := NewGradientRamp(white, red, black)
	require.NoError(t, err)
	ramp.Stops[0].Offset = 0.25

	back, err := RampFromDoc(*rampDoc(ramp))
	require.NoError(t, err)
	assert.Equal(t, ramp, back)

	preset := &PresetRamp{Colors: []color.RGBA{red, blue}}
	backPreset, err := RampFromDoc(*rampDoc(preset))
	require.NoError(t, err)
	assert.Equal(t, preset, backPreset)
}

type reversedRamp struct{ inner ColorRamp }

func (r reversedRamp) Color(f float64) color.RGBA { return r.inner.Color(1 - f) }
func (r reversedRamp) Clone() ColorRamp { return reversedRamp{inner: r.inner.Clone()} }

func TestRampDoc_UnknownRampIsSampled(t *testing.T) {
	doc := rampDoc(reversedRamp{inner: grayRamp()})
	assert.Equal(t, RampGradient, doc.Type)
	require.Len(t, doc.Colors, 11)
	assert.Equal(t, "#000000", doc.Colors[0])
	assert.Equal(t, "#ffffff", doc.Colors[10])

	ramp, err := RampFromDoc(*doc)
	require.NoError(t, err)
	assert.Equal(t, black, ramp.Color(0))
	assert.Equal(t, white, ramp.Color(1))
}
