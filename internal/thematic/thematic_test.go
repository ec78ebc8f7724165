package thematic

import (
	"context"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/config"
	"github.com/sells-group/choropleth/internal/symbology"
)

type mapSource struct {
	values map[string][]float64
	calls  atomic.Int32
}

func (m *mapSource) Values(_ context.Context, attribute string) ([]float64, error) {
	m.calls.Add(1)
	v, ok := m.values[attribute]
	if !ok {
		return nil, eris.Errorf("no such attribute %q", attribute)
	}
	return v, nil
}

func zeroToTen() []float64 {
	out := make([]float64, 0, 11)
	for i := 0; i <= 10; i++ {
		out = append(out, float64(i))
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Classify: config.ClassifyConfig{Mode: "equal_interval", Classes: 5, Method: "color", MinSize: 1, MaxSize: 8},
		Label:    config.LabelConfig{Format: "%1 - %2", Precision: 4},
		Ramp:     config.RampConfig{Type: "gradient", Colors: []string{"#000000", "#ffffff"}},
		Symbol:   config.SymbolConfig{Type: "fill", Color: "#808080", Outline: "#232323"},
	}
}

func TestFromConfig(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)

	assert.Equal(t, symbology.SymbolFill, tmpl.Symbol.Type())
	assert.Equal(t, "%1 - %2", tmpl.Format.Format())
	assert.Equal(t, 4, tmpl.Format.Precision())
	assert.Equal(t, symbology.GraduatedColor, tmpl.Method)
	assert.Equal(t, color.RGBA{A: 255}, tmpl.Ramp.Color(0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, tmpl.Ramp.Color(1))
}

func TestFromConfigRejectsBadInput(t *testing.T) {
	cfg := testConfig()
	cfg.Symbol.Type = "hatch"
	_, err := FromConfig(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Label.Format = "%3"
	_, err = FromConfig(cfg)
	assert.ErrorIs(t, err, symbology.ErrInvalidArgument)

	cfg = testConfig()
	cfg.Ramp.Colors = []string{"#000000"}
	_, err = FromConfig(cfg)
	assert.Error(t, err)
}

func TestSymbolFromConfig(t *testing.T) {
	sym, err := SymbolFromConfig(config.SymbolConfig{Type: "marker", Color: "#ff0000", Size: 5})
	require.NoError(t, err)
	marker, ok := sym.(*symbology.MarkerSymbol)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, marker.Fill)
	assert.InDelta(t, 5.0, marker.Diameter, 1e-9)

	sym, err = SymbolFromConfig(config.SymbolConfig{Type: "line", Width: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, sym.Size(), 1e-9)

	_, err = SymbolFromConfig(config.SymbolConfig{Type: "fill", Outline: "nope"})
	assert.Error(t, err)
}

func TestRampFromConfigInvert(t *testing.T) {
	ramp, err := RampFromConfig(config.RampConfig{Colors: []string{"#000000", "#ffffff"}, Invert: true})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, ramp.Color(0))

	preset, err := RampFromConfig(config.RampConfig{Type: "preset", Colors: []string{"#ff0000"}})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, preset.Color(0.5))
}

func TestTemplateBuildColor(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)
	src := &mapSource{values: map[string][]float64{"pop": zeroToTen()}}

	rs, res, err := tmpl.Build(context.Background(), src, "pop", classify.EqualInterval, 5)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, 5, rs.Len())

	first, _ := rs.Range(0)
	last, _ := rs.Range(4)
	assert.Equal(t, "0.0000 - 2.0000", first.Label())
	assert.Equal(t, color.RGBA{A: 255}, first.Symbol().Color())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, last.Symbol().Color())

	// The template keeps its own symbol.
	assert.Equal(t, color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, tmpl.Symbol.Color())
}

func TestTemplateBuildSize(t *testing.T) {
	cfg := testConfig()
	cfg.Classify.Method = "size"
	cfg.Classify.MinSize = 2
	cfg.Classify.MaxSize = 10
	cfg.Symbol = config.SymbolConfig{Type: "marker", Size: 3}
	tmpl, err := FromConfig(cfg)
	require.NoError(t, err)

	src := &mapSource{values: map[string][]float64{"pop": zeroToTen()}}
	rs, _, err := tmpl.Build(context.Background(), src, "pop", classify.EqualInterval, 5)
	require.NoError(t, err)

	assert.Equal(t, symbology.GraduatedSize, rs.GraduatedMethod())
	want := []float64{2, 4, 6, 8, 10}
	for i, w := range want {
		r, ok := rs.Range(i)
		require.True(t, ok)
		assert.InDelta(t, w, r.Symbol().Size(), 1e-9, "class %d", i)
	}
	assert.InDelta(t, 2.0, rs.MinSymbolSize(), 1e-9)
	assert.InDelta(t, 10.0, rs.MaxSymbolSize(), 1e-9)
}

func TestTemplateAutoPrecision(t *testing.T) {
	cfg := testConfig()
	cfg.Label.AutoPrecision = true
	tmpl, err := FromConfig(cfg)
	require.NoError(t, err)

	src := &mapSource{values: map[string][]float64{"pop": zeroToTen()}}
	rs, _, err := tmpl.Build(context.Background(), src, "pop", classify.EqualInterval, 5)
	require.NoError(t, err)

	first, _ := rs.Range(0)
	assert.Equal(t, "0.0 - 2.0", first.Label())
	assert.Equal(t, 1, rs.LabelFormat().Precision())
}

func TestTemplateFromBreaks(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)

	rs, err := tmpl.FromBreaks("pop", []float64{0, 10, 100})
	require.NoError(t, err)
	assert.Equal(t, classify.Custom, rs.Mode())
	assert.Equal(t, 2, rs.Len())

	_, err = tmpl.FromBreaks("pop", []float64{5})
	assert.ErrorIs(t, err, symbology.ErrInvalidArgument)
}

func TestBuilderPreservesRequestOrder(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)
	src := &mapSource{values: map[string][]float64{
		"pop":    zeroToTen(),
		"income": {10, 20, 30, 40},
		"area":   {1, 1, 2, 3, 5, 8, 13},
	}}

	reqs := []Request{
		{Attribute: "pop", Mode: classify.EqualInterval, Classes: 5},
		{Attribute: "income", Mode: classify.Quantile, Classes: 2},
		{Attribute: "area", Breaks: []float64{0, 5, 13}},
		{Attribute: "pop", Mode: classify.Pretty, Classes: 3},
	}
	outcomes, err := NewBuilder(tmpl, 2).Build(context.Background(), src, reqs)
	require.NoError(t, err)
	require.Len(t, outcomes, len(reqs))

	for i, out := range outcomes {
		assert.Equal(t, reqs[i].Attribute, out.RangeSet.Attribute())
		assert.Equal(t, reqs[i].Attribute, out.Request.Attribute)
	}
	assert.Equal(t, 5, outcomes[0].RangeSet.Len())
	assert.Equal(t, 2, outcomes[1].RangeSet.Len())
	assert.Nil(t, outcomes[2].Result)
	assert.Equal(t, classify.Custom, outcomes[2].RangeSet.Mode())
	// Explicit breaks never sample the source.
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestBuilderOwnsSymbolsPerOutcome(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)
	src := &mapSource{values: map[string][]float64{"pop": zeroToTen()}}

	outcomes, err := NewBuilder(tmpl, 0).Build(context.Background(), src, []Request{
		{Attribute: "pop", Mode: classify.EqualInterval, Classes: 2},
		{Attribute: "pop", Mode: classify.EqualInterval, Classes: 2},
	})
	require.NoError(t, err)

	a, _ := outcomes[0].RangeSet.Range(0)
	b, _ := outcomes[1].RangeSet.Range(0)
	a.Symbol().SetColor(color.RGBA{R: 1, A: 255})
	assert.NotEqual(t, a.Symbol().Color(), b.Symbol().Color())
}

func TestBuilderFailsOnUnknownAttribute(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)
	src := &mapSource{values: map[string][]float64{"pop": zeroToTen()}}

	_, err = NewBuilder(tmpl, 1).Build(context.Background(), src, []Request{
		{Attribute: "pop", Mode: classify.EqualInterval, Classes: 5},
		{Attribute: "missing", Mode: classify.EqualInterval, Classes: 5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestBuilderCanceledContext(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)
	src := &mapSource{values: map[string][]float64{"pop": zeroToTen()}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewBuilder(tmpl, 1).Build(ctx, src, []Request{{Attribute: "pop", Mode: classify.Quantile, Classes: 3}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilderEmptyRequests(t *testing.T) {
	tmpl, err := FromConfig(testConfig())
	require.NoError(t, err)
	outcomes, err := NewBuilder(tmpl, 2).Build(context.Background(), &mapSource{}, nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
