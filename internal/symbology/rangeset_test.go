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

func TestNew_SourceSymbolFromFirstRange(t *testing.T) {
	sym := &FillSymbol{Fill: red}
	rs := New("pop", NewRange(0, 10, sym, "a"))
	assert.Equal(t, classify.Custom, rs.Mode())
	assert.Equal(t, GraduatedColor, rs.GraduatedMethod())
	require.NotNil(t, rs.SourceSymbol())
	assert.Equal(t, red, rs.SourceSymbol().Color())

	// The template is a copy, not the range's symbol.
	sym.SetColor(blue)
	assert.Equal(t, red, rs.SourceSymbol().Color())
}

func TestUpdateClasses_EqualInterval(t *testing.T) {
	src := staticSource{"pop": {0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}}
	rs := New("pop")
	rs.SetSourceSymbol(&FillSymbol{Fill: red})
	rs.SetSourceColorRamp(grayRamp())

	res, err := rs.UpdateClasses(context.Background(), src, classify.EqualInterval, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.EffectiveClasses())
	assert.Equal(t, classify.EqualInterval, rs.Mode())
	require.Equal(t, 5, rs.Len())

	first, _ := rs.Range(0)
	last, _ := rs.Range(4)
	assert.Equal(t, 0.0, first.Lower())
	assert.Equal(t, 20.0, first.Upper())
	assert.Equal(t, "0.0000 - 20.0000", first.Label())
	assert.Equal(t, white, first.Symbol().Color())
	assert.Equal(t, black, last.Symbol().Color())

	assert.False(t, rs.RangesOverlap())
	assert.False(t, rs.RangesHaveGaps())
}

func TestUpdateClasses_FreshSetsAreContiguous(t *testing.T) {
	values := []float64{1, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 89, 89}
	src := staticSource{"v": values}
	for _, mode := range []classify.Mode{classify.EqualInterval, classify.Quantile, classify.Jenks, classify.StdDev, classify.Pretty} {
		t.Run(mode.String(), func(t *testing.T) {
			rs := New("v")
			_, err := rs.UpdateClasses(context.Background(), src, mode, 5)
			require.NoError(t, err)
			assert.False(t, rs.RangesOverlap())
			assert.False(t, rs.RangesHaveGaps())
		})
	}
}

func TestUpdateClasses_QuantileTiesReported(t *testing.T) {
	src := staticSource{"v": {1, 1, 1, 1, 2}}
	rs := New("v")
	res, err := rs.UpdateClasses(context.Background(), src, classify.Quantile, 3)
	require.NoError(t, err)
	assert.True(t, res.Collapsed())
	assert.Equal(t, 2, rs.Len())
}

func TestUpdateClasses_StdDevLabels(t *testing.T) {
	src := staticSource{"v": {2, 4, 4, 4, 5, 5, 7, 9}}
	rs := New("v")
	_, err := rs.UpdateClasses(context.Background(), src, classify.StdDev, 4)
	require.NoError(t, err)
	require.Equal(t, 4, rs.Len())
	r0, _ := rs.Range(0)
	r3, _ := rs.Range(3)
	assert.Equal(t, "< -1.00 Std Dev", r0.Label())
	assert.Equal(t, ">= 1.00 Std Dev", r3.Label())
}

func TestUpdateClasses_CustomLeavesRanges(t *testing.T) {
	rs := contiguous(0, 5, 10)
	rs.SetMode(classify.Quantile)
	res, err := rs.UpdateClasses(context.Background(), staticSource{}, classify.Custom, 3)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, classify.Custom, rs.Mode())
	assert.Equal(t, 2, rs.Len())
}

func TestUpdateClasses_Errors(t *testing.T) {
	rs := New("")
	_, err := rs.UpdateClasses(context.Background(), staticSource{}, classify.Quantile, 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	rs = New("missing")
	_, err = rs.UpdateClasses(context.Background(), staticSource{}, classify.Quantile, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample missing")

	rs = New("v")
	_, err = rs.UpdateClasses(context.Background(), staticSource{"v": {1, 2}}, classify.Quantile, 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestUpdateClasses_FailureKeepsState(t *testing.T) {
	src := staticSource{"v": {1, 2, 3, 4, 5, 6}}
	rs := New("v")
	_, err := rs.UpdateClasses(context.Background(), src, classify.Quantile, 3)
	require.NoError(t, err)
	before := rs.Ranges()

	_, err = rs.UpdateClasses(context.Background(), src, classify.Jenks, 0)
	require.Error(t, err)
	assert.Equal(t, classify.Quantile, rs.Mode())
	assert.Equal(t, before, rs.Ranges())

	rs.SetAttribute("missing")
	_, err = rs.UpdateClasses(context.Background(), src, classify.EqualInterval, 3)
	require.Error(t, err)
	assert.Equal(t, classify.Quantile, rs.Mode())
	assert.Len(t, rs.Ranges(), 3)
}

func TestCreate(t *testing.T) {
	src := staticSource{"v": {0, 50, 100}}
	lf, err := NewLabelFormat("%1-%2", 0, false)
	require.NoError(t, err)
	rs, res, err := Create(context.Background(), src, "v", 2, classify.EqualInterval,
		&FillSymbol{Fill: red}, grayRamp(), lf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.EffectiveClasses())
	r1, _ := rs.Range(1)
	assert.Equal(t, "50-100", r1.Label())
	assert.Equal(t, black, r1.Symbol().Color())
}

func TestSetBreaks(t *testing.T) {
	rs := New("v")
	require.NoError(t, rs.SetBreaks([]float64{0, 1, 10, 100}))
	assert.Equal(t, classify.Custom, rs.Mode())
	assert.Equal(t, 3, rs.Len())

	err := rs.SetBreaks([]float64{3, 1})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, 3, rs.Len())
}

func TestAddClass(t *testing.T) {
	rs := New("v")
	rs.SetSourceSymbol(&FillSymbol{Fill: red})
	rs.SetSourceColorRamp(grayRamp())
	rs.AddClass(0, 10)
	rs.AddClass(10, 20)

	require.Equal(t, 2, rs.Len())
	r0, _ := rs.Range(0)
	r1, _ := rs.Range(1)
	assert.Equal(t, white, r0.Symbol().Color())
	assert.Equal(t, black, r1.Symbol().Color())
	assert.Equal(t, "10.0000 - 20.0000", r1.Label())
	assert.True(t, r1.RenderState())
}

func TestAddClass_WithoutTemplate(t *testing.T) {
	rs := New("v")
	rs.AddClass(0, 1)
	r, _ := rs.Range(0)
	require.NotNil(t, r.Symbol())
	assert.Equal(t, SymbolFill, r.Symbol().Type())
}

func TestAddSymbolClass(t *testing.T) {
	rs := New("v")
	rs.AddSymbolClass(&LineSymbol{Stroke: blue, Width: 1})
	r, _ := rs.Range(0)
	assert.Equal(t, 0.0, r.Lower())
	assert.Equal(t, 0.0, r.Upper())
	assert.Equal(t, blue, r.Symbol().Color())
}

func TestAddBreak_SplitsAndIsLossless(t *testing.T) {
	rs := contiguous(0, 10, 20)
	rs.SetSourceColorRamp(grayRamp())

	require.True(t, rs.AddBreak(14, true))
	require.Equal(t, 3, rs.Len())

	lower, _ := rs.Range(1)
	upper, _ := rs.Range(2)
	assert.Equal(t, 10.0, lower.Lower())
	assert.Equal(t, 14.0, lower.Upper())
	assert.Equal(t, 14.0, upper.Lower())
	assert.Equal(t, 20.0, upper.Upper())
	assert.Equal(t, "10.0000 - 14.0000", lower.Label())
	assert.Equal(t, "14.0000 - 20.0000", upper.Label())

	assert.False(t, rs.RangesOverlap())
	assert.False(t, rs.RangesHaveGaps())

	// Colors were respread over three classes.
	r2, _ := rs.Range(2)
	assert.Equal(t, black, r2.Symbol().Color())
}

func TestAddBreak_FirstRangeClosed(t *testing.T) {
	rs := contiguous(0, 10, 20)
	assert.True(t, rs.AddBreak(5, false))
	r0, _ := rs.Range(0)
	assert.Equal(t, 5.0, r0.Upper())
}

func TestAddBreak_KeepsManualLabel(t *testing.T) {
	rs := contiguous(0, 10)
	require.True(t, rs.UpdateRangeLabel(0, "low"))
	require.True(t, rs.AddBreak(4, false))
	r0, _ := rs.Range(0)
	r1, _ := rs.Range(1)
	assert.Equal(t, "low", r0.Label())
	assert.Equal(t, "4.0000 - 10.0000", r1.Label())
}

func TestAddBreak_NoOp(t *testing.T) {
	rs := contiguous(0, 10, 20)
	assert.False(t, rs.AddBreak(10, true), "existing boundary")
	assert.False(t, rs.AddBreak(0, true), "lower bound of first range")
	assert.False(t, rs.AddBreak(20, true), "upper bound of last range")
	assert.False(t, rs.AddBreak(25, true), "outside")
	assert.Equal(t, 2, rs.Len())
}

func TestAddBreak_SizeGraduation(t *testing.T) {
	rs := contiguous(0, 10, 20)
	rs.SetGraduatedMethod(GraduatedSize)
	rs.SetSymbolSizes(2, 6)
	require.True(t, rs.AddBreak(15, true))
	assert.Equal(t, 2.0, rs.MinSymbolSize())
	assert.Equal(t, 6.0, rs.MaxSymbolSize())
	r1, _ := rs.Range(1)
	assert.Equal(t, 4.0, r1.Symbol().Size())
}

func TestDeleteClass(t *testing.T) {
	rs := contiguous(0, 1, 2, 3)
	require.NoError(t, rs.DeleteClass(1))
	assert.Equal(t, 2, rs.Len())
	r1, _ := rs.Range(1)
	assert.Equal(t, 2.0, r1.Lower())

	assert.Equal(t, Range{}, rs.ranges[:3][2], "deleted tail must not keep its symbol")

	err := rs.DeleteClass(5)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	err = rs.DeleteClass(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestDeleteAllClasses(t *testing.T) {
	rs := contiguous(0, 1, 2, 3)
	rs.DeleteAllClasses()
	assert.Equal(t, 0, rs.Len())
	for _, v := range []float64{-1, 0, 1.5, 3, 1e9} {
		_, ok := rs.SymbolForValue(v)
		assert.False(t, ok)
	}
}

func TestMoveClass(t *testing.T) {
	rs := contiguous(0, 1, 2, 3, 4)
	overlap, gaps := rs.RangesOverlap(), rs.RangesHaveGaps()

	require.NoError(t, rs.MoveClass(0, 3))
	lowers := make([]float64, 0, rs.Len())
	for _, r := range rs.Ranges() {
		lowers = append(lowers, r.Lower())
	}
	assert.Equal(t, []float64{1, 2, 3, 0}, lowers)
	assert.Equal(t, overlap, rs.RangesOverlap())
	assert.Equal(t, gaps, rs.RangesHaveGaps())

	require.NoError(t, rs.MoveClass(3, 1))
	r1, _ := rs.Range(1)
	assert.Equal(t, 0.0, r1.Lower())

	assert.True(t, errors.Is(rs.MoveClass(0, 4), ErrOutOfRange))
	assert.True(t, errors.Is(rs.MoveClass(-1, 0), ErrOutOfRange))
}

func TestUpdateRange_InvalidIndex(t *testing.T) {
	rs := contiguous(0, 1)
	assert.False(t, rs.UpdateRangeLowerValue(1, 3))
	assert.False(t, rs.UpdateRangeUpperValue(-1, 3))
	assert.False(t, rs.UpdateRangeLabel(2, "x"))
	assert.False(t, rs.UpdateRangeSymbol(9, &FillSymbol{}))
	assert.False(t, rs.UpdateRangeRenderState(9, false))

	assert.True(t, rs.UpdateRangeLowerValue(0, -1))
	assert.True(t, rs.UpdateRangeUpperValue(0, 2))
	r, _ := rs.Range(0)
	assert.Equal(t, -1.0, r.Lower())
	assert.Equal(t, 2.0, r.Upper())
}

func TestRangesOverlapAndGaps(t *testing.T) {
	rs := contiguous(0, 10, 20)
	assert.False(t, rs.RangesOverlap())
	assert.False(t, rs.RangesHaveGaps())

	rs.UpdateRangeUpperValue(0, 12)
	assert.True(t, rs.RangesOverlap())
	assert.False(t, rs.RangesHaveGaps())

	rs.UpdateRangeUpperValue(0, 8)
	assert.False(t, rs.RangesOverlap())
	assert.True(t, rs.RangesHaveGaps())

	// Detection works on a sorted copy; storage order is untouched.
	rs.UpdateRangeUpperValue(0, 10)
	require.NoError(t, rs.MoveClass(1, 0))
	assert.False(t, rs.RangesOverlap())
	assert.False(t, rs.RangesHaveGaps())
	r0, _ := rs.Range(0)
	assert.Equal(t, 10.0, r0.Lower())
}

func TestSortByValue(t *testing.T) {
	rs := contiguous(0, 1, 2, 3)
	require.NoError(t, rs.MoveClass(0, 2))

	rs.SortByValue(Ascending)
	assert.Equal(t, []float64{0, 1, 2}, lowerBounds(rs))

	rs.SortByValue(Descending)
	assert.Equal(t, []float64{2, 1, 0}, lowerBounds(rs))
}

func TestSortByLabel(t *testing.T) {
	rs := contiguous(0, 1, 2, 3)
	rs.UpdateRangeLabel(0, "beta")
	rs.UpdateRangeLabel(1, "Alpha")
	rs.UpdateRangeLabel(2, "class 10")

	rs.SortByLabel(Ascending)
	assert.Equal(t, []string{"Alpha", "beta", "class 10"}, labels(rs))

	rs.SortByLabel(Descending)
	assert.Equal(t, []string{"class 10", "beta", "Alpha"}, labels(rs))
}

func TestSortByLabel_Numeric(t *testing.T) {
	rs := contiguous(0, 1, 2)
	rs.UpdateRangeLabel(0, "class 10")
	rs.UpdateRangeLabel(1, "class 9")
	rs.SortByLabel(Ascending)
	assert.Equal(t, []string{"class 9", "class 10"}, labels(rs))
}

func TestSetLabelFormat_KeepsManualLabels(t *testing.T) {
	rs := contiguous(0, 10, 20)
	rs.UpdateRangeLabel(1, "high")

	lf, err := NewLabelFormat("%1 to %2", 0, false)
	require.NoError(t, err)
	rs.SetLabelFormat(lf, true)
	assert.Equal(t, []string{"0 to 10", "high"}, labels(rs))
	assert.True(t, rs.LabelFormat().Equal(lf))
}

func TestCalculateLabelPrecision(t *testing.T) {
	tests := []struct {
		name   string
		breaks []float64
		want   int
	}{
		{"wide classes", []float64{0, 100, 200}, 0},
		{"unit classes", []float64{0, 1, 2}, 1},
		{"tenths", []float64{0, 0.5, 0.6}, 2},
		{"tiny", []float64{0, 1e-9, 1}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := contiguous(tt.breaks...)
			rs.CalculateLabelPrecision(true)
			assert.Equal(t, tt.want, rs.LabelFormat().Precision())
		})
	}
}

func TestCalculateLabelPrecision_RelabelsDefaults(t *testing.T) {
	rs := contiguous(0, 100, 200)
	rs.UpdateRangeLabel(1, "top")
	rs.CalculateLabelPrecision(true)
	assert.Equal(t, []string{"0 - 100", "top"}, labels(rs))

	rs = contiguous(0, 100, 200)
	rs.CalculateLabelPrecision(false)
	assert.Equal(t, "0.0000 - 100.0000", labels(rs)[0])
}

func TestCalculateLabelPrecision_DegenerateOnly(t *testing.T) {
	rs := contiguous(5, 5)
	rs.CalculateLabelPrecision(true)
	assert.Equal(t, DefaultPrecision, rs.LabelFormat().Precision())
}

func TestClone_IsDeep(t *testing.T) {
	rs := contiguous(0, 10, 20)
	rs.SetSourceColorRamp(grayRamp())
	c := rs.Clone()

	c.UpdateRangeLabel(0, "changed")
	c.UpdateColorRamp(&PresetRamp{Colors: []color.RGBA{blue}})

	r0, _ := rs.Range(0)
	assert.NotEqual(t, "changed", r0.Label())
	assert.Equal(t, red, r0.Symbol().Color())
	_, isGradient := rs.SourceColorRamp().(*GradientRamp)
	assert.True(t, isGradient)
}

func TestRangeAccessorsReturnCopies(t *testing.T) {
	rs := contiguous(0, 10)
	r, _ := rs.Range(0)
	r.Symbol().SetColor(blue)
	r.SetLabel("mutated")

	again, _ := rs.Range(0)
	assert.Equal(t, red, again.Symbol().Color())
	assert.NotEqual(t, "mutated", again.Label())

	_, ok := rs.Range(3)
	assert.False(t, ok)
}

func TestUsedAttributesAndDump(t *testing.T) {
	rs := contiguous(0, 10)
	assert.Equal(t, []string{"pop"}, rs.UsedAttributes())
	assert.Nil(t, New("").UsedAttributes())
	assert.Contains(t, rs.Dump(), "GRADUATED: attr pop mode custom method color")
	assert.Contains(t, rs.Dump(), "0 - 10::marker #ff0000")
	assert.Len(t, rs.Symbols(), 1)
}

func lowerBounds(rs *RangeSet) []float64 {
	var out []float64
	for _, r := range rs.Ranges() {
		out = append(out, r.Lower())
	}
	return out
}

func labels(rs *RangeSet) []string {
	var out []string
	for _, r := range rs.Ranges() {
		out = append(out, r.Label())
	}
	return out
}
