package symbology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegendItems(t *testing.T) {
	rs := contiguous(0, 10, 20, 30)
	require.True(t, rs.UpdateRangeRenderState(1, false))

	items := rs.LegendItems(LegendOptions{})
	require.Len(t, items, 2)
	assert.Equal(t, "0", items[0].Key)
	assert.Equal(t, "2", items[1].Key)
	assert.Equal(t, "20.0000 - 30.0000", items[1].Label)
	assert.True(t, items[0].Checkable)
	assert.True(t, items[0].Checked)
	require.NotNil(t, items[0].Style)
	assert.Equal(t, "#ff0000", items[0].Style.Color)

	all := rs.LegendItems(LegendOptions{IncludeHidden: true})
	require.Len(t, all, 3)
	assert.False(t, all[1].Checked)
}

func TestLegendItems_SymbolsAreCopies(t *testing.T) {
	rs := contiguous(0, 10)
	items := rs.LegendItems(LegendOptions{})
	items[0].Symbol.SetColor(blue)
	assert.Equal(t, red, rs.Symbols()[0].Color())
}

func TestLegendItems_CollapsedSizes(t *testing.T) {
	rs := contiguous(0, 10, 20, 30)
	rs.SetGraduatedMethod(GraduatedSize)
	rs.SetSymbolSizes(2, 6)

	items := rs.LegendItems(LegendOptions{CollapseSizes: true})
	require.Len(t, items, 1)
	assert.Equal(t, CollapsedLegendKey, items[0].Key)
	assert.Equal(t, "pop", items[0].Label)
	require.Len(t, items[0].Sizes, 3)
	assert.Equal(t, 2.0, items[0].Sizes[0].Size)
	assert.Equal(t, 6.0, items[0].Sizes[2].Size)

	// Color graduation ignores CollapseSizes.
	rs.SetGraduatedMethod(GraduatedColor)
	assert.Len(t, rs.LegendItems(LegendOptions{CollapseSizes: true}), 3)
}

func TestCheckLegendItem(t *testing.T) {
	rs := contiguous(0, 10, 20)
	assert.True(t, rs.LegendItemChecked("1"))
	assert.True(t, rs.CheckLegendItem("1", false))
	assert.False(t, rs.LegendItemChecked("1"))

	_, ok := rs.SymbolForValue(15)
	assert.False(t, ok)

	assert.False(t, rs.CheckLegendItem("7", true))
	assert.False(t, rs.CheckLegendItem("x", true))
	assert.False(t, rs.LegendItemChecked("x"))
}

func TestSetLegendSymbol(t *testing.T) {
	rs := contiguous(0, 10, 20)
	assert.True(t, rs.SetLegendSymbol("0", &FillSymbol{Fill: blue}))
	sym, ok := rs.SymbolForValue(5)
	require.True(t, ok)
	assert.Equal(t, SymbolFill, sym.Type())
	assert.False(t, rs.SetLegendSymbol("-1", &FillSymbol{}))
}
