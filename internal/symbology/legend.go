package symbology

import "strconv"

// LegendItem is one legend row. Key identifies the range for check-state and
// symbol updates.
type LegendItem struct {
	Key       string      `json:"key" yaml:"key"`
	Label     string      `json:"label" yaml:"label"`
	Symbol    Symbol      `json:"-" yaml:"-"`
	Style     *Style      `json:"style,omitempty" yaml:"style,omitempty"`
	Checkable bool        `json:"checkable" yaml:"checkable"`
	Checked   bool        `json:"checked" yaml:"checked"`
	Sizes     []SizeClass `json:"sizes,omitempty" yaml:"sizes,omitempty"`
}

// SizeClass is one entry of a collapsed size legend.
type SizeClass struct {
	Label string  `json:"label" yaml:"label"`
	Size  float64 `json:"size" yaml:"size"`
}

// LegendOptions tunes LegendItems.
type LegendOptions struct {
	// IncludeHidden keeps hidden ranges, reported unchecked.
	IncludeHidden bool
	// CollapseSizes folds a size-graduated legend into a single item that
	// lists every class size.
	CollapseSizes bool
}

// CollapsedLegendKey is the key of the single collapsed size legend item.
const CollapsedLegendKey = "sizes"

// LegendItems lists legend rows in range order.
func (rs *RangeSet) LegendItems(opts LegendOptions) []LegendItem {
	if opts.CollapseSizes && rs.method == GraduatedSize {
		return rs.collapsedLegend(opts)
	}
	items := make([]LegendItem, 0, len(rs.ranges))
	for i, r := range rs.ranges {
		if !r.render && !opts.IncludeHidden {
			continue
		}
		item := LegendItem{
			Key:       strconv.Itoa(i),
			Label:     r.label,
			Checkable: true,
			Checked:   r.render,
		}
		if r.symbol != nil {
			item.Symbol = r.symbol.Clone()
			st := r.symbol.Render()
			item.Style = &st
		}
		items = append(items, item)
	}
	return items
}

func (rs *RangeSet) collapsedLegend(opts LegendOptions) []LegendItem {
	item := LegendItem{Key: CollapsedLegendKey, Label: rs.attribute, Checked: true}
	if rs.sourceSymbol != nil {
		item.Symbol = rs.sourceSymbol.Clone()
		st := rs.sourceSymbol.Render()
		item.Style = &st
	}
	for _, r := range rs.ranges {
		if (!r.render && !opts.IncludeHidden) || r.symbol == nil {
			continue
		}
		item.Sizes = append(item.Sizes, SizeClass{Label: r.label, Size: r.symbol.Size()})
	}
	return []LegendItem{item}
}

func (rs *RangeSet) legendIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || !rs.validIndex(i) {
		return -1, false
	}
	return i, true
}

// LegendItemChecked reports whether the range behind key is drawn.
func (rs *RangeSet) LegendItemChecked(key string) bool {
	i, ok := rs.legendIndex(key)
	return ok && rs.ranges[i].render
}

// CheckLegendItem shows or hides the range behind key.
func (rs *RangeSet) CheckLegendItem(key string, state bool) bool {
	i, ok := rs.legendIndex(key)
	return ok && rs.UpdateRangeRenderState(i, state)
}

// SetLegendSymbol replaces the symbol of the range behind key, taking
// ownership of sym.
func (rs *RangeSet) SetLegendSymbol(key string, sym Symbol) bool {
	i, ok := rs.legendIndex(key)
	return ok && rs.UpdateRangeSymbol(i, sym)
}
