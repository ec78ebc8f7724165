package symbology

import "math"

// rampFraction is the position of class i among n on a color ramp.
func rampFraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// assignSymbols reapplies the current graduation: ramp colors for
// GraduatedColor, the stored size interval for GraduatedSize.
func (rs *RangeSet) assignSymbols() {
	switch rs.method {
	case GraduatedSize:
		rs.SetSymbolSizes(rs.minSize, rs.maxSize)
	default:
		rs.UpdateColorRamp(nil)
	}
}

// UpdateColorRamp recolors every range from ramp (or the current source ramp
// when ramp is nil) without changing breaks. A non-nil ramp becomes the new
// source ramp.
func (rs *RangeSet) UpdateColorRamp(ramp ColorRamp) {
	if ramp != nil {
		rs.sourceRamp = ramp
	}
	if rs.sourceRamp == nil {
		return
	}
	n := len(rs.ranges)
	for i, r := range rs.ranges {
		if r.symbol == nil {
			continue
		}
		sym := r.symbol.Clone()
		sym.SetColor(rs.sourceRamp.Color(rampFraction(i, n)))
		rs.UpdateRangeSymbol(i, sym)
	}
}

// UpdateSymbols swaps every range symbol for a copy of template while keeping
// the color (GraduatedColor) or size (GraduatedSize) already assigned per
// range. template becomes the source symbol; the caller keeps ownership of
// the value passed in.
func (rs *RangeSet) UpdateSymbols(template Symbol) {
	if template == nil {
		return
	}
	for i, r := range rs.ranges {
		sym := template.Clone()
		if r.symbol != nil {
			switch rs.method {
			case GraduatedColor:
				sym.SetColor(r.symbol.Color())
			case GraduatedSize:
				if sizable(r.symbol) && sizable(sym) {
					sym.SetSize(r.symbol.Size())
				}
			}
		}
		rs.UpdateRangeSymbol(i, sym)
	}
	rs.sourceSymbol = template.Clone()
}

// SetSymbolSizes spreads marker sizes or line widths linearly from minSize
// (first range) to maxSize (last range). A single range gets the midpoint.
// Fill symbols have no size and are left alone.
func (rs *RangeSet) SetSymbolSizes(minSize, maxSize float64) {
	rs.minSize, rs.maxSize = minSize, maxSize
	n := len(rs.ranges)
	for i, r := range rs.ranges {
		if r.symbol == nil || !sizable(r.symbol) {
			continue
		}
		size := 0.5 * (minSize + maxSize)
		if n > 1 {
			size = minSize + float64(i)*(maxSize-minSize)/float64(n-1)
		}
		sym := r.symbol.Clone()
		sym.SetSize(size)
		rs.UpdateRangeSymbol(i, sym)
	}
}

// MinSymbolSize returns the smallest marker size or line width among the
// ranges, 0 when none is sized.
func (rs *RangeSet) MinSymbolSize() float64 {
	lo, _ := rs.sizeBounds()
	return lo
}

// MaxSymbolSize returns the largest marker size or line width among the
// ranges, 0 when none is sized.
func (rs *RangeSet) MaxSymbolSize() float64 {
	_, hi := rs.sizeBounds()
	return hi
}

func (rs *RangeSet) sizeBounds() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rs.ranges {
		if r.symbol == nil || !sizable(r.symbol) {
			continue
		}
		lo = math.Min(lo, r.symbol.Size())
		hi = math.Max(hi, r.symbol.Size())
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func sizable(s Symbol) bool {
	t := s.Type()
	return t == SymbolMarker || t == SymbolLine
}
