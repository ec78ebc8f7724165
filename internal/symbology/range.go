package symbology

import "fmt"

// Range is one class: a closed interval [Lower, Upper] with the symbol and
// label used to draw and describe it. A Range owns its symbol.
type Range struct {
	lower, upper float64
	symbol       Symbol
	label        string
	render       bool
}

// NewRange creates a visible range. The symbol is owned by the range from
// here on; callers must not keep modifying it.
func NewRange(lower, upper float64, symbol Symbol, label string) Range {
	return Range{lower: lower, upper: upper, symbol: symbol, label: label, render: true}
}

// Lower returns the lower bound.
func (r Range) Lower() float64 { return r.lower }

// Upper returns the upper bound.
func (r Range) Upper() float64 { return r.upper }

// Symbol returns the range symbol, nil if unset.
func (r Range) Symbol() Symbol { return r.symbol }

// Label returns the display label.
func (r Range) Label() string { return r.label }

// RenderState reports whether the range is drawn.
func (r Range) RenderState() bool { return r.render }

// SetLower sets the lower bound.
func (r *Range) SetLower(v float64) { r.lower = v }

// SetUpper sets the upper bound.
func (r *Range) SetUpper(v float64) { r.upper = v }

// SetSymbol replaces the symbol, taking ownership of s.
func (r *Range) SetSymbol(s Symbol) { r.symbol = s }

// SetLabel sets the display label.
func (r *Range) SetLabel(label string) { r.label = label }

// SetRenderState shows or hides the range.
func (r *Range) SetRenderState(render bool) { r.render = render }

// Contains reports lower <= v <= upper.
func (r Range) Contains(v float64) bool {
	return r.lower <= v && v <= r.upper
}

// Clone returns a copy with its own symbol.
func (r Range) Clone() Range {
	c := r
	if r.symbol != nil {
		c.symbol = r.symbol.Clone()
	}
	return c
}

// Less orders ranges by lower bound, then upper bound.
func (r Range) Less(other Range) bool {
	if r.lower != other.lower {
		return r.lower < other.lower
	}
	return r.upper < other.upper
}

// Dump returns a debug representation.
func (r Range) Dump() string {
	sym := "<nil>"
	if r.symbol != nil {
		st := r.symbol.Render()
		sym = fmt.Sprintf("%s %s", st.Type, st.Color)
	}
	return fmt.Sprintf("%g - %g::%s::%s::%t", r.lower, r.upper, sym, r.label, r.render)
}
