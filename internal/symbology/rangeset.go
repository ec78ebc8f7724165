package symbology

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/choropleth/internal/classify"
)

// ValueSource samples the numeric values of an attribute across a feature
// set, excluding nulls.
type ValueSource interface {
	Values(ctx context.Context, attribute string) ([]float64, error)
}

// SortOrder selects ascending or descending sorts.
type SortOrder int

// Sort orders.
const (
	Ascending SortOrder = iota
	Descending
)

// Default symbol size interval used by size graduation.
const (
	DefaultMinSize = 1.0
	DefaultMaxSize = 8.0
)

// RangeSet is a graduated renderer: an ordered list of ranges classifying
// one attribute. List order is legend and lookup order; it need not follow
// values. Overlaps and gaps are allowed and can be detected with
// RangesOverlap and RangesHaveGaps.
//
// A RangeSet owns its ranges, source symbol and source ramp. It is not safe
// for concurrent use.
type RangeSet struct {
	attribute    string
	ranges       []Range
	mode         classify.Mode
	method       GraduatedMethod
	sourceSymbol Symbol
	sourceRamp   ColorRamp
	labelFormat  LabelFormat
	minSize      float64
	maxSize      float64
}

// New creates a RangeSet for attribute in Custom mode. When ranges are given
// the first one's symbol becomes the source symbol template.
func New(attribute string, ranges ...Range) *RangeSet {
	rs := &RangeSet{
		attribute:   attribute,
		ranges:      append([]Range(nil), ranges...),
		mode:        classify.Custom,
		method:      GraduatedColor,
		labelFormat: DefaultFormat(),
		minSize:     DefaultMinSize,
		maxSize:     DefaultMaxSize,
	}
	if len(ranges) > 0 && ranges[0].symbol != nil {
		rs.sourceSymbol = ranges[0].symbol.Clone()
	}
	return rs
}

// Create builds a RangeSet for attribute from src, classified with mode into
// n classes, symbolized from symbol and ramp, and labelled with format.
// Ownership of symbol and ramp passes to the RangeSet.
func Create(ctx context.Context, src ValueSource, attribute string, n int, mode classify.Mode,
	symbol Symbol, ramp ColorRamp, format LabelFormat,
) (*RangeSet, *classify.Result, error) {
	rs := New(attribute)
	rs.sourceSymbol = symbol
	rs.sourceRamp = ramp
	rs.labelFormat = format
	res, err := rs.UpdateClasses(ctx, src, mode, n)
	if err != nil {
		return nil, nil, err
	}
	return rs, res, nil
}

// Attribute returns the classified attribute name.
func (rs *RangeSet) Attribute() string { return rs.attribute }

// SetAttribute changes the classified attribute.
func (rs *RangeSet) SetAttribute(attribute string) { rs.attribute = attribute }

// UsedAttributes lists the attributes needed to evaluate features.
func (rs *RangeSet) UsedAttributes() []string {
	if rs.attribute == "" {
		return nil
	}
	return []string{rs.attribute}
}

// Mode returns the classification mode.
func (rs *RangeSet) Mode() classify.Mode { return rs.mode }

// SetMode records the mode without reclassifying.
func (rs *RangeSet) SetMode(m classify.Mode) { rs.mode = m }

// GraduatedMethod returns whether classes vary by color or size.
func (rs *RangeSet) GraduatedMethod() GraduatedMethod { return rs.method }

// SetGraduatedMethod sets the graduation method without touching symbols.
func (rs *RangeSet) SetGraduatedMethod(m GraduatedMethod) { rs.method = m }

// LabelFormat returns the default label format.
func (rs *RangeSet) LabelFormat() LabelFormat { return rs.labelFormat }

// SourceSymbol returns a copy of the symbol template, nil if unset.
func (rs *RangeSet) SourceSymbol() Symbol {
	if rs.sourceSymbol == nil {
		return nil
	}
	return rs.sourceSymbol.Clone()
}

// SetSourceSymbol replaces the symbol template, taking ownership of s.
func (rs *RangeSet) SetSourceSymbol(s Symbol) { rs.sourceSymbol = s }

// SourceColorRamp returns a copy of the source ramp, nil if unset.
func (rs *RangeSet) SourceColorRamp() ColorRamp {
	if rs.sourceRamp == nil {
		return nil
	}
	return rs.sourceRamp.Clone()
}

// SetSourceColorRamp replaces the ramp without recoloring, taking ownership.
func (rs *RangeSet) SetSourceColorRamp(r ColorRamp) { rs.sourceRamp = r }

// Len returns the number of classes.
func (rs *RangeSet) Len() int { return len(rs.ranges) }

// Range returns a copy of the range at i.
func (rs *RangeSet) Range(i int) (Range, bool) {
	if !rs.validIndex(i) {
		return Range{}, false
	}
	return rs.ranges[i].Clone(), true
}

// Ranges returns copies of all ranges in list order.
func (rs *RangeSet) Ranges() []Range {
	out := make([]Range, len(rs.ranges))
	for i, r := range rs.ranges {
		out[i] = r.Clone()
	}
	return out
}

// Symbols returns copies of every range symbol in list order.
func (rs *RangeSet) Symbols() []Symbol {
	out := make([]Symbol, 0, len(rs.ranges))
	for _, r := range rs.ranges {
		if r.symbol != nil {
			out = append(out, r.symbol.Clone())
		}
	}
	return out
}

// Clone deep-copies the set, including symbols and ramp.
func (rs *RangeSet) Clone() *RangeSet {
	c := *rs
	c.ranges = rs.Ranges()
	c.sourceSymbol = rs.SourceSymbol()
	c.sourceRamp = rs.SourceColorRamp()
	return &c
}

func (rs *RangeSet) validIndex(i int) bool {
	return i >= 0 && i < len(rs.ranges)
}

func (rs *RangeSet) templateSymbol() Symbol {
	if rs.sourceSymbol != nil {
		return rs.sourceSymbol.Clone()
	}
	return DefaultSymbol(SymbolFill)
}

// UpdateRangeSymbol replaces the symbol at i, taking ownership of s.
func (rs *RangeSet) UpdateRangeSymbol(i int, s Symbol) bool {
	if !rs.validIndex(i) {
		return false
	}
	rs.ranges[i].symbol = s
	return true
}

// UpdateRangeLabel sets the label at i.
func (rs *RangeSet) UpdateRangeLabel(i int, label string) bool {
	if !rs.validIndex(i) {
		return false
	}
	rs.ranges[i].label = label
	return true
}

// UpdateRangeUpperValue sets the upper bound at i.
func (rs *RangeSet) UpdateRangeUpperValue(i int, v float64) bool {
	if !rs.validIndex(i) {
		return false
	}
	rs.ranges[i].upper = v
	return true
}

// UpdateRangeLowerValue sets the lower bound at i.
func (rs *RangeSet) UpdateRangeLowerValue(i int, v float64) bool {
	if !rs.validIndex(i) {
		return false
	}
	rs.ranges[i].lower = v
	return true
}

// UpdateRangeRenderState shows or hides the range at i.
func (rs *RangeSet) UpdateRangeRenderState(i int, render bool) bool {
	if !rs.validIndex(i) {
		return false
	}
	rs.ranges[i].render = render
	return true
}

// AddRange appends r, taking ownership of its symbol.
func (rs *RangeSet) AddRange(r Range) {
	rs.ranges = append(rs.ranges, r)
}

// AddSymbolClass appends a [0, 0] range drawn with sym.
func (rs *RangeSet) AddSymbolClass(sym Symbol) {
	rs.AddRange(NewRange(0, 0, sym, rs.labelFormat.LabelForRange(0, 0)))
}

// AddClass appends [lower, upper] with a copy of the source symbol, colored
// for its position at the end of the list.
func (rs *RangeSet) AddClass(lower, upper float64) {
	sym := rs.templateSymbol()
	n := len(rs.ranges) + 1
	if rs.method == GraduatedColor && rs.sourceRamp != nil {
		sym.SetColor(rs.sourceRamp.Color(rampFraction(n-1, n)))
	}
	rs.AddRange(NewRange(lower, upper, sym, rs.labelFormat.LabelForRange(lower, upper)))
}

// AddBreak splits the range containing v at v. The containing range is the
// first whose [lower, upper) covers v, the first range being closed at both
// ends. A v on an existing boundary, or outside every range, changes
// nothing and returns false. When updateSymbols is set, colors or sizes are
// reassigned across the enlarged set.
func (rs *RangeSet) AddBreak(v float64, updateSymbols bool) bool {
	idx := -1
	for i, r := range rs.ranges {
		if (r.lower <= v && v < r.upper) || (i == 0 && r.lower <= v && v <= r.upper) {
			idx = i
			break
		}
	}
	if idx < 0 || rs.ranges[idx].lower == v || rs.ranges[idx].upper == v {
		return false
	}

	old := &rs.ranges[idx]
	upper := Range{lower: v, upper: old.upper, symbol: rs.templateSymbol(), render: true}
	upper.label = rs.labelFormat.LabelFor(upper)

	defaultLabel := old.label == rs.labelFormat.LabelFor(*old)
	old.upper = v
	if defaultLabel {
		old.label = rs.labelFormat.LabelFor(*old)
	}

	rs.ranges = append(rs.ranges, Range{})
	copy(rs.ranges[idx+2:], rs.ranges[idx+1:])
	rs.ranges[idx+1] = upper

	if updateSymbols {
		rs.assignSymbols()
	}
	return true
}

// DeleteClass removes the range at i.
func (rs *RangeSet) DeleteClass(i int) error {
	if !rs.validIndex(i) {
		return eris.Wrapf(ErrOutOfRange, "symbology: delete class %d of %d", i, len(rs.ranges))
	}
	rs.ranges = slices.Delete(rs.ranges, i, i+1)
	return nil
}

// DeleteAllClasses removes every range.
func (rs *RangeSet) DeleteAllClasses() {
	rs.ranges = nil
}

// MoveClass moves the range at from to position to. Values and symbols are
// unchanged; only legend and lookup order move.
func (rs *RangeSet) MoveClass(from, to int) error {
	if !rs.validIndex(from) || !rs.validIndex(to) {
		return eris.Wrapf(ErrOutOfRange, "symbology: move class %d to %d of %d", from, to, len(rs.ranges))
	}
	r := rs.ranges[from]
	rs.ranges = slices.Insert(slices.Delete(rs.ranges, from, from+1), to, r)
	return nil
}

func (rs *RangeSet) sortedCopy() []Range {
	sorted := append([]Range(nil), rs.ranges...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted
}

// RangesOverlap reports whether, ordered by value, any range's upper bound
// passes the next range's lower bound. Touching bounds do not overlap.
func (rs *RangeSet) RangesOverlap() bool {
	sorted := rs.sortedCopy()
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].upper, sorted[i].lower
		if prev > cur && !nearlyEqual(prev, cur) {
			return true
		}
	}
	return false
}

// RangesHaveGaps reports whether, ordered by value, any range's upper bound
// falls short of the next range's lower bound.
func (rs *RangeSet) RangesHaveGaps() bool {
	sorted := rs.sortedCopy()
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].upper, sorted[i].lower
		if prev < cur && !nearlyEqual(prev, cur) {
			return true
		}
	}
	return false
}

// SortByValue stably reorders ranges by lower then upper bound.
func (rs *RangeSet) SortByValue(order SortOrder) {
	sort.SliceStable(rs.ranges, func(i, j int) bool {
		if order == Descending {
			return rs.ranges[j].Less(rs.ranges[i])
		}
		return rs.ranges[i].Less(rs.ranges[j])
	})
}

// SortByLabel stably reorders ranges by label using locale-aware collation.
func (rs *RangeSet) SortByLabel(order SortOrder) {
	col := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(rs.ranges, func(i, j int) bool {
		c := col.CompareString(rs.ranges[i].label, rs.ranges[j].label)
		if order == Descending {
			return c > 0
		}
		return c < 0
	})
}

// UpdateClasses samples the attribute from src, classifies it with mode into
// n classes and rebuilds every range with default labels and regenerated
// symbols. Tied or clamped breaks merge, so fewer than n classes may result;
// the returned Result tells callers by how much.
//
// Custom mode only records the mode: ranges are left alone and the result
// is nil.
func (rs *RangeSet) UpdateClasses(ctx context.Context, src ValueSource, mode classify.Mode, n int) (*classify.Result, error) {
	if rs.attribute == "" {
		return nil, eris.Wrap(ErrInvalidArgument, "symbology: no classification attribute")
	}
	if mode == classify.Custom {
		rs.mode = mode
		return nil, nil
	}

	values, err := src.Values(ctx, rs.attribute)
	if err != nil {
		return nil, eris.Wrapf(err, "symbology: sample %s", rs.attribute)
	}
	res, err := classify.Classify(values, mode, n)
	if err != nil {
		return nil, eris.Wrapf(err, "symbology: classify %s", rs.attribute)
	}
	rs.mode = mode
	rs.applyResult(res)

	log := zap.L().With(zap.String("component", "symbology"), zap.String("attribute", rs.attribute))
	if res.Collapsed() {
		log.Warn("fewer classes than requested",
			zap.String("mode", mode.String()),
			zap.Int("requested", n),
			zap.Int("classes", res.EffectiveClasses()),
			zap.Int("samples", len(values)),
		)
	}
	log.Debug("classified", zap.Float64s("breaks", res.Breaks))
	return res, nil
}

// SetBreaks replaces the ranges with classes built from caller-supplied
// breaks and switches to Custom mode.
func (rs *RangeSet) SetBreaks(breaks []float64) error {
	res, err := classify.FromBreaks(breaks)
	if err != nil {
		return eris.Wrap(err, "symbology: set breaks")
	}
	rs.mode = classify.Custom
	rs.applyResult(res)
	return nil
}

func (rs *RangeSet) applyResult(res *classify.Result) {
	rs.DeleteAllClasses()
	for _, b := range res.Classes() {
		label := res.StdDevLabel(b.Index)
		if label == "" {
			label = rs.labelFormat.LabelForRange(b.Lower, b.Upper)
		}
		rs.AddRange(NewRange(b.Lower, b.Upper, rs.templateSymbol(), label))
	}
	rs.assignSymbols()
}

// SetLabelFormat replaces the default label format. With updateRanges set,
// ranges still carrying the old default label are relabelled; manually
// edited labels are kept.
func (rs *RangeSet) SetLabelFormat(f LabelFormat, updateRanges bool) {
	if updateRanges {
		for i := range rs.ranges {
			r := &rs.ranges[i]
			if r.label == rs.labelFormat.LabelFor(*r) {
				r.label = f.LabelFor(*r)
			}
		}
	}
	rs.labelFormat = f
}

// CalculateLabelPrecision picks enough decimals to tell apart the bounds of
// the narrowest class (at most 10, as few as 0 for classes wider than 99),
// then optionally relabels ranges using the default format.
func (rs *RangeSet) CalculateLabelPrecision(updateRanges bool) {
	minWidth := 0.0
	for _, r := range rs.ranges {
		w := r.upper - r.lower
		if w <= 0 {
			continue
		}
		if minWidth == 0 || w < minWidth {
			minWidth = w
		}
	}
	if minWidth <= 0 {
		return
	}

	ndp := 10
	next := 0.0000000099
	for ndp > 0 && next < minWidth {
		ndp--
		next *= 10
	}

	f := rs.labelFormat
	f.SetPrecision(ndp)
	if updateRanges {
		rs.SetLabelFormat(f, true)
		return
	}
	rs.labelFormat = f
}

// Dump returns a debug listing of the set.
func (rs *RangeSet) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GRADUATED: attr %s mode %s method %s\n", rs.attribute, rs.mode, rs.method)
	for _, r := range rs.ranges {
		b.WriteString(r.Dump())
		b.WriteByte('\n')
	}
	return b.String()
}

// nearlyEqual compares with a tolerance relative to the operands' magnitude.
func nearlyEqual(a, b float64) bool {
	const eps = 1e-12
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
