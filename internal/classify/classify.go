// Package classify computes class breakpoints for graduated (choropleth)
// classification of numeric attribute samples.
package classify

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// MaxClasses is the largest class count Classify accepts.
const MaxClasses = 100

// Result is the outcome of a classification run.
type Result struct {
	Mode      Mode
	Requested int
	// Breaks holds the class boundaries, lowest first. Class i spans
	// [Breaks[i], Breaks[i+1]].
	Breaks []float64
	// Degenerate is set when the sample had fewer distinct values than
	// requested classes (including empty and single-valued samples).
	Degenerate bool
	// StdDevMultiples holds, for StdDev results, the standard deviation
	// multiple of each interior break.
	StdDevMultiples []float64
	// Min and Max are the observed sample bounds.
	Min, Max float64
}

// Bounds is one class interval. Index is the position in Breaks of the
// interval's lower bound.
type Bounds struct {
	Lower, Upper float64
	Index        int
}

// Classes returns the class intervals described by Breaks. Consecutive
// intervals with identical bounds, produced by tied quantiles or clamped
// standard deviation breaks, are merged into one.
func (r *Result) Classes() []Bounds {
	if r == nil || len(r.Breaks) < 2 {
		return nil
	}
	out := make([]Bounds, 0, len(r.Breaks)-1)
	for i := 0; i+1 < len(r.Breaks); i++ {
		b := Bounds{Lower: r.Breaks[i], Upper: r.Breaks[i+1], Index: i}
		if n := len(out); n > 0 && out[n-1].Lower == b.Lower && out[n-1].Upper == b.Upper {
			continue
		}
		out = append(out, b)
	}
	return out
}

// EffectiveClasses returns the number of distinct classes after merging.
func (r *Result) EffectiveClasses() int {
	return len(r.Classes())
}

// Collapsed reports whether fewer classes were produced than requested.
func (r *Result) Collapsed() bool {
	return r.EffectiveClasses() < r.Requested
}

// Classify computes breakpoints for values using mode and the requested
// number of classes, at most MaxClasses. NaN and infinite samples are
// ignored. Custom mode has no computation and is rejected; use FromBreaks for
// caller-supplied breaks.
//
// Empty input yields [0, 0] and single-valued input [v, v], both flagged
// Degenerate.
func Classify(values []float64, mode Mode, classes int) (*Result, error) {
	if classes < 1 || classes > MaxClasses {
		return nil, eris.Wrapf(ErrInvalidArgument, "classify: class count %d outside [1, %d]", classes, MaxClasses)
	}
	if mode == Custom {
		return nil, eris.Wrap(ErrInvalidArgument, "classify: custom breaks must be supplied by the caller")
	}
	if mode < EqualInterval || mode > Custom {
		return nil, eris.Wrapf(ErrInvalidArgument, "classify: unknown mode %d", int(mode))
	}

	sorted := finiteSorted(values)
	res := &Result{Mode: mode, Requested: classes}
	if len(sorted) == 0 {
		res.Breaks = []float64{0, 0}
		res.Degenerate = true
		return res, nil
	}
	res.Min, res.Max = sorted[0], sorted[len(sorted)-1]
	if res.Min == res.Max {
		res.Breaks = []float64{res.Min, res.Max}
		res.Degenerate = true
		return res, nil
	}

	switch mode {
	case EqualInterval:
		res.Breaks = equalIntervalBreaks(res.Min, res.Max, classes)
	case Quantile:
		res.Breaks = quantileBreaks(sorted, classes)
		res.Degenerate = countDistinct(sorted) < classes
	case Jenks:
		res.Breaks, res.Degenerate = jenksBreaks(sorted, classes)
	case StdDev:
		res.Breaks, res.StdDevMultiples = stdDevBreaks(sorted, classes)
	case Pretty:
		res.Breaks = prettyBreaks(res.Min, res.Max, classes)
	}
	return res, nil
}

// FromBreaks wraps caller-supplied breakpoints in a Custom result. The
// breaks must be finite, non-decreasing, and at least two long.
func FromBreaks(breaks []float64) (*Result, error) {
	if len(breaks) < 2 {
		return nil, eris.Wrapf(ErrInvalidArgument, "classify: need at least 2 breaks, got %d", len(breaks))
	}
	for i, b := range breaks {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, eris.Wrapf(ErrInvalidArgument, "classify: break %d is not finite", i)
		}
		if i > 0 && b < breaks[i-1] {
			return nil, eris.Wrapf(ErrInvalidArgument, "classify: break %d (%g) below previous (%g)", i, b, breaks[i-1])
		}
	}
	out := append([]float64(nil), breaks...)
	return &Result{
		Mode:      Custom,
		Requested: len(out) - 1,
		Breaks:    out,
		Min:       out[0],
		Max:       out[len(out)-1],
	}, nil
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func countDistinct(sorted []float64) int {
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}

func equalIntervalBreaks(lo, hi float64, classes int) []float64 {
	step := (hi - lo) / float64(classes)
	breaks := make([]float64, classes+1)
	for i := range breaks {
		breaks[i] = lo + float64(i)*step
	}
	// Accumulated rounding must not leave the maximum outside the last class.
	breaks[classes] = hi
	return breaks
}

// quantileBreaks interpolates between the two order statistics surrounding
// q*(n-1). Ties yield coincident breaks, merged later by Result.Classes.
func quantileBreaks(sorted []float64, classes int) []float64 {
	n := len(sorted)
	breaks := make([]float64, 0, classes+1)
	breaks = append(breaks, sorted[0])
	for i := 1; i < classes; i++ {
		q := float64(i) / float64(classes)
		a := q * float64(n-1)
		aa := int(a)
		r := a - float64(aa)
		xq := sorted[aa]
		if aa+1 < n && sorted[aa+1] != xq {
			xq = (1-r)*sorted[aa] + r*sorted[aa+1]
		}
		xq = math.Min(math.Max(xq, breaks[len(breaks)-1]), sorted[n-1])
		breaks = append(breaks, xq)
	}
	return append(breaks, sorted[n-1])
}
