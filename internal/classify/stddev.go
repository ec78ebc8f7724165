package classify

import (
	"math"
	"strconv"
)

// stdDevBreaks places interior breaks one population standard deviation
// apart, centred on the mean: an even class count puts a break on the mean,
// an odd one centres the middle class on it. Breaks falling outside the
// observed range are clamped onto it.
func stdDevBreaks(sorted []float64, classes int) ([]float64, []float64) {
	n := float64(len(sorted))
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / n)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	breaks := make([]float64, 0, classes+1)
	multiples := make([]float64, 0, classes-1)
	breaks = append(breaks, lo)
	for i := 1; i < classes; i++ {
		mult := float64(i) - float64(classes)/2
		b := mean + mult*sd
		b = math.Min(math.Max(b, breaks[len(breaks)-1]), hi)
		breaks = append(breaks, b)
		multiples = append(multiples, mult)
	}
	breaks = append(breaks, hi)
	return breaks, multiples
}

// StdDevLabel returns the legend label of the class whose lower bound is
// Breaks[index] in a StdDev result, in standard deviation units. It returns
// "" for other modes.
func (r *Result) StdDevLabel(index int) string {
	if r == nil || r.Mode != StdDev || len(r.StdDevMultiples) == 0 {
		return ""
	}
	last := len(r.StdDevMultiples)
	switch {
	case index <= 0:
		return "< " + sdUnit(r.StdDevMultiples[0])
	case index >= last:
		return ">= " + sdUnit(r.StdDevMultiples[last-1])
	default:
		return sdUnit(r.StdDevMultiples[index-1]) + " - " + sdUnit(r.StdDevMultiples[index])
	}
}

func sdUnit(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "-0.00" {
		s = "0.00"
	}
	return s + " Std Dev"
}
