package classify

import "math"

// Tuning constants of the pretty algorithm, as in R's pretty().
const (
	prettyShrink   = 0.75
	prettyHighBias = 1.5
	prettyEps      = 1e-07
	// prettySmallEps and prettyMinCell are DBL_EPSILON and 20*DBL_MIN.
	prettySmallEps = 2.220446049250313e-16
	prettyMinCell  = 20 * 2.2250738585072014e-308
)

// prettyBreaks returns about classes+1 equally spaced round values (1, 2 or 5
// times a power of ten) covering [lo, hi]. The first and last break may lie
// outside the observed range and the class count may differ from the request.
func prettyBreaks(lo, hi float64, classes int) []float64 {
	minCount := classes / 3
	adjustBias := 0.5 + 1.5*prettyHighBias
	h := prettyHighBias
	dx := hi - lo

	var cell float64
	small := false
	if dx == 0 && hi == 0 {
		cell = 1
		small = true
	} else {
		cell = math.Max(math.Abs(lo), math.Abs(hi))
		u := 1 + 1.5/(1+adjustBias)
		if adjustBias >= 1.5*h+0.5 {
			u = 1 + 1/(1+h)
		}
		small = dx < cell*u*float64(max(1, classes))*prettySmallEps*3
	}

	if small {
		if cell > 10 {
			cell = (9 + cell/10) * prettyShrink
		}
		if minCount > 1 {
			cell /= float64(minCount)
		}
	} else {
		cell = dx
		if classes > 1 {
			cell /= float64(classes)
		}
	}
	if cell < prettyMinCell {
		cell = prettyMinCell
	}

	base := math.Pow(10, math.Floor(math.Log10(cell)))
	unit := base
	if 2*base-cell < h*(cell-unit) {
		unit = 2 * base
		if 5*base-cell < adjustBias*(cell-unit) {
			unit = 5 * base
			if 10*base-cell < h*(cell-unit) {
				unit = 10 * base
			}
		}
	}

	start := math.Floor(lo/unit + prettyEps)
	end := math.Ceil(hi/unit - prettyEps)
	for start*unit > lo+prettyEps*unit {
		start--
	}
	for end*unit < hi-prettyEps*unit {
		end++
	}

	if k := int(math.Floor(0.5 + end - start)); k < minCount {
		k = minCount - k
		if start >= 0 {
			end += float64(k / 2)
			start -= float64(k/2 + k%2)
		} else {
			start -= float64(k / 2)
			end += float64(k/2 + k%2)
		}
	}

	count := int(end - start)
	breaks := make([]float64, 0, count+1)
	for i := 0; i <= count; i++ {
		breaks = append(breaks, roundUnit((start+float64(i))*unit, unit))
	}
	return breaks
}

// roundUnit removes floating point noise from multiples of unit, e.g.
// 3*0.1 = 0.30000000000000004.
func roundUnit(v, unit float64) float64 {
	digits := -math.Floor(math.Log10(unit))
	if digits <= 0 {
		return v
	}
	p := math.Pow(10, digits)
	return math.Round(v*p) / p
}
