package classify

// MaxJenksSample caps the number of distinct values fed to the natural
// breaks dynamic program. Larger samples are thinned with a fixed stride.
const MaxJenksSample = 3000

// jenksBreaks computes Fisher-Jenks natural breaks over the distinct values
// of sorted, weighting each by its multiplicity so equal values always land
// in the same class. The break after each class is the highest value in it.
// The second return reports fewer distinct values than classes.
func jenksBreaks(sorted []float64, classes int) ([]float64, bool) {
	values, weights := distinctWeighted(sorted)
	m := len(values)

	if m <= classes {
		breaks := make([]float64, 0, m+1)
		breaks = append(breaks, values[0])
		breaks = append(breaks, values...)
		return breaks, m < classes
	}
	if classes == 1 {
		return []float64{values[0], values[m-1]}, false
	}
	if m > MaxJenksSample {
		values, weights = strideSample(values, weights, MaxJenksSample)
		m = len(values)
	}

	// Prefix sums over values shifted by their weighted mean for precision.
	var total, totalW float64
	for i, v := range values {
		total += v * weights[i]
		totalW += weights[i]
	}
	shift := total / totalW
	sw := make([]float64, m+1)
	s1 := make([]float64, m+1)
	s2 := make([]float64, m+1)
	for i, v := range values {
		d := v - shift
		sw[i+1] = sw[i] + weights[i]
		s1[i+1] = s1[i] + weights[i]*d
		s2[i+1] = s2[i] + weights[i]*d*d
	}
	// ssd is the weighted sum of squared deviations of values[i:j].
	ssd := func(i, j int) float64 {
		w := sw[j] - sw[i]
		a := s1[j] - s1[i]
		v := s2[j] - s2[i] - a*a/w
		if v < 0 {
			return 0
		}
		return v
	}

	// cost[c][j]: minimal within-class variance of values[:j] in c+1 classes.
	// split[c][j]: start index of the last class in that optimum.
	cost := make([][]float64, classes)
	split := make([][]int, classes)
	for c := range cost {
		cost[c] = make([]float64, m+1)
		split[c] = make([]int, m+1)
	}
	for j := 1; j <= m; j++ {
		cost[0][j] = ssd(0, j)
	}
	for c := 1; c < classes; c++ {
		for j := c + 1; j <= m; j++ {
			best := -1.0
			bestAt := c
			for i := c; i < j; i++ {
				v := cost[c-1][i] + ssd(i, j)
				if best < 0 || v < best {
					best = v
					bestAt = i
				}
			}
			cost[c][j] = best
			split[c][j] = bestAt
		}
	}

	breaks := make([]float64, classes+1)
	breaks[0] = values[0]
	breaks[classes] = values[m-1]
	j := m
	for c := classes - 1; c >= 1; c-- {
		i := split[c][j]
		breaks[c] = values[i-1]
		j = i
	}
	return breaks, false
}

func distinctWeighted(sorted []float64) ([]float64, []float64) {
	var values, weights []float64
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			weights[len(weights)-1]++
			continue
		}
		values = append(values, v)
		weights = append(weights, 1)
	}
	return values, weights
}

// strideSample keeps n evenly spaced entries, always including the first and
// last so the sample spans the observed range.
func strideSample(values, weights []float64, n int) ([]float64, []float64) {
	m := len(values)
	outV := make([]float64, 0, n)
	outW := make([]float64, 0, n)
	prev := -1
	for k := 0; k < n; k++ {
		idx := int(float64(k) * float64(m-1) / float64(n-1))
		if idx == prev {
			continue
		}
		prev = idx
		outV = append(outV, values[idx])
		outW = append(outW, weights[idx])
	}
	return outV, outW
}
