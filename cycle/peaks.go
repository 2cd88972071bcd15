package cycle

import "sort"

// ZeroCrossings returns every index i where the sign of x[i] differs from the sign of x[i+1].
// A sample that is exactly zero has its own sign, so touching zero counts as a crossing.
func ZeroCrossings(x []float64) []int {
	var out []int
	for i := 0; i+1 < len(x); i++ {
		if sign(x[i]) != sign(x[i+1]) {
			out = append(out, i)
		}
	}
	return out
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// LocalMaxima returns the indices of strict local maxima. A flat top resolves to its middle
// sample (rounded down). The first and last samples are never maxima.
func LocalMaxima(x []float64) []int {
	var peaks []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}
	return peaks
}

// FindPeaks locates local maxima of x whose value is at least minHeight and which are at least
// minDistance samples apart.
//
// When two peaks are closer than minDistance the higher one wins; among equal heights the later
// peak is considered first.
//
// Arguments:
// - x: The signal.
// - minHeight: Minimum accepted peak value.
// - minDistance: Minimum spacing in samples between accepted peaks (values below 1 are treated as 1).
//
// Returns:
// - Accepted peak indices in increasing order.
func FindPeaks(x []float64, minHeight float64, minDistance int) []int {
	var peaks []int
	for _, p := range LocalMaxima(x) {
		if x[p] >= minHeight {
			peaks = append(peaks, p)
		}
	}
	if minDistance <= 1 || len(peaks) < 2 {
		return peaks
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return x[peaks[order[i]]] < x[peaks[order[j]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}

	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < minDistance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < minDistance; k++ {
			keep[k] = false
		}
	}

	var out []int
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
