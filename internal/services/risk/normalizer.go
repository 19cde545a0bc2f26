package risk

import (
	"math"
	"sort"
)

// median returns the middle of values; even-sized inputs average the two
// middle elements. values is not modified.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// RobustZ scores residual against history using the median and the median
// absolute deviation, floored at madFloor. history must already include
// residual. window > 0 limits the reference set to the most recent entries.
func RobustZ(residual float64, history []float64, window int, madFloor float64) float64 {
	ref := history
	if window > 0 && len(ref) > window {
		ref = ref[len(ref)-window:]
	}

	med := median(ref)
	dev := make([]float64, len(ref))
	for i, r := range ref {
		dev[i] = math.Abs(r - med)
	}
	mad := median(dev)
	if mad < madFloor {
		mad = madFloor
	}
	return (residual - med) / mad
}
