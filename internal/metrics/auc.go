package metrics

import (
	"fmt"
	"math"
)

// AUC integrates metric over coverage with the trapezoidal rule. coverage
// must be non-decreasing and both slices must hold the same number (>= 2)
// of finite values. Neither slice is modified.
func AUC(coverage, metric []float64) (float64, error) {
	if len(coverage) != len(metric) {
		return 0, fmt.Errorf("auc: coverage has %d points, metric has %d", len(coverage), len(metric))
	}
	if len(coverage) < 2 {
		return 0, fmt.Errorf("auc: need at least 2 points, got %d", len(coverage))
	}
	for i := range coverage {
		if math.IsNaN(coverage[i]) || math.IsNaN(metric[i]) {
			return 0, fmt.Errorf("auc: NaN at point %d", i)
		}
		if i > 0 && coverage[i] < coverage[i-1] {
			return 0, fmt.Errorf("auc: coverage decreases at point %d (%g < %g)", i, coverage[i], coverage[i-1])
		}
	}
	return trapz(coverage, metric), nil
}

func trapz(xs, ys []float64) float64 {
	area := 0.0
	for i := 1; i < len(xs); i++ {
		area += (xs[i] - xs[i-1]) * (ys[i] + ys[i-1])
	}
	return area * 0.5
}
