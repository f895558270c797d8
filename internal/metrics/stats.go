package metrics

import "math"

// Mean is the arithmetic mean of values, 0 when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// StdDev is the population standard deviation of values, 0 when empty.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

// CumulativeMean returns the running mean of values: out[i] is the mean of
// values[0..i]. A flat tail means more Monte-Carlo passes would not move
// the estimate.
func CumulativeMean(values []float64) []float64 {
	out := make([]float64, len(values))
	var total float64
	for i, v := range values {
		total += v
		out[i] = total / float64(i+1)
	}
	return out
}

// Settled returns the first pass index from which the running mean stays
// within tol of its final value, or -1 for no values.
func Settled(cumulative []float64, tol float64) int {
	if len(cumulative) == 0 {
		return -1
	}
	final := cumulative[len(cumulative)-1]
	at := len(cumulative) - 1
	for i := len(cumulative) - 1; i >= 0; i-- {
		if math.Abs(cumulative[i]-final) > tol {
			break
		}
		at = i
	}
	return at
}
