// Package statistics provides resampling estimates for evaluation metrics.
package statistics

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// Contains reports whether v lies inside the interval.
func (ci ConfidenceInterval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// Width is Upper - Lower.
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// BootstrapCI computes a percentile bootstrap interval for the mean of values.
// confidenceLevel should be in (0, 1), e.g. 0.95.
func BootstrapCI(values []float64, confidenceLevel float64) ConfidenceInterval {
	return BootstrapCIWithSeed(values, confidenceLevel, -1)
}

// BootstrapCIWithSeed is like BootstrapCI but accepts a seed for reproducibility.
// A negative seed uses a non-deterministic source. Fewer than 2 values give a
// degenerate interval at the mean with NumBootstraps 0.
func BootstrapCIWithSeed(values []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	return resample(values, confidenceLevel, seed)
}

// PairedDifferenceCI bootstraps the mean of a[i]-b[i]. Both slices hold
// per-sample values of the same test set, e.g. correctness or true cost of
// two estimators.
func PairedDifferenceCI(a, b []float64, confidenceLevel float64, seed int64) (ConfidenceInterval, error) {
	if len(a) != len(b) {
		return ConfidenceInterval{}, fmt.Errorf("statistics: paired samples differ in length (%d vs %d)", len(a), len(b))
	}
	diff := make([]float64, len(a))
	for i := range a {
		diff[i] = a[i] - b[i]
	}
	return resample(diff, confidenceLevel, seed), nil
}

// IsSignificant returns true if the interval does not contain zero.
func IsSignificant(ci ConfidenceInterval) bool {
	return ci.Lower > 0 || ci.Upper < 0
}

func resample(values []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := len(values)
	m := mean(values)
	if n < 2 {
		return ConfidenceInterval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: confidenceLevel}
	}

	src := rand.NewSource(seed)
	if seed < 0 {
		src = rand.NewSource(rand.Int63())
	}
	rng := rand.New(src)

	iters := DefaultBootstrapIterations
	boot := make([]float64, iters)
	for i := range boot {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += values[rng.Intn(n)]
		}
		boot[i] = sum / float64(n)
	}
	sort.Float64s(boot)

	alpha := 1.0 - confidenceLevel
	lo := int(math.Floor(alpha / 2.0 * float64(iters)))
	hi := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hi >= iters {
		hi = iters - 1
	}

	return ConfidenceInterval{
		Lower:           boot[lo],
		Upper:           boot[hi],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
