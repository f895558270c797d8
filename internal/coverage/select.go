// Package coverage builds selective-prediction curves: samples are dropped
// worst-first by a ranking key and an aggregate metric is recomputed over
// what remains at every coverage level.
package coverage

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/spboyer/lesioneval/internal/models"
)

// Worst says which end of the key range is removed first.
type Worst int

const (
	// WorstLowest removes the lowest key first (confidence).
	WorstLowest Worst = iota
	// WorstHighest removes the highest key first (uncertainty, expected cost).
	WorstHighest
)

func (w Worst) String() string {
	if w == WorstHighest {
		return "highest"
	}
	return "lowest"
}

// Select removes samples one at a time, worst key first, and records the mean
// of values over the retained samples after each removal. Equal keys are
// removed in ascending index order. The result runs from coverage 0 (metric
// 0) to coverage 1 in steps of 1/N. Neither slice is modified.
func Select(keys, values []float64, worst Worst) (models.CoverageSeries, error) {
	n := len(keys)
	if n == 0 {
		return models.CoverageSeries{}, models.ErrEmptyInput
	}
	if len(values) != n {
		return models.CoverageSeries{}, fmt.Errorf("coverage: %d keys but %d values", n, len(values))
	}
	for i, k := range keys {
		if math.IsNaN(k) {
			return models.CoverageSeries{}, models.Malformed("ranking key", i+1, "key is NaN")
		}
	}

	removed := make([]int, n)
	for i := range removed {
		removed[i] = i
	}
	slices.SortStableFunc(removed, func(a, b int) int {
		if worst == WorstHighest {
			return cmp.Compare(keys[b], keys[a])
		}
		return cmp.Compare(keys[a], keys[b])
	})

	series := models.CoverageSeries{
		Coverage: make([]float64, n+1),
		Metric:   make([]float64, n+1),
		Removed:  removed,
	}
	// Retaining m samples keeps the last m entries of the removal order.
	var sum float64
	for m := 1; m <= n; m++ {
		sum += values[removed[n-m]]
		series.Coverage[m] = float64(m) / float64(n)
		series.Metric[m] = sum / float64(m)
	}
	return series, nil
}
