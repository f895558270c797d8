package models

import (
	"fmt"

	"github.com/spboyer/lesioneval/internal/metrics"
)

// CoverageSeries is a selective-prediction curve. Coverage ascends from 0 to
// 1 in steps of 1/N and Metric[i] is the aggregate over exactly the samples
// retained at Coverage[i]. The coverage-0 point always carries metric 0.
type CoverageSeries struct {
	Coverage []float64 `json:"coverage"`
	Metric   []float64 `json:"metric"`
	// Removed lists sample indices in removal order, worst first.
	Removed []int `json:"removed,omitempty"`
}

// Len returns the number of points.
func (s CoverageSeries) Len() int {
	return len(s.Coverage)
}

// Samples returns the number of samples the series was built from.
func (s CoverageSeries) Samples() int {
	if len(s.Coverage) == 0 {
		return 0
	}
	return len(s.Coverage) - 1
}

// NonEmpty returns the points with at least one retained sample, spanning
// [1/N, 1].
func (s CoverageSeries) NonEmpty() CoverageSeries {
	if len(s.Coverage) == 0 {
		return s
	}
	start := 0
	if s.Coverage[0] == 0 {
		start = 1
	}
	return CoverageSeries{
		Coverage: append([]float64(nil), s.Coverage[start:]...),
		Metric:   append([]float64(nil), s.Metric[start:]...),
		Removed:  append([]int(nil), s.Removed...),
	}
}

// Full returns the metric at full coverage, or 0 for an empty series.
func (s CoverageSeries) Full() float64 {
	if len(s.Metric) == 0 {
		return 0
	}
	return s.Metric[len(s.Metric)-1]
}

// At returns the metric at the smallest coverage that is >= c.
func (s CoverageSeries) At(c float64) (float64, error) {
	for i, v := range s.Coverage {
		if v >= c {
			return s.Metric[i], nil
		}
	}
	return 0, fmt.Errorf("coverage %.4f beyond series end", c)
}

// AUC integrates the series with the trapezoidal rule.
func (s CoverageSeries) AUC() (float64, error) {
	return metrics.AUC(s.Coverage, s.Metric)
}

// ClassSeries is a per-class coverage curve.
type ClassSeries struct {
	Class  int            `json:"class"`
	Label  string         `json:"label"`
	Total  int            `json:"total"`
	Series CoverageSeries `json:"series"`
	AUC    float64        `json:"auc"`
}

// EstimatorSeries is one estimator's curve in a side-by-side comparison.
type EstimatorSeries struct {
	Estimator string         `json:"estimator"`
	Series    CoverageSeries `json:"series"`
	AUC       float64        `json:"auc"`
}

// PerSample recovers the per-sample metric values from the curve, indexed by
// sample. The sample removed when coverage drops from k/N to (k-1)/N
// contributes k·m[k] - (k-1)·m[k-1].
func (s CoverageSeries) PerSample() ([]float64, error) {
	n := s.Samples()
	if n == 0 || len(s.Removed) != n || len(s.Metric) != n+1 {
		return nil, fmt.Errorf("series of %d points with %d removals has no per-sample values", len(s.Metric), len(s.Removed))
	}
	out := make([]float64, n)
	for j, sample := range s.Removed {
		if err := CheckIndex("sample", sample, n); err != nil {
			return nil, err
		}
		k := n - j
		out[sample] = float64(k)*s.Metric[k] - float64(k-1)*s.Metric[k-1]
	}
	return out, nil
}
