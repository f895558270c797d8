package metrics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name     string
		coverage []float64
		metric   []float64
		expect   float64
	}{
		{"constant", []float64{0, 0.25, 0.5, 0.75, 1}, []float64{0.8, 0.8, 0.8, 0.8, 0.8}, 0.8},
		{"diagonal", []float64{0, 0.5, 1}, []float64{0, 0.5, 1}, 0.5},
		{"two_points", []float64{0, 1}, []float64{1, 0}, 0.5},
		{"partial_axis", []float64{0.25, 0.5, 0.75, 1}, []float64{1, 1, 1, 0.75}, 0.71875},
		{"repeated_coverage", []float64{0, 0.5, 0.5, 1}, []float64{1, 1, 0, 0}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.coverage, tt.metric)
			if err != nil {
				t.Fatalf("AUC returned error: %v", err)
			}
			if !approxEqual(got, tt.expect) {
				t.Errorf("AUC(%v, %v) = %f, want %f", tt.coverage, tt.metric, got, tt.expect)
			}
		})
	}
}

func TestAUC_ConstantCurveEqualsConstant(t *testing.T) {
	for _, n := range []int{1, 3, 10, 257} {
		coverage := make([]float64, n+1)
		metric := make([]float64, n+1)
		for i := range coverage {
			coverage[i] = float64(i) / float64(n)
			metric[i] = 0.42
		}
		got, err := AUC(coverage, metric)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if math.Abs(got-0.42) > 1e-12 {
			t.Errorf("n=%d: AUC = %.15f, want 0.42", n, got)
		}
	}
}

func TestAUC_DoesNotModifyInput(t *testing.T) {
	coverage := []float64{0, 0.5, 1}
	metric := []float64{0, 1, 0.5}
	_, err := AUC(coverage, metric)
	if err != nil {
		t.Fatal(err)
	}
	if coverage[1] != 0.5 || metric[1] != 1 {
		t.Errorf("input modified: %v %v", coverage, metric)
	}
}

func TestAUC_Errors(t *testing.T) {
	tests := []struct {
		name     string
		coverage []float64
		metric   []float64
	}{
		{"length_mismatch", []float64{0, 1}, []float64{1}},
		{"too_short", []float64{1}, []float64{1}},
		{"empty", nil, nil},
		{"descending", []float64{1, 0.5, 0}, []float64{0, 0, 0}},
		{"nan", []float64{0, math.NaN()}, []float64{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AUC(tt.coverage, tt.metric); err == nil {
				t.Errorf("AUC(%v, %v) expected error", tt.coverage, tt.metric)
			}
		})
	}
}
