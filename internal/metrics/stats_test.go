package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		wantMean float64
		wantSD   float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{0.8}, 0.8, 0},
		{"uniform", []float64{0.7, 0.7, 0.7}, 0.7, 0},
		{"spread", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantMean, Mean(tt.input), 1e-12)
			assert.InDelta(t, tt.wantSD, StdDev(tt.input), 1e-12)
		})
	}
}

func TestCumulativeMean(t *testing.T) {
	assert.Empty(t, CumulativeMean(nil))
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.5, 0.5}, CumulativeMean([]float64{1, 0, 0.5, 0.5}), 1e-12)
}

func TestSettled(t *testing.T) {
	tests := []struct {
		name  string
		input []float64
		tol   float64
		want  int
	}{
		{"empty", nil, 0.01, -1},
		{"single", []float64{0.8}, 0.01, 0},
		{"settles at third pass", []float64{1, 0.5, 0.61, 0.6, 0.6}, 0.02, 2},
		{"never within tolerance before the end", []float64{0, 1}, 0.1, 1},
		{"already settled", []float64{0.6, 0.6}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Settled(tt.input, tt.tol))
		})
	}
}
