package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/statistics"
	"github.com/stretchr/testify/assert"
)

func newTestReport() *models.EvaluationReport {
	return &models.EvaluationReport{
		RunID:     "run-1",
		Name:      "isic-2019",
		Timestamp: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Setup: models.ReportSetup{
			Labels:  []string{"MEL", "NV"},
			Samples: 4,
			Bins:    10,
			Ranking: "confidence",
			Metric:  "accuracy",
		},
		Digest: models.ReportDigest{
			Estimators:    2,
			BestAccuracy:  0.75,
			BestEstimator: "softmax",
			GatesPassed:   1,
			GatesFailed:   1,
			DurationMs:    1500,
		},
		Estimators: []models.EstimatorOutcome{
			{
				Name: "softmax", Kind: models.EstimatorKindSoftmax, Samples: 4,
				Accuracy: 0.75, RiskAUC: 0.84,
				Calibration: []models.ClassCalibration{
					{Class: 0, Label: "MEL", ECE: 0.02, Bins: []models.CalibrationBin{
						{Index: 9, Lower: 0.8, Upper: 0.9, Count: 2, MeanProbability: 0.85, Accuracy: 1},
					}},
					{Class: 1, Label: "NV", ECE: 0.04},
				},
				Confusion: &models.ConfusionSummary{
					Labels:     []string{"MEL", "NV"},
					Counts:     [][]int{{1, 1}, {0, 2}},
					Normalized: [][]float64{{0.3333, 0.3333}, {0, 0.6667}},
					Accuracy:   0.75,
				},
				Uncertainty: &models.UncertaintySummary{Correct: 3, Incorrect: 1, MeanCorrect: 0.2, MeanIncorrect: 0.6},
			},
			{
				Name: "mc dropout", Kind: models.EstimatorKindMCDropout, Samples: 4,
				Accuracy: 0.5, RiskAUC: 0.61, EmptyClasses: []string{"NV"},
			},
		},
		RiskCoverage: []models.EstimatorSeries{
			{Estimator: "softmax", AUC: 0.84, Series: models.CoverageSeries{
				Coverage: []float64{0, 0.25, 0.5, 0.75, 1}, Metric: []float64{0, 1, 1, 1, 0.75},
			}},
		},
		MonteCarlo: &models.MonteCarloResult{
			Mode:      "accuracy",
			Requested: 3,
			Passes:    []int{0, 2},
			Dropout: models.Trajectory{
				Metric: []float64{0.5, 0.75}, MeanUncertainty: []float64{0.1, 0.2},
				Upper: []float64{0.6, 0.95}, Lower: []float64{0.4, 0.55},
			},
			CumulativeMean: []float64{0.5, 0.625},
			BootstrapCI:    statistics.ConfidenceInterval{Lower: 0.5, Upper: 0.75, Mean: 0.625, ConfidenceLevel: 0.95},
			Failed:         []models.PassFailure{{Pass: 1, Error: "row 3: not a finite number"}},
		},
		Gates: []models.GateResult{
			{Identifier: "min_accuracy", Estimator: "softmax", Value: 0.75, Threshold: 0.7, Minimum: true, Status: models.GateStatusPassed},
			{Identifier: "min_accuracy", Estimator: "mc dropout", Value: 0.5, Threshold: 0.7, Minimum: true, Status: models.GateStatusFailed},
		},
	}
}

func TestInterpretAccuracy(t *testing.T) {
	tests := []struct {
		name string
		acc  float64
		want string
	}{
		{"excellent high", 0.95, "Excellent (>90%)"},
		{"good high", 0.90, "Good (70-90%)"},
		{"good low", 0.70, "Good (70-90%)"},
		{"needs work", 0.60, "Needs Work (50-70%)"},
		{"poor", 0.49, "Poor (<50%)"},
		{"poor zero", 0.0, "Poor (<50%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretAccuracy(tt.acc))
		})
	}
}

func TestInterpretECE(t *testing.T) {
	assert.Contains(t, InterpretECE(0.01), "Well calibrated")
	assert.Contains(t, InterpretECE(0.10), "Moderately calibrated")
	assert.Contains(t, InterpretECE(0.30), "Poorly calibrated")
}

func TestInterpretSeparation(t *testing.T) {
	tests := []struct {
		name string
		s    *models.UncertaintySummary
		want string
	}{
		{"nil", nil, "Not enough"},
		{"no mistakes", &models.UncertaintySummary{Correct: 4}, "Not enough"},
		{"strong", &models.UncertaintySummary{Correct: 3, Incorrect: 1, MeanCorrect: 0.2, MeanIncorrect: 0.6}, "flags mistakes well"},
		{"weak", &models.UncertaintySummary{Correct: 3, Incorrect: 1, MeanCorrect: 0.5, MeanIncorrect: 0.6}, "weakly"},
		{"inverted", &models.UncertaintySummary{Correct: 3, Incorrect: 1, MeanCorrect: 0.5, MeanIncorrect: 0.3}, "does not separate"},
		{"zero correct", &models.UncertaintySummary{Correct: 3, Incorrect: 1, MeanIncorrect: 0.3}, "correct ones none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, InterpretSeparation(tt.s), tt.want)
		})
	}
}

func TestFormatSummaryReport(t *testing.T) {
	out := FormatSummaryReport(newTestReport())

	assert.True(t, strings.HasPrefix(out, "=== Interpretation ==="))
	assert.Contains(t, out, "Samples:       4")
	assert.Contains(t, out, "Best:          softmax at 0.7500: Good (70-90%)")
	assert.Contains(t, out, "Gates:         1 passed, 1 failed out of 2")
	assert.Contains(t, out, "✓ softmax (softmax)")
	assert.Contains(t, out, "✗ mc dropout (mc_dropout)")
	assert.Contains(t, out, "Well calibrated")
	assert.Contains(t, out, "No test samples for: NV")
	assert.Contains(t, out, "2 of 3 passes aggregated")
	assert.Contains(t, out, "✗ pass 1: row 3")
}
