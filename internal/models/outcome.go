package models

import (
	"time"

	"github.com/spboyer/lesioneval/internal/statistics"
)

// GateStatus represents the outcome of a threshold check.
type GateStatus string

const (
	GateStatusPassed GateStatus = "passed"
	GateStatusFailed GateStatus = "failed"
	// GateStatusNA marks a gate whose value was not computed for the estimator.
	GateStatusNA GateStatus = "n/a"
)

// EstimatorKind identifies how an estimator's predictions were produced.
type EstimatorKind string

const (
	EstimatorKindSoftmax   EstimatorKind = "softmax"
	EstimatorKindMCDropout EstimatorKind = "mc_dropout"
	EstimatorKindBayes     EstimatorKind = "bayes_by_backprop"
	EstimatorKindCosts     EstimatorKind = "expected_costs"
)

// EvaluationReport is the complete result of an evaluation run.
type EvaluationReport struct {
	RunID        string             `json:"run_id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Setup        ReportSetup        `json:"config"`
	Digest       ReportDigest       `json:"summary"`
	Estimators   []EstimatorOutcome `json:"estimators"`
	RiskCoverage []EstimatorSeries  `json:"risk_coverage,omitempty"`
	CostCoverage []EstimatorSeries  `json:"cost_coverage,omitempty"`
	MonteCarlo   *MonteCarloResult  `json:"monte_carlo,omitempty"`
	Gates        []GateResult       `json:"gates,omitempty"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
}

// ReportSetup records the settings a report was produced with.
type ReportSetup struct {
	Labels        []string `json:"labels"`
	UnknownClass  bool     `json:"unknown_class"`
	Samples       int      `json:"samples"`
	Bins          int      `json:"bins"`
	SkipFirstBin  bool     `json:"skip_first_bin"`
	Ranking       string   `json:"ranking"`
	Metric        string   `json:"metric"`
	CostFlattened bool     `json:"cost_flattened"`
	CostUncertain bool     `json:"cost_uncertain"`
}

// ReportDigest holds headline numbers across estimators.
type ReportDigest struct {
	Estimators    int     `json:"estimators"`
	BestAccuracy  float64 `json:"best_accuracy"`
	BestEstimator string  `json:"best_estimator"`
	BestRiskAUC   float64 `json:"best_risk_auc"`
	LowestCostAUC float64 `json:"lowest_cost_auc"`
	GatesPassed   int     `json:"gates_passed"`
	GatesFailed   int     `json:"gates_failed"`
	DurationMs    int64   `json:"duration_ms"`
}

// EstimatorOutcome holds every per-estimator result of a run.
type EstimatorOutcome struct {
	Name            string              `json:"name"`
	Kind            EstimatorKind       `json:"kind"`
	Samples         int                 `json:"samples"`
	Accuracy        float64             `json:"accuracy"`
	MeanTrueCost    float64             `json:"mean_true_cost"`
	MeanUncertainty float64             `json:"mean_uncertainty"`
	RiskAUC         float64             `json:"risk_auc"`
	CostAUC         float64             `json:"cost_auc"`
	Calibration     []ClassCalibration  `json:"calibration,omitempty"`
	Histogram       []ClassHistogram    `json:"histogram,omitempty"`
	PerClass        []ClassSeries       `json:"per_class,omitempty"`
	EmptyClasses    []string            `json:"empty_classes,omitempty"`
	Confusion       *ConfusionSummary   `json:"confusion,omitempty"`
	Uncertainty     *UncertaintySummary `json:"uncertainty,omitempty"`
}

// ConfusionSummary is a confusion matrix indexed [true][predicted].
type ConfusionSummary struct {
	Labels     []string    `json:"labels"`
	Counts     [][]int     `json:"counts"`
	Normalized [][]float64 `json:"normalized"`
	Accuracy   float64     `json:"accuracy"`
}

// ClassUncertainty is the accuracy and mean uncertainty of one predicted class.
type ClassUncertainty struct {
	Class           int     `json:"class"`
	Label           string  `json:"label"`
	Count           int     `json:"count"`
	Accuracy        float64 `json:"accuracy"`
	MeanUncertainty float64 `json:"mean_uncertainty"`
}

// UncertaintySummary compares the uncertainty of correct and incorrect predictions.
type UncertaintySummary struct {
	Correct            int                `json:"correct"`
	Incorrect          int                `json:"incorrect"`
	MeanCorrect        float64            `json:"mean_correct"`
	MeanIncorrect      float64            `json:"mean_incorrect"`
	CorrectHistogram   []HistogramBin     `json:"correct_histogram,omitempty"`
	IncorrectHistogram []HistogramBin     `json:"incorrect_histogram,omitempty"`
	ByClass            []ClassUncertainty `json:"by_class,omitempty"`
}

// PassFailure records a Monte-Carlo pass excluded from aggregation.
type PassFailure struct {
	Pass  int    `json:"pass"`
	Error string `json:"error"`
}

// Trajectory is a per-pass metric with its uncertainty envelope.
type Trajectory struct {
	Metric          []float64 `json:"metric"`
	MeanUncertainty []float64 `json:"mean_uncertainty"`
	Upper           []float64 `json:"upper"`
	Lower           []float64 `json:"lower"`
}

// MonteCarloResult aggregates stochastic forward passes against a baseline.
type MonteCarloResult struct {
	Mode           string                        `json:"mode"`
	Requested      int                           `json:"requested"`
	Passes         []int                         `json:"passes"`
	Dropout        Trajectory                    `json:"dropout"`
	Baseline       Trajectory                    `json:"baseline"`
	CumulativeMean []float64                     `json:"cumulative_mean"`
	StdDev         float64                       `json:"std_dev"`
	// SettledAt indexes Passes: from there on the running mean stays
	// within the settle tolerance of its final value.
	SettledAt      int                           `json:"settled_at"`
	BootstrapCI    statistics.ConfidenceInterval `json:"bootstrap_ci"`
	Failed         []PassFailure                 `json:"failed,omitempty"`
}

// GateResult is the outcome of comparing one value against a configured threshold.
type GateResult struct {
	Identifier string     `json:"identifier"`
	Estimator  string     `json:"estimator"`
	Value      float64    `json:"value"`
	Threshold  float64    `json:"threshold"`
	Minimum    bool       `json:"minimum"`
	Status     GateStatus `json:"status"`
}

// Passed reports whether the gate held.
func (g GateResult) Passed() bool {
	return g.Status == GateStatusPassed
}

// FindEstimator returns the named estimator outcome.
func (r *EvaluationReport) FindEstimator(name string) (*EstimatorOutcome, bool) {
	for i := range r.Estimators {
		if r.Estimators[i].Name == name {
			return &r.Estimators[i], true
		}
	}
	return nil, false
}

// FailedGates returns the gates that did not hold.
func (r *EvaluationReport) FailedGates() []GateResult {
	var out []GateResult
	for _, g := range r.Gates {
		if !g.Passed() {
			out = append(out, g)
		}
	}
	return out
}

// MeanECE averages the per-class calibration error. Zero without calibration data.
func (o *EstimatorOutcome) MeanECE() float64 {
	if len(o.Calibration) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range o.Calibration {
		sum += c.ECE
	}
	return sum / float64(len(o.Calibration))
}
