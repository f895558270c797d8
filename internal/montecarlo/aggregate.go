// Package montecarlo aggregates the stochastic forward passes of an
// MC-dropout model into per-pass metric trajectories with uncertainty
// envelopes, and combines passes into a single predictive table.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spboyer/lesioneval/internal/cost"
	"github.com/spboyer/lesioneval/internal/metrics"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/statistics"
)

// Mode selects the per-pass metric.
type Mode string

const (
	// ModeAccuracy is the fraction of samples whose argmax is the true class.
	ModeAccuracy Mode = "accuracy"
	// ModeLowestExpectedCost is the mean true cost of the class with the
	// lowest expected cost.
	ModeLowestExpectedCost Mode = "lowest_expected_cost"
)

// DefaultWorkers bounds concurrent pass loading when Request.Workers is unset.
const DefaultWorkers = 4

// SettleTolerance is how close the running mean of the per-pass metric must
// stay to its final value for the result to count as settled.
const SettleTolerance = 0.005

// Request configures one aggregation.
type Request struct {
	Passes []PassSource
	// Baseline is the deterministic (softmax) prediction table. Optional.
	Baseline []models.PredictionRecord
	Oracle   models.LabelOracle
	Mode     Mode
	// Costs is required by ModeLowestExpectedCost.
	Costs   *cost.Matrix
	Workers int
	// Confidence is the bootstrap interval level; 0 means 0.95.
	Confidence float64
	// Seed fixes the bootstrap resampling; negative is non-deterministic.
	Seed int64
}

func (r Request) validate() error {
	if len(r.Passes) == 0 {
		return fmt.Errorf("montecarlo: no passes: %w", models.ErrEmptyInput)
	}
	if r.Oracle == nil {
		return errors.New("montecarlo: a label oracle is required")
	}
	switch r.Mode {
	case ModeAccuracy:
	case ModeLowestExpectedCost:
		if r.Costs == nil {
			return fmt.Errorf("montecarlo: mode %q needs a cost matrix", r.Mode)
		}
	default:
		return fmt.Errorf("montecarlo: unknown mode %q", r.Mode)
	}
	return nil
}

// Aggregate loads every pass, concurrently and bounded by Workers, then
// evaluates them one by one in pass order. A pass that cannot be loaded or
// evaluated is recorded in Failed and left out of the trajectories; the call
// fails only when no pass survives.
func Aggregate(ctx context.Context, req Request) (*models.MonteCarloResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	n := req.Oracle.Len()
	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}
	labels, err := req.Oracle.Labels(samples)
	if err != nil {
		return nil, fmt.Errorf("montecarlo: labels: %w", err)
	}

	results, err := LoadAll(ctx, req.Passes, req.Workers)
	if err != nil {
		return nil, err
	}

	result := &models.MonteCarloResult{Mode: string(req.Mode), Requested: len(req.Passes)}
	var passMetrics []float64
	for i, l := range results {
		err := l.Err
		var metric, meanU float64
		if err == nil {
			metric, meanU, err = evaluate(l.Records, labels, req, true)
		}
		if err != nil {
			err = tagPass(err, i)
			slog.Warn("monte carlo pass failed", "pass", i, "error", err)
			result.Failed = append(result.Failed, models.PassFailure{Pass: i, Error: err.Error()})
			continue
		}
		result.Passes = append(result.Passes, i)
		appendPoint(&result.Dropout, metric, meanU)
		passMetrics = append(passMetrics, metric)
	}
	if len(result.Passes) == 0 {
		return nil, fmt.Errorf("montecarlo: all %d passes failed, first: %s", len(req.Passes), result.Failed[0].Error)
	}

	if req.Baseline != nil {
		metric, meanU, err := evaluate(req.Baseline, labels, req, false)
		if err != nil {
			return nil, fmt.Errorf("montecarlo: baseline: %w", err)
		}
		for range result.Passes {
			appendPoint(&result.Baseline, metric, meanU)
		}
	}

	confidence := req.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	result.CumulativeMean = metrics.CumulativeMean(passMetrics)
	result.StdDev = metrics.StdDev(passMetrics)
	result.SettledAt = metrics.Settled(result.CumulativeMean, SettleTolerance)
	result.BootstrapCI = statistics.BootstrapCIWithSeed(passMetrics, confidence, req.Seed)

	slog.Debug("monte carlo aggregated",
		"mode", req.Mode,
		"passes", len(result.Passes),
		"failed", len(result.Failed),
		"mean", result.BootstrapCI.Mean,
	)
	return result, nil
}

func appendPoint(t *models.Trajectory, metric, meanU float64) {
	t.Metric = append(t.Metric, metric)
	t.MeanUncertainty = append(t.MeanUncertainty, meanU)
	t.Upper = append(t.Upper, metric+meanU)
	t.Lower = append(t.Lower, metric-meanU)
}

// tagPass stamps the pass index onto malformed-input errors.
func tagPass(err error, pass int) error {
	var mErr *models.MalformedInputError
	if errors.As(err, &mErr) {
		tagged := *mErr
		tagged.Pass = pass
		return &tagged
	}
	return fmt.Errorf("pass %d: %w", pass, err)
}

// evaluate returns the pass metric and the mean uncertainty. Without
// requireUncertainty a table lacking the column reports a mean of 0.
func evaluate(records []models.PredictionRecord, labels []int, req Request, requireUncertainty bool) (float64, float64, error) {
	if len(records) != len(labels) {
		return 0, 0, fmt.Errorf("got %d rows, expected %d", len(records), len(labels))
	}
	if len(records) == 0 {
		return 0, 0, models.ErrEmptyInput
	}

	var total, uncertainty float64
	for i, rec := range records {
		switch req.Mode {
		case ModeAccuracy:
			if rec.Argmax() == labels[i] {
				total++
			}
		case ModeLowestExpectedCost:
			class, _, err := req.Costs.LowestExpectedCost(rec.Scores)
			if err != nil {
				return 0, 0, &models.MalformedInputError{Row: i + 1, Pass: -1, Reason: "expected cost", Err: err}
			}
			c, err := req.Costs.Cost(class, labels[i])
			if err != nil {
				return 0, 0, fmt.Errorf("sample %d: %w", i, err)
			}
			total += c
		}

		if rec.HasUncertainty() {
			uncertainty += *rec.Uncertainty
		} else if requireUncertainty {
			return 0, 0, &models.MalformedInputError{Row: i + 1, Pass: -1, Reason: "missing trailing uncertainty column"}
		}
	}
	n := float64(len(records))
	return total / n, uncertainty / n, nil
}
