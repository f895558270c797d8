package coverage

import (
	"fmt"

	"github.com/spboyer/lesioneval/internal/cost"
	"github.com/spboyer/lesioneval/internal/models"
)

// Ranking selects the per-sample key that decides removal order.
type Ranking string

const (
	// RankConfidence keys on the highest class probability; lowest is worst.
	RankConfidence Ranking = "confidence"
	// RankUncertainty keys on the trailing uncertainty value; highest is worst.
	RankUncertainty Ranking = "uncertainty"
	// RankExpectedCost keys on the lowest expected cost of a record that
	// holds expected costs; highest is worst.
	RankExpectedCost Ranking = "expected_cost"
)

// Metric selects the per-sample value that is averaged over retained samples.
type Metric string

const (
	// MetricAccuracy is 1 for a correct prediction, 0 otherwise.
	MetricAccuracy Metric = "accuracy"
	// MetricTrueCost is the cost matrix entry for the predicted class and
	// the true class.
	MetricTrueCost Metric = "true_cost"
	// MetricExpectedCost is the lowest expected cost itself.
	MetricExpectedCost Metric = "expected_cost"
)

// Rankings lists the accepted ranking names.
var Rankings = []Ranking{RankConfidence, RankUncertainty, RankExpectedCost}

// Metrics lists the accepted metric names.
var Metrics = []Metric{MetricAccuracy, MetricTrueCost, MetricExpectedCost}

// Request configures one coverage computation.
type Request struct {
	Ranking Ranking
	Metric  Metric
	// ExpectedCosts marks records whose scores are expected costs, so the
	// predicted class is the argmin. Implied by RankExpectedCost.
	ExpectedCosts bool
	// Costs is required by MetricTrueCost.
	Costs *cost.Matrix
	// Labels names classes in per-class output.
	Labels models.LabelTable
}

// Validate checks the request before any sample is touched.
func (r Request) Validate() error {
	switch r.Ranking {
	case RankConfidence, RankUncertainty, RankExpectedCost:
	default:
		return fmt.Errorf("coverage: unknown ranking %q", r.Ranking)
	}
	switch r.Metric {
	case MetricAccuracy:
	case MetricTrueCost:
		if r.Costs == nil {
			return fmt.Errorf("coverage: metric %q needs a cost matrix", r.Metric)
		}
	case MetricExpectedCost:
		if !r.costTable() {
			return fmt.Errorf("coverage: metric %q needs expected-cost records", r.Metric)
		}
	default:
		return fmt.Errorf("coverage: unknown metric %q", r.Metric)
	}
	if r.Ranking == RankConfidence && r.costTable() {
		return fmt.Errorf("coverage: ranking %q is not defined for expected-cost records", r.Ranking)
	}
	return nil
}

func (r Request) costTable() bool {
	return r.ExpectedCosts || r.Ranking == RankExpectedCost
}

// Predict returns the class the record predicts under r: argmin for
// expected-cost records, argmax otherwise.
func (r Request) Predict(rec models.PredictionRecord) int {
	if r.costTable() {
		return rec.Argmin()
	}
	return rec.Argmax()
}

// Keys extracts the ranking key of every record.
func (r Request) Keys(records []models.PredictionRecord) ([]float64, Worst, error) {
	keys := make([]float64, len(records))
	worst := WorstHighest
	if r.Ranking == RankConfidence {
		worst = WorstLowest
	}
	for i, rec := range records {
		if rec.Classes() == 0 {
			return nil, worst, models.Malformed("predictions", i+1, "record has no class scores")
		}
		switch r.Ranking {
		case RankConfidence:
			keys[i] = rec.Max()
		case RankUncertainty:
			if !rec.HasUncertainty() {
				return nil, worst, models.Malformed("predictions", i+1, "missing trailing uncertainty column")
			}
			keys[i] = *rec.Uncertainty
		case RankExpectedCost:
			keys[i] = rec.Min()
		}
	}
	return keys, worst, nil
}

// Values computes the per-sample metric value for records. labels holds the
// true class of each record.
func (r Request) Values(records []models.PredictionRecord, labels []int) ([]float64, error) {
	if len(labels) != len(records) {
		return nil, fmt.Errorf("coverage: %d predictions but %d labels", len(records), len(labels))
	}
	values := make([]float64, len(records))
	for i, rec := range records {
		switch r.Metric {
		case MetricAccuracy:
			if r.Predict(rec) == labels[i] {
				values[i] = 1
			}
		case MetricTrueCost:
			c, err := r.Costs.Cost(r.Predict(rec), labels[i])
			if err != nil {
				return nil, fmt.Errorf("coverage: sample %d: %w", i, err)
			}
			values[i] = c
		case MetricExpectedCost:
			values[i] = rec.Min()
		}
	}
	return values, nil
}
