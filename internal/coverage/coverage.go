package coverage

import (
	"fmt"
	"log/slog"

	"github.com/spboyer/lesioneval/internal/models"
)

// PerClassResult holds one curve per class that has samples.
type PerClassResult struct {
	Classes []models.ClassSeries `json:"classes"`
	// EmptyClasses names classes with no samples in the ground truth.
	EmptyClasses []string `json:"empty_classes,omitempty"`
}

// Estimator is one named set of predictions over the same samples.
type Estimator struct {
	Name    string
	Records []models.PredictionRecord
}

func allLabels(records []models.PredictionRecord, oracle models.LabelOracle) ([]int, error) {
	if oracle.Len() != len(records) {
		return nil, fmt.Errorf("coverage: %d predictions but %d labels", len(records), oracle.Len())
	}
	samples := make([]int, len(records))
	for i := range samples {
		samples[i] = i
	}
	return oracle.Labels(samples)
}

func build(records []models.PredictionRecord, labels []int, req Request) (models.CoverageSeries, error) {
	keys, worst, err := req.Keys(records)
	if err != nil {
		return models.CoverageSeries{}, err
	}
	values, err := req.Values(records, labels)
	if err != nil {
		return models.CoverageSeries{}, err
	}
	return Select(keys, values, worst)
}

// Global computes the curve over every sample.
func Global(records []models.PredictionRecord, req Request, oracle models.LabelOracle) (models.CoverageSeries, error) {
	if err := req.Validate(); err != nil {
		return models.CoverageSeries{}, err
	}
	if len(records) == 0 {
		return models.CoverageSeries{}, models.ErrEmptyInput
	}
	labels, err := allLabels(records, oracle)
	if err != nil {
		return models.CoverageSeries{}, err
	}
	return build(records, labels, req)
}

// PerClass computes one curve per true class. Coverage within a class is
// retained-in-class over total-in-class. Sample indices in each curve's
// Removed list refer to the full record slice.
func PerClass(records []models.PredictionRecord, req Request, oracle models.LabelOracle) (*PerClassResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, models.ErrEmptyInput
	}
	labels, err := allLabels(records, oracle)
	if err != nil {
		return nil, err
	}

	classes := req.Labels.Len()
	if classes == 0 {
		classes = records[0].Classes()
	}
	members := make([][]int, classes)
	for i, l := range labels {
		if err := models.CheckIndex("label", l, classes); err != nil {
			return nil, fmt.Errorf("coverage: sample %d: %w", i, err)
		}
		members[l] = append(members[l], i)
	}

	result := &PerClassResult{}
	for k, idx := range members {
		name := req.Labels.Name(k)
		if len(idx) == 0 {
			result.EmptyClasses = append(result.EmptyClasses, name)
			continue
		}
		sub := make([]models.PredictionRecord, len(idx))
		subLabels := make([]int, len(idx))
		for j, i := range idx {
			sub[j] = records[i]
			subLabels[j] = labels[i]
		}
		series, err := build(sub, subLabels, req)
		if err != nil {
			return nil, fmt.Errorf("coverage: class %s: %w", name, err)
		}
		for j, local := range series.Removed {
			series.Removed[j] = idx[local]
		}
		auc, err := series.AUC()
		if err != nil {
			return nil, fmt.Errorf("coverage: class %s: %w", name, err)
		}
		result.Classes = append(result.Classes, models.ClassSeries{
			Class:  k,
			Label:  name,
			Total:  len(idx),
			Series: series,
			AUC:    auc,
		})
	}
	if len(result.EmptyClasses) > 0 {
		slog.Debug("classes without samples", "classes", result.EmptyClasses)
	}
	return result, nil
}

// MultiModel runs the same request over several estimators of the same
// samples, in the given order.
func MultiModel(estimators []Estimator, req Request, oracle models.LabelOracle) ([]models.EstimatorSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(estimators) == 0 {
		return nil, models.ErrEmptyInput
	}
	n := len(estimators[0].Records)
	for _, e := range estimators[1:] {
		if len(e.Records) != n {
			return nil, fmt.Errorf("coverage: estimator %q has %d samples, %q has %d", e.Name, len(e.Records), estimators[0].Name, n)
		}
	}

	out := make([]models.EstimatorSeries, 0, len(estimators))
	for _, e := range estimators {
		series, err := Global(e.Records, req, oracle)
		if err != nil {
			return nil, fmt.Errorf("coverage: estimator %q: %w", e.Name, err)
		}
		auc, err := series.AUC()
		if err != nil {
			return nil, fmt.Errorf("coverage: estimator %q: %w", e.Name, err)
		}
		slog.Debug("coverage curve", "estimator", e.Name, "auc", auc, "full", series.Full())
		out = append(out, models.EstimatorSeries{Estimator: e.Name, Series: series, AUC: auc})
	}
	return out, nil
}
