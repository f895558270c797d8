// Package uncertainty relates a model's uncertainty values to whether its
// predictions were right.
package uncertainty

import (
	"fmt"
	"math"

	"github.com/spboyer/lesioneval/internal/calibration"
	"github.com/spboyer/lesioneval/internal/models"
)

// DefaultBins is the histogram bin count used by Summarize.
const DefaultBins = 10

// Outcome is one evaluated sample.
type Outcome struct {
	Sample      int     `json:"sample"`
	Predicted   int     `json:"predicted"`
	Truth       int     `json:"truth"`
	Uncertainty float64 `json:"uncertainty"`
}

// Predictor picks the predicted class of a record.
type Predictor func(models.PredictionRecord) int

// Argmax predicts the highest-scoring class.
func Argmax(r models.PredictionRecord) int { return r.Argmax() }

// Argmin predicts the lowest-scoring class, for expected-cost records.
func Argmin(r models.PredictionRecord) int { return r.Argmin() }

// Split separates argmax predictions into correct and incorrect outcomes.
func Split(records []models.PredictionRecord, oracle models.LabelOracle) (correct, incorrect []Outcome, err error) {
	return SplitBy(records, oracle, Argmax)
}

// SplitBy is Split with a custom prediction rule. Every record must carry
// an uncertainty value.
func SplitBy(records []models.PredictionRecord, oracle models.LabelOracle, predict Predictor) (correct, incorrect []Outcome, err error) {
	if oracle.Len() != len(records) {
		return nil, nil, fmt.Errorf("uncertainty: %d predictions but %d labels", len(records), oracle.Len())
	}
	for i, r := range records {
		if !r.HasUncertainty() {
			return nil, nil, models.Malformed("predictions", i+1, "missing trailing uncertainty column")
		}
		truth, err := oracle.Label(i)
		if err != nil {
			return nil, nil, fmt.Errorf("uncertainty: sample %d: %w", i, err)
		}
		o := Outcome{Sample: i, Predicted: predict(r), Truth: truth, Uncertainty: *r.Uncertainty}
		if o.Predicted == truth {
			correct = append(correct, o)
		} else {
			incorrect = append(incorrect, o)
		}
	}
	return correct, incorrect, nil
}

// ByClass groups outcomes by predicted class and reports, for each of
// classes, the share of correct predictions and the mean uncertainty.
// Classes that were never predicted report zeros.
func ByClass(correct, incorrect []Outcome, labels models.LabelTable, classes int) ([]models.ClassUncertainty, error) {
	counts := make([]int, classes)
	right := make([]int, classes)
	sums := make([]float64, classes)

	add := func(o Outcome, ok bool) error {
		if err := models.CheckIndex("predicted class", o.Predicted, classes); err != nil {
			return err
		}
		counts[o.Predicted]++
		sums[o.Predicted] += o.Uncertainty
		if ok {
			right[o.Predicted]++
		}
		return nil
	}
	for _, o := range correct {
		if err := add(o, true); err != nil {
			return nil, err
		}
	}
	for _, o := range incorrect {
		if err := add(o, false); err != nil {
			return nil, err
		}
	}

	out := make([]models.ClassUncertainty, classes)
	for k := range out {
		out[k] = models.ClassUncertainty{Class: k, Label: labels.Name(k), Count: counts[k]}
		if counts[k] > 0 {
			out[k].Accuracy = float64(right[k]) / float64(counts[k])
			out[k].MeanUncertainty = sums[k] / float64(counts[k])
		}
	}
	return out, nil
}

// Histogram counts values into bins equal-width intervals over [lo, hi].
// The first interval is closed on both ends, the rest are (lower, upper].
// Values outside [lo, hi] are not counted.
func Histogram(values []float64, bins int, lo, hi float64) ([]models.HistogramBin, error) {
	if bins < 1 {
		return nil, fmt.Errorf("uncertainty: bin count must be >= 1, got %d", bins)
	}
	if !(hi > lo) {
		hi = lo + 1
	}
	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		lower := lo + float64(i)*width
		upper := lo + float64(i+1)*width
		if i == bins-1 {
			upper = hi
		}
		out[i] = models.HistogramBin{Index: i + 1, Lower: lower, Upper: upper, Range: calibration.RangeLabel(lower, upper)}
	}
	for _, v := range values {
		if math.IsNaN(v) || v < lo || v > hi {
			continue
		}
		i := int(math.Ceil((v-lo)/width)) - 1
		if i < 0 {
			i = 0
		}
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out, nil
}

// Bounds returns the smallest and largest of values, (0, 0) when empty.
func Bounds(values ...[]float64) (lo, hi float64) {
	first := true
	for _, vs := range values {
		for _, v := range vs {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

func uncertainties(outcomes []Outcome) []float64 {
	out := make([]float64, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Uncertainty
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Summarize builds the report section for one estimator. Both histograms
// share the range of all uncertainty values so they can be overlaid.
func Summarize(records []models.PredictionRecord, oracle models.LabelOracle, predict Predictor, labels models.LabelTable, bins int) (*models.UncertaintySummary, error) {
	correct, incorrect, err := SplitBy(records, oracle, predict)
	if err != nil {
		return nil, err
	}
	classes := labels.Len()
	if len(records) > 0 {
		classes = max(classes, records[0].Classes())
	}
	byClass, err := ByClass(correct, incorrect, labels, classes)
	if err != nil {
		return nil, err
	}

	cu, iu := uncertainties(correct), uncertainties(incorrect)
	lo, hi := Bounds(cu, iu)
	ch, err := Histogram(cu, bins, lo, hi)
	if err != nil {
		return nil, err
	}
	ih, err := Histogram(iu, bins, lo, hi)
	if err != nil {
		return nil, err
	}

	return &models.UncertaintySummary{
		Correct:            len(correct),
		Incorrect:          len(incorrect),
		MeanCorrect:        mean(cu),
		MeanIncorrect:      mean(iu),
		CorrectHistogram:   ch,
		IncorrectHistogram: ih,
		ByClass:            byClass,
	}, nil
}
