// Package calibration bins per-class predicted probabilities into fixed-width
// intervals for reliability diagrams and probability histograms.
package calibration

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/spboyer/lesioneval/internal/models"
)

// DefaultBins is the bin count used when none is configured.
const DefaultBins = 10

// Options controls binning.
type Options struct {
	// Bins is the number B of equal-width intervals over [0, 1].
	Bins int `yaml:"bins" json:"bins"`
	// SkipFirst drops bin 1, which is dominated by near-zero probabilities.
	SkipFirst bool `yaml:"skip_first" json:"skip_first"`
	// Labels names classes in the output. The zero table yields placeholders.
	Labels models.LabelTable `yaml:"-" json:"-"`
}

func (o Options) validate() error {
	if o.Bins < 1 {
		return &models.MalformedInputError{Source: "calibration", Pass: -1, Reason: fmt.Sprintf("bin count must be >= 1, got %d", o.Bins)}
	}
	return nil
}

// bounds returns the interval of 1-based bin c of b. Both edges are
// computed as k/b so a bin's lower edge is bit-identical to the previous
// bin's upper edge and the bins partition [0, 1].
func bounds(c, b int) (lower, upper float64) {
	return float64(c-1) / float64(b), float64(c) / float64(b)
}

// inBin reports whether score falls in bin c: (c/B - 1/B, c/B]. Bin 1 also
// takes an exact zero unless it is being skipped anyway.
func inBin(score float64, c, b int, skipFirst bool) bool {
	lower, upper := bounds(c, b)
	if score <= upper && score > lower {
		return true
	}
	return c == 1 && !skipFirst && score == 0
}

func firstBin(opts Options) int {
	if opts.SkipFirst {
		return 2
	}
	return 1
}

func classCount(records []models.PredictionRecord) (int, error) {
	if len(records) == 0 {
		return 0, models.ErrEmptyInput
	}
	classes := records[0].Classes()
	for i, r := range records {
		if r.Classes() != classes {
			return 0, models.Malformed("calibration", i+1, fmt.Sprintf("got %d class scores, expected %d", r.Classes(), classes))
		}
	}
	return classes, nil
}

// Reliability computes, for every class k and every bin, the mean predicted
// probability of class k and the fraction of those samples whose true class
// is k. Empty bins are omitted.
func Reliability(records []models.PredictionRecord, opts Options, oracle models.LabelOracle) ([]models.ClassCalibration, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	classes, err := classCount(records)
	if err != nil {
		return nil, err
	}
	if oracle.Len() != len(records) {
		return nil, fmt.Errorf("calibration: %d predictions but %d labels", len(records), oracle.Len())
	}

	out := make([]models.ClassCalibration, 0, classes)
	for k := 0; k < classes; k++ {
		cc := models.ClassCalibration{Class: k, Label: opts.Labels.Name(k)}
		for c := firstBin(opts); c <= opts.Bins; c++ {
			lower, upper := bounds(c, opts.Bins)
			var count, correct int
			var sum float64
			for i, r := range records {
				p := r.Scores[k]
				if !inBin(p, c, opts.Bins, opts.SkipFirst) {
					continue
				}
				count++
				sum += p
				ok, err := oracle.IsPredictionCorrect(k, i)
				if err != nil {
					return nil, fmt.Errorf("calibration: sample %d: %w", i, err)
				}
				if ok {
					correct++
				}
			}
			if count == 0 {
				continue
			}
			cc.Bins = append(cc.Bins, models.CalibrationBin{
				Index:           c,
				Lower:           lower,
				Upper:           upper,
				Count:           count,
				MeanProbability: sum / float64(count),
				Accuracy:        float64(correct) / float64(count),
			})
		}
		cc.ECE = ExpectedCalibrationError(cc.Bins)
		slog.Debug("calibration class binned", "class", cc.Label, "bins", len(cc.Bins), "ece", cc.ECE)
		out = append(out, cc)
	}
	return out, nil
}

// ExpectedCalibrationError is the count-weighted mean of
// |accuracy - mean probability| over bins, or 0 when bins hold no samples.
func ExpectedCalibrationError(bins []models.CalibrationBin) float64 {
	var total int
	var weighted float64
	for _, b := range bins {
		total += b.Count
		weighted += float64(b.Count) * math.Abs(b.Accuracy-b.MeanProbability)
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

// Histogram counts, per class, how many samples fall in each bin. Unlike
// Reliability, empty bins are kept with a zero count.
func Histogram(records []models.PredictionRecord, opts Options) ([]models.ClassHistogram, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	classes, err := classCount(records)
	if err != nil {
		return nil, err
	}

	out := make([]models.ClassHistogram, 0, classes)
	for k := 0; k < classes; k++ {
		h := models.ClassHistogram{Class: k, Label: opts.Labels.Name(k)}
		for c := firstBin(opts); c <= opts.Bins; c++ {
			lower, upper := bounds(c, opts.Bins)
			count := 0
			for _, r := range records {
				if inBin(r.Scores[k], c, opts.Bins, opts.SkipFirst) {
					count++
				}
			}
			h.Bins = append(h.Bins, models.HistogramBin{
				Index: c,
				Range: RangeLabel(lower, upper),
				Lower: lower,
				Upper: upper,
				Count: count,
			})
		}
		out = append(out, h)
	}
	return out, nil
}

// RangeLabel formats a bin interval as "0.2 to 0.3".
func RangeLabel(lower, upper float64) string {
	return formatBound(lower) + " to " + formatBound(upper)
}

func formatBound(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
