package models

import "math"

// PredictionRecord is one model output for one sample: a score per class and
// an optional uncertainty scalar (entropy or another dispersion measure).
//
// The uncertainty is kept apart from the class scores from the moment a row
// is decoded, so Argmax/Argmin never see it.
type PredictionRecord struct {
	Scores      []float64 `json:"scores"`
	Uncertainty *float64  `json:"uncertainty,omitempty"`
}

// NewPredictionRecord copies scores into a record without an uncertainty value.
func NewPredictionRecord(scores ...float64) PredictionRecord {
	s := make([]float64, len(scores))
	copy(s, scores)
	return PredictionRecord{Scores: s}
}

// WithUncertainty returns a copy of r carrying the given uncertainty value.
func (r PredictionRecord) WithUncertainty(u float64) PredictionRecord {
	s := make([]float64, len(r.Scores))
	copy(s, r.Scores)
	return PredictionRecord{Scores: s, Uncertainty: &u}
}

// Classes returns the number of class scores.
func (r PredictionRecord) Classes() int {
	return len(r.Scores)
}

// HasUncertainty reports whether an uncertainty value is attached.
func (r PredictionRecord) HasUncertainty() bool {
	return r.Uncertainty != nil
}

// UncertaintyOr returns the uncertainty value, or fallback when absent.
func (r PredictionRecord) UncertaintyOr(fallback float64) float64 {
	if r.Uncertainty == nil {
		return fallback
	}
	return *r.Uncertainty
}

// Argmax returns the index of the highest score, first index on ties.
// Returns -1 for a record with no scores.
func (r PredictionRecord) Argmax() int {
	best := -1
	for i, s := range r.Scores {
		if best < 0 || s > r.Scores[best] {
			best = i
		}
	}
	return best
}

// Argmin returns the index of the lowest score, first index on ties.
// Returns -1 for a record with no scores.
func (r PredictionRecord) Argmin() int {
	best := -1
	for i, s := range r.Scores {
		if best < 0 || s < r.Scores[best] {
			best = i
		}
	}
	return best
}

// Max returns the highest score, or NaN when there are none.
func (r PredictionRecord) Max() float64 {
	i := r.Argmax()
	if i < 0 {
		return math.NaN()
	}
	return r.Scores[i]
}

// Min returns the lowest score, or NaN when there are none.
func (r PredictionRecord) Min() float64 {
	i := r.Argmin()
	if i < 0 {
		return math.NaN()
	}
	return r.Scores[i]
}

// Layout describes the columns of a persisted prediction table.
type Layout struct {
	// Classes is the number of leading score columns.
	Classes int `json:"classes" yaml:"classes"`
	// Uncertainty marks a trailing uncertainty column that must be present.
	Uncertainty bool `json:"uncertainty" yaml:"uncertainty"`
}

// Columns returns the expected number of columns per row.
func (l Layout) Columns() int {
	if l.Uncertainty {
		return l.Classes + 1
	}
	return l.Classes
}
