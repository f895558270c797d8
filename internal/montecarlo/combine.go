package montecarlo

import (
	"fmt"
	"math"

	"github.com/spboyer/lesioneval/internal/models"
)

// Combine averages the class scores of several passes into one record per
// sample and attaches the predictive entropy of the averaged distribution
// as its uncertainty. Per-pass uncertainty values are ignored.
func Combine(passes [][]models.PredictionRecord) ([]models.PredictionRecord, error) {
	if len(passes) == 0 || len(passes[0]) == 0 {
		return nil, models.ErrEmptyInput
	}
	n := len(passes[0])
	classes := passes[0][0].Classes()

	sums := make([][]float64, n)
	for i := range sums {
		sums[i] = make([]float64, classes)
	}
	for p, pass := range passes {
		if len(pass) != n {
			return nil, &models.MalformedInputError{Pass: p, Reason: fmt.Sprintf("got %d rows, expected %d", len(pass), n)}
		}
		for i, rec := range pass {
			if rec.Classes() != classes {
				return nil, &models.MalformedInputError{Pass: p, Row: i + 1, Reason: fmt.Sprintf("got %d class scores, expected %d", rec.Classes(), classes)}
			}
			for k, s := range rec.Scores {
				sums[i][k] += s
			}
		}
	}

	out := make([]models.PredictionRecord, n)
	count := float64(len(passes))
	for i, s := range sums {
		for k := range s {
			s[k] /= count
		}
		out[i] = models.PredictionRecord{Scores: s}.WithUncertainty(Entropy(s))
	}
	return out, nil
}

// Entropy returns the Shannon entropy (natural log) of probs. Zero
// probabilities contribute nothing.
func Entropy(probs []float64) float64 {
	h := 0.0
	for _, p := range probs {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}
