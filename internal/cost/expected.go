package cost

import (
	"fmt"
	"math"

	"github.com/spboyer/lesioneval/internal/models"
)

// ExpectedCosts returns, for every class that can be predicted (including
// the abstain class), the cost expected under probs:
//
//	ec[p] = Σ_t probs[t] · cost(p, t)
//
// probs holds one probability per diagnostic class; its length must equal
// Classes(), or Size() when probabilities for the unknown class are included.
func (m *Matrix) ExpectedCosts(probs []float64) ([]float64, error) {
	if len(probs) != m.classes && len(probs) != len(m.rows) {
		return nil, fmt.Errorf("expected costs: got %d probabilities, want %d", len(probs), m.classes)
	}
	out := make([]float64, len(m.rows))
	for p, row := range m.rows {
		total := 0.0
		for t, prob := range probs {
			if math.IsNaN(prob) {
				return nil, fmt.Errorf("expected costs: probability %d is NaN", t)
			}
			total += prob * row[t]
		}
		out[p] = total
	}
	return out, nil
}

// LowestExpectedCost returns the class with the lowest expected cost and that
// cost, first index on ties.
func (m *Matrix) LowestExpectedCost(probs []float64) (int, float64, error) {
	ec, err := m.ExpectedCosts(probs)
	if err != nil {
		return -1, 0, err
	}
	best := 0
	for i := 1; i < len(ec); i++ {
		if ec[i] < ec[best] {
			best = i
		}
	}
	return best, ec[best], nil
}

// ExpectedCostRecords converts probability records into expected-cost
// records. Uncertainty values are carried over unchanged.
func (m *Matrix) ExpectedCostRecords(records []models.PredictionRecord) ([]models.PredictionRecord, error) {
	out := make([]models.PredictionRecord, len(records))
	for i, r := range records {
		ec, err := m.ExpectedCosts(r.Scores)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = models.PredictionRecord{Scores: ec}
		if r.Uncertainty != nil {
			u := *r.Uncertainty
			out[i].Uncertainty = &u
		}
	}
	return out, nil
}
