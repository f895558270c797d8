// Package confusion counts (true class, predicted class) pairs.
package confusion

import (
	"fmt"
	"math"

	"github.com/spboyer/lesioneval/internal/models"
)

// Matrix holds counts indexed [truth][predicted]. The predicted axis may be
// wider than the truth axis when an abstain class can be predicted.
type Matrix struct {
	counts    [][]int
	predicted int
}

// New returns an empty classes×classes matrix.
func New(classes int) *Matrix {
	return NewRect(classes, classes)
}

// NewRect returns an empty matrix with truth rows and predicted columns.
func NewRect(truth, predicted int) *Matrix {
	counts := make([][]int, truth)
	for i := range counts {
		counts[i] = make([]int, predicted)
	}
	return &Matrix{counts: counts, predicted: predicted}
}

// Add records one sample.
func (m *Matrix) Add(truth, predicted int) error {
	if err := models.CheckIndex("true class", truth, len(m.counts)); err != nil {
		return err
	}
	if err := models.CheckIndex("predicted class", predicted, m.predicted); err != nil {
		return err
	}
	m.counts[truth][predicted]++
	return nil
}

// FromRecords counts argmax predictions of records against the oracle.
func FromRecords(records []models.PredictionRecord, oracle models.LabelOracle, classes int) (*Matrix, error) {
	predicted := make([]int, len(records))
	for i, r := range records {
		predicted[i] = r.Argmax()
	}
	return FromPredictions(predicted, oracle, classes, classes)
}

// FromPredictions counts the given predicted classes against the oracle.
func FromPredictions(predicted []int, oracle models.LabelOracle, truthClasses, predictedClasses int) (*Matrix, error) {
	if oracle.Len() != len(predicted) {
		return nil, fmt.Errorf("confusion: %d predictions but %d labels", len(predicted), oracle.Len())
	}
	m := NewRect(truthClasses, predictedClasses)
	for i, p := range predicted {
		truth, err := oracle.Label(i)
		if err != nil {
			return nil, fmt.Errorf("confusion: sample %d: %w", i, err)
		}
		if err := m.Add(truth, p); err != nil {
			return nil, fmt.Errorf("confusion: sample %d: %w", i, err)
		}
	}
	return m, nil
}

// Counts returns a copy of the raw counts.
func (m *Matrix) Counts() [][]int {
	out := make([][]int, len(m.counts))
	for i, row := range m.counts {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Total returns the number of samples recorded.
func (m *Matrix) Total() int {
	total := 0
	for _, row := range m.counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Accuracy returns the diagonal share of all samples, 0 when empty.
func (m *Matrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	correct := 0
	for i, row := range m.counts {
		if i < len(row) {
			correct += row[i]
		}
	}
	return float64(correct) / float64(total)
}

// Normalized divides each row by its sum plus one and rounds to four
// decimals. The extra one keeps empty rows at zero.
func (m *Matrix) Normalized() [][]float64 {
	out := make([][]float64, len(m.counts))
	for i, row := range m.counts {
		sum := 0
		for _, c := range row {
			sum += c
		}
		out[i] = make([]float64, len(row))
		for j, c := range row {
			out[i][j] = math.Round(float64(c)/float64(sum+1)*1e4) / 1e4
		}
	}
	return out
}

// Summary renders the matrix for a report.
func (m *Matrix) Summary(labels models.LabelTable) *models.ConfusionSummary {
	names := make([]string, m.predicted)
	for i := range names {
		names[i] = labels.Name(i)
	}
	return &models.ConfusionSummary{
		Labels:     names,
		Counts:     m.Counts(),
		Normalized: m.Normalized(),
		Accuracy:   m.Accuracy(),
	}
}
