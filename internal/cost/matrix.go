// Package cost maps (predicted class, true class) pairs to a scalar cost and
// derives per-class expected costs from predicted probabilities.
package cost

import (
	"fmt"
	"math"

	"github.com/spboyer/lesioneval/internal/models"
)

// Config selects and sizes a cost matrix.
type Config struct {
	// Classes is the number of diagnostic classes C.
	Classes int
	// Flattened replaces every off-diagonal entry with 1.
	Flattened bool
	// Uncertain adds an abstain class at index C.
	Uncertain bool
	// Weights overrides the clinical matrix. Rows are predicted classes and
	// columns are true classes; it must be C×C, or (C+1)×(C+1) when Uncertain.
	Weights [][]float64
}

// Matrix is a read-only cost table indexed [predicted][truth].
type Matrix struct {
	rows      [][]float64
	classes   int
	flattened bool
	uncertain bool
}

// New builds a cost matrix from cfg.
func New(cfg Config) (*Matrix, error) {
	if cfg.Classes < 1 {
		return nil, fmt.Errorf("cost matrix: classes must be >= 1, got %d", cfg.Classes)
	}
	size := cfg.Classes
	if cfg.Uncertain {
		size++
	}

	var rows [][]float64
	switch {
	case cfg.Flattened:
		rows = flattened(size)
	case cfg.Weights != nil:
		if err := validateWeights(cfg.Weights, size); err != nil {
			return nil, err
		}
		rows = copyRows(cfg.Weights)
	default:
		if cfg.Classes != len(clinical) {
			return nil, fmt.Errorf("cost matrix: the clinical matrix covers %d classes, got %d; supply weights or flatten", len(clinical), cfg.Classes)
		}
		rows = clinicalRows(cfg.Uncertain)
	}

	return &Matrix{
		rows:      rows,
		classes:   cfg.Classes,
		flattened: cfg.Flattened,
		uncertain: cfg.Uncertain,
	}, nil
}

// Cost returns the cost of predicting predicted when the truth is truth.
// Indices outside the matrix are an error.
func (m *Matrix) Cost(predicted, truth int) (float64, error) {
	if err := models.CheckIndex("predicted class", predicted, len(m.rows)); err != nil {
		return 0, err
	}
	if err := models.CheckIndex("true class", truth, len(m.rows)); err != nil {
		return 0, err
	}
	return m.rows[predicted][truth], nil
}

// Size returns the matrix dimension: C, or C+1 with the abstain class.
func (m *Matrix) Size() int {
	return len(m.rows)
}

// Classes returns the number of diagnostic classes C.
func (m *Matrix) Classes() int {
	return m.classes
}

// Uncertain reports whether the matrix carries the abstain class.
func (m *Matrix) Uncertain() bool {
	return m.uncertain
}

// Flattened reports whether every off-diagonal entry is 1.
func (m *Matrix) Flattened() bool {
	return m.flattened
}

// AbstainIndex returns the abstain class index, or -1 without one.
func (m *Matrix) AbstainIndex() int {
	if !m.uncertain {
		return -1
	}
	return m.classes
}

// Rows returns a copy of the table.
func (m *Matrix) Rows() [][]float64 {
	return copyRows(m.rows)
}

func flattened(size int) [][]float64 {
	rows := make([][]float64, size)
	for p := range rows {
		rows[p] = make([]float64, size)
		for t := range rows[p] {
			if p != t {
				rows[p][t] = 1
			}
		}
	}
	return rows
}

func validateWeights(w [][]float64, size int) error {
	if len(w) != size {
		return fmt.Errorf("cost matrix: weights have %d rows, expected %d", len(w), size)
	}
	for p, row := range w {
		if len(row) != size {
			return fmt.Errorf("cost matrix: weights row %d has %d columns, expected %d", p, len(row), size)
		}
		for t, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("cost matrix: weight [%d][%d] = %g must be a non-negative number", p, t, v)
			}
			if p == t && v != 0 {
				return fmt.Errorf("cost matrix: diagonal weight [%d][%d] = %g must be 0", p, t, v)
			}
		}
	}
	return nil
}

func copyRows(in [][]float64) [][]float64 {
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
