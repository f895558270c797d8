package cost

import (
	"testing"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedCosts_Flattened(t *testing.T) {
	m, err := New(Config{Classes: 3, Flattened: true})
	require.NoError(t, err)

	// With 0/1 costs, the expected cost of predicting p is 1 - probs[p].
	ec, err := m.ExpectedCosts([]float64{0.6, 0.3, 0.1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4, 0.7, 0.9}, ec, 1e-12)

	class, lowest, err := m.LowestExpectedCost([]float64{0.6, 0.3, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
	assert.InDelta(t, 0.4, lowest, 1e-12)
}

func TestExpectedCosts_WithAbstain(t *testing.T) {
	m, err := New(Config{Classes: 2, Uncertain: true, Weights: [][]float64{
		{0, 4, 1},
		{4, 0, 1},
		{0.5, 0.5, 0},
	}})
	require.NoError(t, err)

	ec, err := m.ExpectedCosts([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Len(t, ec, 3)
	assert.InDeltaSlice(t, []float64{2, 2, 0.5}, ec, 1e-12)

	class, _, err := m.LowestExpectedCost([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, m.AbstainIndex(), class, "an even split should defer")

	class, _, err = m.LowestExpectedCost([]float64{0.95, 0.05})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
}

func TestExpectedCosts_WrongLength(t *testing.T) {
	m, err := New(Config{Classes: 3, Flattened: true})
	require.NoError(t, err)
	_, err = m.ExpectedCosts([]float64{1, 0})
	assert.Error(t, err)
}

func TestExpectedCostRecords_KeepsUncertainty(t *testing.T) {
	m, err := New(Config{Classes: 2, Flattened: true})
	require.NoError(t, err)

	in := []models.PredictionRecord{
		models.NewPredictionRecord(0.9, 0.1).WithUncertainty(0.2),
		models.NewPredictionRecord(0.3, 0.7),
	}
	out, err := m.ExpectedCostRecords(in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.InDeltaSlice(t, []float64{0.1, 0.9}, out[0].Scores, 1e-12)
	require.True(t, out[0].HasUncertainty())
	assert.Equal(t, 0.2, *out[0].Uncertainty)
	assert.False(t, out[1].HasUncertainty())

	// inputs untouched
	assert.Equal(t, []float64{0.9, 0.1}, in[0].Scores)
}
