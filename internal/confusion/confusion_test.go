package confusion

import (
	"errors"
	"testing"

	"github.com/spboyer/lesioneval/internal/mocks"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMatrix_AddAndAccuracy(t *testing.T) {
	m := New(3)
	require.NoError(t, m.Add(0, 0))
	require.NoError(t, m.Add(0, 1))
	require.NoError(t, m.Add(1, 1))
	require.NoError(t, m.Add(2, 2))

	assert.Equal(t, [][]int{{1, 1, 0}, {0, 1, 0}, {0, 0, 1}}, m.Counts())
	assert.Equal(t, 4, m.Total())
	assert.InDelta(t, 0.75, m.Accuracy(), 1e-12)

	var idxErr *models.IndexOutOfRangeError
	require.True(t, errors.As(m.Add(3, 0), &idxErr))
	assert.Equal(t, "true class", idxErr.Kind)
	require.True(t, errors.As(m.Add(0, -1), &idxErr))
	assert.Equal(t, "predicted class", idxErr.Kind)
}

func TestMatrix_Normalized(t *testing.T) {
	m := New(2)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Add(0, 0))
	}
	require.NoError(t, m.Add(0, 1))

	got := m.Normalized()
	assert.Equal(t, []float64{0.6, 0.2}, got[0])
	assert.Equal(t, []float64{0, 0}, got[1], "empty row stays zero")

	m = New(2)
	require.NoError(t, m.Add(1, 0))
	require.NoError(t, m.Add(1, 1))
	assert.Equal(t, []float64{0.3333, 0.3333}, m.Normalized()[1])
}

func TestMatrix_Empty(t *testing.T) {
	m := New(2)
	assert.Zero(t, m.Accuracy())
	assert.Zero(t, m.Total())
}

func TestFromRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewLabelOracleFor(ctrl, []int{0, 1, 1})
	recs := []models.PredictionRecord{
		models.NewPredictionRecord(0.9, 0.1),
		models.NewPredictionRecord(0.7, 0.3),
		models.NewPredictionRecord(0.2, 0.8),
	}

	m, err := FromRecords(recs, oracle, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, m.Counts())

	s := m.Summary(models.DefaultLabelTable(false))
	assert.Equal(t, []string{"MEL", "NV"}, s.Labels)
	assert.InDelta(t, 2.0/3, s.Accuracy, 1e-12)

	_, err = FromRecords(recs[:2], oracle, 2)
	assert.ErrorContains(t, err, "2 predictions but 3 labels")
}

func TestFromPredictions_Abstain(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewLabelOracleFor(ctrl, []int{0, 1})

	m, err := FromPredictions([]int{2, 1}, oracle, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 0, 1}, {0, 1, 0}}, m.Counts())
	assert.InDelta(t, 0.5, m.Accuracy(), 1e-12)

	s := m.Summary(models.DefaultLabelTable(false))
	assert.Len(t, s.Labels, 3)
}
