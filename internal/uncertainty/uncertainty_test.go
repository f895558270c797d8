package uncertainty

import (
	"errors"
	"testing"

	"github.com/spboyer/lesioneval/internal/mocks"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func fixture() []models.PredictionRecord {
	return []models.PredictionRecord{
		models.NewPredictionRecord(0.9, 0.1).WithUncertainty(0.2), // MEL, correct
		models.NewPredictionRecord(0.6, 0.4).WithUncertainty(0.6), // MEL, wrong
		models.NewPredictionRecord(0.3, 0.7).WithUncertainty(0.4), // NV, correct
		models.NewPredictionRecord(0.2, 0.8).WithUncertainty(0.3), // NV, correct
	}
}

func TestSplit(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewLabelOracleFor(ctrl, []int{0, 1, 1, 1})

	correct, incorrect, err := Split(fixture(), oracle)
	require.NoError(t, err)
	require.Len(t, correct, 3)
	require.Len(t, incorrect, 1)
	assert.Equal(t, Outcome{Sample: 1, Predicted: 0, Truth: 1, Uncertainty: 0.6}, incorrect[0])
	assert.Equal(t, []int{0, 2, 3}, []int{correct[0].Sample, correct[1].Sample, correct[2].Sample})
}

func TestSplit_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, _, err := Split(fixture(), mocks.NewLabelOracleFor(ctrl, []int{0}))
	assert.ErrorContains(t, err, "4 predictions but 1 labels")

	_, _, err = Split([]models.PredictionRecord{models.NewPredictionRecord(1, 0)}, mocks.NewLabelOracleFor(ctrl, []int{0}))
	var mErr *models.MalformedInputError
	assert.True(t, errors.As(err, &mErr))
}

func TestByClass(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewLabelOracleFor(ctrl, []int{0, 1, 1, 1})
	correct, incorrect, err := Split(fixture(), oracle)
	require.NoError(t, err)

	labels, err := models.NewLabelTable([]string{"MEL", "NV", "BCC"}, false)
	require.NoError(t, err)
	got, err := ByClass(correct, incorrect, labels, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "MEL", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 0.5, got[0].Accuracy, 1e-12)
	assert.InDelta(t, 0.4, got[0].MeanUncertainty, 1e-12)

	assert.InDelta(t, 1.0, got[1].Accuracy, 1e-12)
	assert.InDelta(t, 0.35, got[1].MeanUncertainty, 1e-12)

	assert.Equal(t, models.ClassUncertainty{Class: 2, Label: "BCC"}, got[2])

	_, err = ByClass([]Outcome{{Predicted: 5}}, nil, labels, 3)
	assert.Error(t, err)
}

func TestHistogram(t *testing.T) {
	bins, err := Histogram([]float64{0, 0.1, 0.5, 0.55, 1, 2}, 2, 0, 1)
	require.NoError(t, err)
	require.Len(t, bins, 2)
	assert.Equal(t, 3, bins[0].Count, "0 and 0.5 land in the first bin")
	assert.Equal(t, 2, bins[1].Count)
	assert.Equal(t, "0 to 0.5", bins[0].Range)

	bins, err = Histogram([]float64{0.3, 0.3}, 4, 0.3, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 2, bins[0].Count, "degenerate range widens to one unit")

	_, err = Histogram(nil, 0, 0, 1)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewLabelOracleFor(ctrl, []int{0, 1, 1, 1})

	s, err := Summarize(fixture(), oracle, Argmax, models.DefaultLabelTable(false), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Correct)
	assert.Equal(t, 1, s.Incorrect)
	assert.InDelta(t, 0.3, s.MeanCorrect, 1e-12)
	assert.InDelta(t, 0.6, s.MeanIncorrect, 1e-12)
	assert.Len(t, s.ByClass, 8)
	require.Len(t, s.CorrectHistogram, 4)
	assert.Equal(t, s.CorrectHistogram[0].Lower, s.IncorrectHistogram[0].Lower)
	assert.InDelta(t, 0.6, s.IncorrectHistogram[3].Upper, 1e-12)
	assert.Equal(t, 1, s.IncorrectHistogram[3].Count)
}
