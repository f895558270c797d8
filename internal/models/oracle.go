package models

//go:generate mockgen -destination=../mocks/mock_oracle.go -package=mocks github.com/spboyer/lesioneval/internal/models LabelOracle

// LabelOracle answers ground-truth questions about evaluation samples. Sample
// indices are positions in the prediction tables being evaluated.
type LabelOracle interface {
	// Len returns the number of samples known to the oracle.
	Len() int
	// Label returns the true class index of a sample.
	Label(sample int) (int, error)
	// Labels returns the true class indices of the given samples, in order.
	Labels(samples []int) ([]int, error)
	// IsPredictionCorrect reports whether class is the true class of sample.
	IsPredictionCorrect(class, sample int) (bool, error)
}
