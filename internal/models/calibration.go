package models

// CalibrationBin is one fixed-width probability interval of a reliability
// diagram for a single class. Index is the 1-based bin number c of B bins,
// covering (c/B - 1/B, c/B].
type CalibrationBin struct {
	Index           int     `json:"index"`
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Count           int     `json:"count"`
	MeanProbability float64 `json:"mean_probability"`
	Accuracy        float64 `json:"accuracy"`
}

// ClassCalibration holds the non-empty reliability bins of one class.
type ClassCalibration struct {
	Class int              `json:"class"`
	Label string           `json:"label"`
	Bins  []CalibrationBin `json:"bins"`
	ECE   float64          `json:"ece"`
}

// HistogramBin is a sample count for one probability interval.
type HistogramBin struct {
	Index int     `json:"index"`
	Range string  `json:"range"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// ClassHistogram holds the per-bin counts of one class, empty bins included.
type ClassHistogram struct {
	Class int            `json:"class"`
	Label string         `json:"label"`
	Bins  []HistogramBin `json:"bins"`
}
