package cost

// clinical is indexed [predicted][truth] over MEL NV BCC AK BKL DF VASC SCC.
// Calling a malignant lesion benign costs the most, then calling a
// malignant lesion actinic keratosis, then over-treating a benign lesion.
var clinical = [][]float64{
	//  MEL  NV BCC  AK BKL  DF VASC SCC
	{0, 2, 1, 1, 2, 2, 2, 1},  // MEL
	{10, 0, 6, 3, 1, 1, 1, 8}, // NV
	{1, 2, 0, 1, 2, 2, 2, 1},  // BCC
	{5, 1, 3, 0, 1, 1, 1, 3},  // AK
	{10, 1, 6, 3, 0, 1, 1, 8}, // BKL
	{10, 1, 6, 3, 1, 0, 1, 8}, // DF
	{10, 1, 6, 3, 1, 1, 0, 8}, // VASC
	{1, 2, 1, 1, 2, 2, 2, 0},  // SCC
}

// abstainRow is the cost of deferring to a clinician for each true class,
// with the unknown class last.
var abstainRow = []float64{0.8, 0.5, 0.8, 0.6, 0.5, 0.5, 0.5, 0.8, 0}

// unknownColumn is the cost of committing to each diagnosis when the
// lesion belongs to none of the known classes.
var unknownColumn = []float64{1, 2, 1, 1, 2, 2, 2, 1}

func clinicalRows(uncertain bool) [][]float64 {
	if !uncertain {
		return copyRows(clinical)
	}
	rows := make([][]float64, 0, len(clinical)+1)
	for p, row := range clinical {
		ext := make([]float64, 0, len(row)+1)
		ext = append(ext, row...)
		ext = append(ext, unknownColumn[p])
		rows = append(rows, ext)
	}
	return append(rows, append([]float64(nil), abstainRow...))
}

// Find looks up a single cost over the default eight ISIC classes. It is a
// convenience for one-off lookups; loops should build a Matrix once.
func Find(predicted, truth int, flatten, uncertain bool) (float64, error) {
	m, err := New(Config{Classes: len(clinical), Flattened: flatten, Uncertain: uncertain})
	if err != nil {
		return 0, err
	}
	return m.Cost(predicted, truth)
}
