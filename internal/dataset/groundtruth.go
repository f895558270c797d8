package dataset

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spboyer/lesioneval/internal/models"
)

// GroundTruth holds the true class of every sample in evaluation order and
// answers correctness queries for the coverage engine.
type GroundTruth struct {
	labels []int
	images []string
	table  models.LabelTable
}

var _ models.LabelOracle = (*GroundTruth)(nil)

// NewGroundTruth wraps labels, checking each against table.
func NewGroundTruth(labels []int, table models.LabelTable) (*GroundTruth, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		if err := models.CheckIndex("label", l, table.Len()); err != nil {
			return nil, fmt.Errorf("ground truth sample %d: %w", i, err)
		}
		out[i] = l
	}
	return &GroundTruth{labels: out, table: table}, nil
}

// LoadGroundTruth reads a labels CSV. Two layouts are accepted:
//
//	image,label          label is a class name or a numeric class index
//	image,MEL,NV,...     one-hot columns named after the label table
//
// The image column is optional in both.
func LoadGroundTruth(path string, table models.LabelTable) (*GroundTruth, error) {
	rows, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ground truth %s: %w", path, models.ErrEmptyInput)
	}

	g := &GroundTruth{table: table, labels: make([]int, 0, len(rows))}
	_, byName := rows[0]["label"]
	for i, row := range rows {
		var label int
		if byName {
			label, err = parseLabel(row["label"], table)
		} else {
			label, err = oneHot(row, table)
		}
		if err != nil {
			return nil, &models.MalformedInputError{Source: path, Row: i + 2, Pass: -1, Reason: "bad label", Err: err}
		}
		g.labels = append(g.labels, label)
		if img, ok := row["image"]; ok {
			g.images = append(g.images, img)
		}
	}
	return g, nil
}

func parseLabel(s string, table models.LabelTable) (int, error) {
	s = strings.TrimSpace(s)
	if idx, ok := table.Index(s); ok {
		return idx, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("unknown label %q", s)
	}
	if err := models.CheckIndex("label", n, table.Len()); err != nil {
		return -1, err
	}
	return n, nil
}

func oneHot(row Row, table models.LabelTable) (int, error) {
	best, bestVal, found := -1, 0.0, 0
	for i, name := range table.Names() {
		raw, ok := row[name]
		if !ok {
			continue
		}
		found++
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return -1, fmt.Errorf("column %s: %w", name, err)
		}
		if v > bestVal {
			best, bestVal = i, v
		}
	}
	if found == 0 {
		return -1, fmt.Errorf("no label column and no one-hot columns matching %v", table.Names())
	}
	if best < 0 {
		return -1, fmt.Errorf("row has no positive class")
	}
	return best, nil
}

// Len returns the number of samples.
func (g *GroundTruth) Len() int {
	return len(g.labels)
}

// Label returns the true class of sample.
func (g *GroundTruth) Label(sample int) (int, error) {
	if err := models.CheckIndex("sample", sample, len(g.labels)); err != nil {
		return -1, err
	}
	return g.labels[sample], nil
}

// Labels returns the true classes of samples, in the given order.
func (g *GroundTruth) Labels(samples []int) ([]int, error) {
	out := make([]int, len(samples))
	for i, s := range samples {
		l, err := g.Label(s)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

// IsPredictionCorrect reports whether class is the true class of sample.
func (g *GroundTruth) IsPredictionCorrect(class, sample int) (bool, error) {
	l, err := g.Label(sample)
	if err != nil {
		return false, err
	}
	return l == class, nil
}

// All returns a copy of every label in sample order.
func (g *GroundTruth) All() []int {
	out := make([]int, len(g.labels))
	copy(out, g.labels)
	return out
}

// Image returns the image identifier of sample, or "" when none was loaded.
func (g *GroundTruth) Image(sample int) string {
	if sample < 0 || sample >= len(g.images) {
		return ""
	}
	return g.images[sample]
}

// Table returns the label table used to decode the file.
func (g *GroundTruth) Table() models.LabelTable {
	return g.table
}

// Counts returns the number of samples per class index.
func (g *GroundTruth) Counts() []int {
	counts := make([]int, g.table.Len())
	for _, l := range g.labels {
		counts[l]++
	}
	return counts
}

// Subset returns the ground truth restricted to indexes, in that order.
// It is how a full-dataset label file is aligned with a test split.
func (g *GroundTruth) Subset(indexes []int) (*GroundTruth, error) {
	out := &GroundTruth{table: g.table, labels: make([]int, len(indexes))}
	if len(g.images) > 0 {
		out.images = make([]string, len(indexes))
	}
	for i, idx := range indexes {
		if err := models.CheckIndex("sample", idx, len(g.labels)); err != nil {
			return nil, fmt.Errorf("subset entry %d: %w", i, err)
		}
		out.labels[i] = g.labels[idx]
		if out.images != nil && idx < len(g.images) {
			out.images[i] = g.images[idx]
		}
	}
	return out, nil
}

// LoadIndexes reads a test-index file: one integer per line, blank lines and
// lines starting with '#' ignored. A single-column CSV with an "index"
// header is also accepted.
func LoadIndexes(path string) ([]int, error) {
	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("indexes: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var out []int
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if line == 1 && strings.EqualFold(text, "index") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(text, ","))
		if err != nil {
			return nil, &models.MalformedInputError{Source: path, Row: line, Pass: -1, Reason: "not an integer index", Err: err}
		}
		if n < 0 {
			return nil, models.Malformed(path, line, fmt.Sprintf("negative index %d", n))
		}
		out = append(out, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("indexes: read %s: %w", path, err)
	}
	return out, nil
}
