package models

import "fmt"

// UnknownLabel is the display name of the explicit unknown/abstain class.
const UnknownLabel = "UNK"

// DefaultLabels are the ISIC 2019 diagnostic categories in class-index order.
var DefaultLabels = []string{"MEL", "NV", "BCC", "AK", "BKL", "DF", "VASC", "SCC"}

// LabelTable maps class indices to display labels. It is built once and
// never modified; hot loops work on indices and only reports look up names.
type LabelTable struct {
	names   []string
	unknown bool
}

// NewLabelTable builds a table from names. When unknown is true an extra
// UnknownLabel entry is appended at index len(names).
func NewLabelTable(names []string, unknown bool) (LabelTable, error) {
	if len(names) == 0 {
		return LabelTable{}, fmt.Errorf("label table: at least one label is required")
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names)+1)
	for _, n := range names {
		if n == "" {
			return LabelTable{}, fmt.Errorf("label table: empty label at index %d", len(out))
		}
		if seen[n] {
			return LabelTable{}, fmt.Errorf("label table: duplicate label %q", n)
		}
		seen[n] = true
		out = append(out, n)
	}
	if unknown {
		if seen[UnknownLabel] {
			return LabelTable{}, fmt.Errorf("label table: %q is reserved for the unknown class", UnknownLabel)
		}
		out = append(out, UnknownLabel)
	}
	return LabelTable{names: out, unknown: unknown}, nil
}

// DefaultLabelTable returns the ISIC 2019 table.
func DefaultLabelTable(unknown bool) LabelTable {
	t, _ := NewLabelTable(DefaultLabels, unknown)
	return t
}

// Len returns the number of entries including the unknown class.
func (t LabelTable) Len() int {
	return len(t.names)
}

// Classes returns the number of diagnostic classes, excluding the unknown class.
func (t LabelTable) Classes() int {
	if t.unknown {
		return len(t.names) - 1
	}
	return len(t.names)
}

// HasUnknown reports whether the table carries the unknown class.
func (t LabelTable) HasUnknown() bool {
	return t.unknown
}

// Name returns the label for index i, or a placeholder when i is out of range.
func (t LabelTable) Name(i int) string {
	if i < 0 || i >= len(t.names) {
		return fmt.Sprintf("class_%d", i)
	}
	return t.names[i]
}

// Index returns the class index for name.
func (t LabelTable) Index(name string) (int, bool) {
	for i, n := range t.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns a copy of all labels in index order.
func (t LabelTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
