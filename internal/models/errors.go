package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when an algorithm that needs at least one sample
// receives none.
var ErrEmptyInput = errors.New("empty input: at least one sample is required")

// MalformedInputError reports a prediction row or table that cannot be used:
// wrong column count, non-numeric content or a missing uncertainty column.
// Row and Column are 1-based; zero means "not applicable". Pass is the
// Monte-Carlo pass index, or -1 outside of a multi-pass aggregation.
type MalformedInputError struct {
	Source string
	Row    int
	Column int
	Pass   int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed input")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Pass >= 0 {
		fmt.Fprintf(&b, " (pass %d)", e.Pass)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
		if e.Column > 0 {
			fmt.Fprintf(&b, ", column %d", e.Column)
		}
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Malformed is a shorthand for a MalformedInputError outside a pass.
func Malformed(source string, row int, reason string) *MalformedInputError {
	return &MalformedInputError{Source: source, Row: row, Pass: -1, Reason: reason}
}

// IndexOutOfRangeError reports a class or sample index outside [0, Limit).
type IndexOutOfRangeError struct {
	Kind  string
	Index int
	Limit int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Limit)
}

// CheckIndex returns an IndexOutOfRangeError when i is outside [0, limit).
func CheckIndex(kind string, i, limit int) error {
	if i < 0 || i >= limit {
		return &IndexOutOfRangeError{Kind: kind, Index: i, Limit: limit}
	}
	return nil
}
