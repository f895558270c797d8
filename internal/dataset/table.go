package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spboyer/lesioneval/internal/models"
)

// ReadTable loads a headerless prediction table: one row per sample, the
// class scores first and, when layout.Uncertainty is set, one trailing
// uncertainty column. A zero layout.Classes is inferred from the first row.
func ReadTable(path string, layout models.Layout) ([]models.PredictionRecord, error) {
	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	return ParseTable(f, path, layout)
}

// ParseTable decodes a prediction table from r. source names the input in
// errors. Every row must have the same number of columns and every value
// must be a finite number; class scores must also be non-negative.
func ParseTable(r io.Reader, source string, layout models.Layout) ([]models.PredictionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var records []models.PredictionRecord
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &models.MalformedInputError{Source: source, Row: row, Pass: -1, Reason: "unreadable row", Err: err}
		}
		if row == 1 && layout.Classes == 0 {
			layout.Classes = len(fields)
			if layout.Uncertainty {
				layout.Classes--
			}
			if layout.Classes < 1 {
				return nil, models.Malformed(source, row, "no class score columns")
			}
		}

		rec, err := parseRow(fields, source, row, layout)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(fields []string, source string, row int, layout models.Layout) (models.PredictionRecord, error) {
	want := layout.Columns()
	if len(fields) != want {
		reason := fmt.Sprintf("got %d columns, expected %d", len(fields), want)
		if layout.Uncertainty && len(fields) == layout.Classes {
			reason = "missing trailing uncertainty column"
		}
		return models.PredictionRecord{}, models.Malformed(source, row, reason)
	}

	scores := make([]float64, layout.Classes)
	for i := 0; i < layout.Classes; i++ {
		v, err := parseValue(fields[i])
		if err != nil {
			return models.PredictionRecord{}, &models.MalformedInputError{Source: source, Row: row, Column: i + 1, Pass: -1, Reason: "not a finite number", Err: err}
		}
		if v < 0 {
			return models.PredictionRecord{}, &models.MalformedInputError{Source: source, Row: row, Column: i + 1, Pass: -1, Reason: fmt.Sprintf("negative score %g", v)}
		}
		scores[i] = v
	}

	rec := models.PredictionRecord{Scores: scores}
	if layout.Uncertainty {
		v, err := parseValue(fields[layout.Classes])
		if err != nil {
			return models.PredictionRecord{}, &models.MalformedInputError{Source: source, Row: row, Column: layout.Classes + 1, Pass: -1, Reason: "uncertainty is not a finite number", Err: err}
		}
		rec.Uncertainty = &v
	}
	return rec, nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", s)
	}
	return v, nil
}

// WriteTable writes records as a headerless table, the uncertainty value (if
// any) in the last column. Values use the shortest representation that
// parses back to the identical float64.
func WriteTable(path string, records []models.PredictionRecord) (err error) {
	w, err := Create(path)
	if err != nil {
		return fmt.Errorf("table: create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("table: close %s: %w", path, cerr)
		}
	}()
	return EncodeTable(w, records)
}

// EncodeTable writes records to w in the ReadTable format.
func EncodeTable(w io.Writer, records []models.PredictionRecord) error {
	cw := csv.NewWriter(w)
	for i, r := range records {
		fields := make([]string, 0, len(r.Scores)+1)
		for _, s := range r.Scores {
			fields = append(fields, strconv.FormatFloat(s, 'g', -1, 64))
		}
		if r.Uncertainty != nil {
			fields = append(fields, strconv.FormatFloat(*r.Uncertainty, 'g', -1, 64))
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("table: write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
