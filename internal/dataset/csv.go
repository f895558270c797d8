// Package dataset reads and writes the tables the evaluator works on:
// ground-truth labels, test-index lists and per-sample prediction tables.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row maps a header name to the cell of one record.
type Row map[string]string

// LoadCSV reads a headed CSV file into rows keyed by header name. Header
// cells are trimmed and a leading byte-order mark (common in spreadsheet
// exports of the ISIC metadata) is dropped. Compressed files (.gz, .zst)
// are decompressed transparently.
func LoadCSV(path string) ([]Row, error) {
	f, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	rows, err := readRows(f)
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}
	return rows, nil
}

func readRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no header row")
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(header))
		for j, name := range header {
			row[name] = record[j]
		}
		rows = append(rows, row)
	}
}
