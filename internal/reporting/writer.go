package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spboyer/lesioneval/internal/models"
)

// Format is an output format of a report.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
	FormatJUnit    Format = "junit"
)

// AllFormats lists every supported format.
var AllFormats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatHTML, FormatXLSX, FormatJUnit}

// ParseFormats validates format names. "all" expands to AllFormats.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "all" {
			for _, f := range AllFormats {
				add(f)
			}
			continue
		}
		f := Format(n)
		switch f {
		case FormatJSON, FormatCSV, FormatMarkdown, FormatHTML, FormatXLSX, FormatJUnit:
			add(f)
		default:
			return nil, fmt.Errorf("unknown report format %q (valid: json, csv, md, html, xlsx, junit, all)", n)
		}
	}
	return out, nil
}

// Write renders report into dir in each format and returns the written paths.
func Write(report *models.EvaluationReport, dir string, formats []Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	var written []string
	for _, f := range formats {
		var paths []string
		var err error
		switch f {
		case FormatJSON:
			p := filepath.Join(dir, "report.json")
			paths, err = []string{p}, WriteJSON(report, p)
		case FormatCSV:
			paths, err = WriteSeriesCSV(report, filepath.Join(dir, "series"))
		case FormatMarkdown:
			p := filepath.Join(dir, "report.md")
			paths, err = []string{p}, os.WriteFile(p, []byte(Markdown(report)), 0644)
		case FormatHTML:
			p := filepath.Join(dir, "report.html")
			paths, err = []string{p}, writeHTML(report, p)
		case FormatXLSX:
			p := filepath.Join(dir, "report.xlsx")
			paths, err = []string{p}, WriteWorkbook(report, p)
		case FormatJUnit:
			p := filepath.Join(dir, "junit.xml")
			paths, err = []string{p}, WriteJUnitXML(report, p)
		default:
			err = fmt.Errorf("unknown report format %q", f)
		}
		if err != nil {
			return written, fmt.Errorf("writing %s report: %w", f, err)
		}
		slog.Debug("wrote report", "format", f, "files", len(paths))
		written = append(written, paths...)
	}
	return written, nil
}

func writeHTML(report *models.EvaluationReport, path string) error {
	data, err := HTML(report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(report *models.EvaluationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*models.EvaluationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var report models.EvaluationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &report, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileStem turns an estimator name into a file-name-safe stem.
func fileStem(name string) string {
	s := unsafeName.ReplaceAllString(name, "_")
	if s == "" {
		return "estimator"
	}
	return s
}

// WriteSeriesCSV writes every plot-ready series of the report as CSV files
// under dir and returns their paths.
func WriteSeriesCSV(report *models.EvaluationReport, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating series directory: %w", err)
	}

	var written []string
	emit := func(name string, header []string, rows [][]string) error {
		p := filepath.Join(dir, name)
		if err := writeCSV(p, header, rows); err != nil {
			return err
		}
		written = append(written, p)
		return nil
	}

	for _, set := range []struct {
		prefix string
		series []models.EstimatorSeries
	}{
		{"risk_coverage", report.RiskCoverage},
		{"cost_coverage", report.CostCoverage},
	} {
		for _, es := range set.series {
			if err := emit(fmt.Sprintf("%s_%s.csv", set.prefix, fileStem(es.Estimator)), []string{"coverage", "metric"}, seriesRows(es.Series)); err != nil {
				return written, err
			}
		}
	}

	for i := range report.Estimators {
		o := &report.Estimators[i]
		stem := fileStem(o.Name)
		if len(o.Calibration) > 0 {
			var rows [][]string
			for _, c := range o.Calibration {
				for _, b := range c.Bins {
					rows = append(rows, []string{c.Label, strconv.Itoa(b.Index), ftoa(b.Lower), ftoa(b.Upper), strconv.Itoa(b.Count), ftoa(b.MeanProbability), ftoa(b.Accuracy)})
				}
			}
			if err := emit("calibration_"+stem+".csv", []string{"class", "bin", "lower", "upper", "count", "mean_probability", "accuracy"}, rows); err != nil {
				return written, err
			}
		}
		if len(o.Histogram) > 0 {
			var rows [][]string
			for _, h := range o.Histogram {
				for _, b := range h.Bins {
					rows = append(rows, []string{h.Label, b.Range, strconv.Itoa(b.Count)})
				}
			}
			if err := emit("histogram_"+stem+".csv", []string{"class", "range", "count"}, rows); err != nil {
				return written, err
			}
		}
		for _, c := range o.PerClass {
			name := fmt.Sprintf("per_class_%s_%s.csv", stem, fileStem(c.Label))
			if err := emit(name, []string{"coverage", "metric"}, seriesRows(c.Series)); err != nil {
				return written, err
			}
		}
	}

	if mc := report.MonteCarlo; mc != nil {
		s := monteCarloSheet(mc)
		rows := make([][]string, len(s.rows))
		for i, r := range s.rows {
			rows[i] = make([]string, len(r))
			for j, v := range r {
				switch v := v.(type) {
				case int:
					rows[i][j] = strconv.Itoa(v)
				case float64:
					rows[i][j] = ftoa(v)
				}
			}
		}
		header := []string{"pass", "dropout_metric", "dropout_uncertainty", "dropout_upper", "dropout_lower",
			"baseline_metric", "baseline_uncertainty", "baseline_upper", "baseline_lower", "cumulative_mean"}
		if err := emit("montecarlo.csv", header, rows); err != nil {
			return written, err
		}
	}
	return written, nil
}

func seriesRows(s models.CoverageSeries) [][]string {
	rows := make([][]string, len(s.Coverage))
	for i := range s.Coverage {
		rows[i] = []string{ftoa(s.Coverage[i]), ftoa(s.Metric[i])}
	}
	return rows
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
