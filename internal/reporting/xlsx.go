package reporting

import (
	"fmt"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetSummary      = "Summary"
	SheetRiskCoverage = "Risk coverage"
	SheetCostCoverage = "Cost coverage"
	SheetCalibration  = "Calibration"
	SheetConfusion    = "Confusion"
	SheetMonteCarlo   = "Monte-Carlo"
	SheetGates        = "Gates"
)

type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

// WriteWorkbook writes the report as an XLSX workbook, one sheet per table.
// Sheets without rows are omitted, except the summary.
func WriteWorkbook(report *models.EvaluationReport, path string) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}

	for i, s := range workbookSheets(report) {
		if i > 0 {
			if len(s.rows) == 0 {
				continue
			}
			if _, err := f.NewSheet(s.name); err != nil {
				return fmt.Errorf("creating sheet %s: %w", s.name, err)
			}
		}
		if err := fillSheet(f, s, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, s sheet, headerStyle int) error {
	for i, h := range s.headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.name, cell, h); err != nil {
			return fmt.Errorf("writing %s header: %w", s.name, err)
		}
		if err := f.SetCellStyle(s.name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("styling %s header: %w", s.name, err)
		}
	}
	for r, row := range s.rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", s.name, r+2, err)
		}
	}
	for i := range s.headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(s.name, col, col, 15); err != nil {
			return err
		}
	}
	return nil
}

func workbookSheets(report *models.EvaluationReport) []sheet {
	summary := sheet{
		name:    SheetSummary,
		headers: []string{"Estimator", "Kind", "Samples", "Accuracy", "Mean true cost", "Mean uncertainty", "Risk AUC", "Cost AUC", "ECE"},
	}
	calib := sheet{
		name:    SheetCalibration,
		headers: []string{"Estimator", "Class", "Bin", "Lower", "Upper", "Count", "Mean probability", "Accuracy"},
	}
	conf := sheet{
		name:    SheetConfusion,
		headers: []string{"Estimator", "True", "Predicted", "Count", "Normalized"},
	}
	for i := range report.Estimators {
		o := &report.Estimators[i]
		summary.rows = append(summary.rows, []any{
			o.Name, string(o.Kind), o.Samples, o.Accuracy, o.MeanTrueCost, o.MeanUncertainty, o.RiskAUC, o.CostAUC, o.MeanECE(),
		})
		for _, c := range o.Calibration {
			for _, bin := range c.Bins {
				calib.rows = append(calib.rows, []any{o.Name, c.Label, bin.Index, bin.Lower, bin.Upper, bin.Count, bin.MeanProbability, bin.Accuracy})
			}
		}
		if cs := o.Confusion; cs != nil {
			for t, row := range cs.Counts {
				for p, n := range row {
					norm := 0.0
					if t < len(cs.Normalized) && p < len(cs.Normalized[t]) {
						norm = cs.Normalized[t][p]
					}
					conf.rows = append(conf.rows, []any{o.Name, labelAt(cs.Labels, t), labelAt(cs.Labels, p), n, norm})
				}
			}
		}
	}

	gates := sheet{
		name:    SheetGates,
		headers: []string{"Gate", "Estimator", "Value", "Threshold", "Minimum", "Status"},
	}
	for _, g := range report.Gates {
		gates.rows = append(gates.rows, []any{g.Identifier, g.Estimator, g.Value, g.Threshold, g.Minimum, string(g.Status)})
	}

	return []sheet{
		summary,
		seriesSheet(SheetRiskCoverage, report.RiskCoverage),
		seriesSheet(SheetCostCoverage, report.CostCoverage),
		calib,
		conf,
		monteCarloSheet(report.MonteCarlo),
		gates,
	}
}

func seriesSheet(name string, series []models.EstimatorSeries) sheet {
	s := sheet{name: name, headers: []string{"Estimator", "Coverage", "Metric"}}
	for _, es := range series {
		for i := range es.Series.Coverage {
			s.rows = append(s.rows, []any{es.Estimator, es.Series.Coverage[i], es.Series.Metric[i]})
		}
	}
	return s
}

func monteCarloSheet(mc *models.MonteCarloResult) sheet {
	s := sheet{
		name: SheetMonteCarlo,
		headers: []string{
			"Pass", "Dropout metric", "Dropout uncertainty", "Dropout upper", "Dropout lower",
			"Baseline metric", "Baseline uncertainty", "Baseline upper", "Baseline lower", "Cumulative mean",
		},
	}
	if mc == nil {
		return s
	}
	for i, pass := range mc.Passes {
		s.rows = append(s.rows, []any{
			pass,
			at(mc.Dropout.Metric, i), at(mc.Dropout.MeanUncertainty, i), at(mc.Dropout.Upper, i), at(mc.Dropout.Lower, i),
			at(mc.Baseline.Metric, i), at(mc.Baseline.MeanUncertainty, i), at(mc.Baseline.Upper, i), at(mc.Baseline.Lower, i),
			at(mc.CumulativeMean, i),
		})
	}
	return s
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("class_%d", i)
}
