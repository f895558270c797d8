package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/reporting"
	"github.com/spboyer/lesioneval/internal/statistics"
	"github.com/spf13/cobra"
)

var (
	compareOutputFormat string
	compareConfidence   float64
	compareSeed         int64
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <report1.json> <report2.json> [report3.json ...]",
		Short: "Compare evaluation reports",
		Long: `Compare two or more report.json files side by side.

For every estimator the accuracy and curve areas of each report are shown
with the change from the first report to the last. When both reports cover
the same samples, a paired bootstrap interval of the per-sample accuracy
difference tells whether the change is significant.`,
		Args: cobra.MinimumNArgs(2),
		RunE: compareCommandE,
	}

	cmd.Flags().StringVarP(&compareOutputFormat, "format", "f", "table", "Output format: table or json")
	cmd.Flags().Float64Var(&compareConfidence, "confidence", 0.95, "Paired bootstrap interval level")
	cmd.Flags().Int64Var(&compareSeed, "seed", 0, "Bootstrap seed; negative is non-deterministic")

	return cmd
}

// estimatorComparison holds one estimator across reports. Values are nil
// where a report lacks the estimator.
type estimatorComparison struct {
	Name          string                         `json:"name"`
	Accuracy      []*float64                     `json:"accuracy"`
	RiskAUC       []*float64                     `json:"risk_auc"`
	CostAUC       []*float64                     `json:"cost_auc"`
	AccuracyDelta *float64                       `json:"accuracy_delta,omitempty"`
	RiskAUCDelta  *float64                       `json:"risk_auc_delta,omitempty"`
	PairedCI      *statistics.ConfidenceInterval `json:"paired_ci,omitempty"`
	Significant   bool                           `json:"significant"`
}

// comparisonReport is the full comparison output.
type comparisonReport struct {
	Files      []string              `json:"files"`
	RunIDs     []string              `json:"run_ids"`
	Samples    []int                 `json:"samples"`
	Estimators []estimatorComparison `json:"estimators"`
}

func compareCommandE(cmd *cobra.Command, args []string) error {
	if compareOutputFormat != "table" && compareOutputFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", compareOutputFormat)
	}

	reports := make([]*models.EvaluationReport, 0, len(args))
	for _, path := range args {
		r, err := reporting.ReadJSON(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		reports = append(reports, r)
	}

	report := buildComparisonReport(args, reports, compareConfidence, compareSeed)
	out := cmd.OutOrStdout()
	if compareOutputFormat == "json" {
		return printComparisonJSON(out, report)
	}
	printComparisonTable(out, report)
	return nil
}

func riskSeries(r *models.EvaluationReport, name string) (models.CoverageSeries, bool) {
	for _, s := range r.RiskCoverage {
		if s.Estimator == name {
			return s.Series, true
		}
	}
	return models.CoverageSeries{}, false
}

func costAUC(r *models.EvaluationReport, name string) *float64 {
	for _, s := range r.CostCoverage {
		if s.Estimator == name {
			return &s.AUC
		}
	}
	return nil
}

func buildComparisonReport(files []string, reports []*models.EvaluationReport, level float64, seed int64) *comparisonReport {
	out := &comparisonReport{Files: files}
	var names []string
	seen := map[string]bool{}
	for _, r := range reports {
		out.RunIDs = append(out.RunIDs, r.RunID)
		out.Samples = append(out.Samples, r.Setup.Samples)
		for _, o := range r.Estimators {
			if !seen[o.Name] {
				seen[o.Name] = true
				names = append(names, o.Name)
			}
		}
	}

	first, last := reports[0], reports[len(reports)-1]
	for _, name := range names {
		ec := estimatorComparison{Name: name}
		for _, r := range reports {
			o, ok := r.FindEstimator(name)
			if !ok {
				ec.Accuracy = append(ec.Accuracy, nil)
				ec.RiskAUC = append(ec.RiskAUC, nil)
				ec.CostAUC = append(ec.CostAUC, nil)
				continue
			}
			ec.Accuracy = append(ec.Accuracy, &o.Accuracy)
			ec.RiskAUC = append(ec.RiskAUC, &o.RiskAUC)
			ec.CostAUC = append(ec.CostAUC, costAUC(r, name))
		}

		a, b := ec.Accuracy[0], ec.Accuracy[len(reports)-1]
		if a != nil && b != nil {
			d := *b - *a
			ec.AccuracyDelta = &d
			r := *ec.RiskAUC[len(reports)-1] - *ec.RiskAUC[0]
			ec.RiskAUCDelta = &r
			ec.PairedCI = pairedAccuracyCI(first, last, name, level, seed)
			ec.Significant = ec.PairedCI != nil && statistics.IsSignificant(*ec.PairedCI)
		}
		out.Estimators = append(out.Estimators, ec)
	}
	return out
}

// pairedAccuracyCI bootstraps the per-sample correctness difference
// (last - first) recovered from both risk-coverage curves. Nil when the
// reports do not cover the same samples.
func pairedAccuracyCI(first, last *models.EvaluationReport, name string, level float64, seed int64) *statistics.ConfidenceInterval {
	sa, ok1 := riskSeries(first, name)
	sb, ok2 := riskSeries(last, name)
	if !ok1 || !ok2 || sa.Samples() != sb.Samples() {
		return nil
	}
	va, err := sa.PerSample()
	if err != nil {
		return nil
	}
	vb, err := sb.PerSample()
	if err != nil {
		return nil
	}
	ci, err := statistics.PairedDifferenceCI(vb, va, level, seed)
	if err != nil {
		return nil
	}
	return &ci
}

func cell(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return f4(*v)
}

func printComparisonTable(w io.Writer, r *comparisonReport) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, " COMPARISON REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w)
	for i, f := range r.Files {
		fmt.Fprintf(w, "  [%d] %s  (run: %s, samples: %d)\n", i+1, f, r.RunIDs[i], r.Samples[i])
	}
	fmt.Fprintln(w)

	header := []string{"ESTIMATOR"}
	for i := range r.Files {
		header = append(header, fmt.Sprintf("[%d] ACC", i+1))
	}
	header = append(header, "DELTA", "CI", "")
	t := newTable(header...)
	for _, ec := range r.Estimators {
		row := []string{ec.Name}
		for _, v := range ec.Accuracy {
			row = append(row, cell(v))
		}
		delta, ci, mark := "n/a", "n/a", ""
		if ec.AccuracyDelta != nil {
			delta = fmt.Sprintf("%+.4f", *ec.AccuracyDelta)
			icon := " "
			if *ec.AccuracyDelta > 0 {
				icon = "↑"
			} else if *ec.AccuracyDelta < 0 {
				icon = "↓"
			}
			delta = icon + delta
		}
		if ec.PairedCI != nil {
			ci = fmt.Sprintf("[%+.4f, %+.4f]", ec.PairedCI.Lower, ec.PairedCI.Upper)
			if ec.Significant {
				mark = "significant"
			}
		}
		t.add(append(row, delta, ci, mark)...)
	}
	t.render(w)
	fmt.Fprintln(w)

	header = []string{"ESTIMATOR"}
	for i := range r.Files {
		header = append(header, fmt.Sprintf("[%d] RISK AUC", i+1), fmt.Sprintf("[%d] COST AUC", i+1))
	}
	at := newTable(header...)
	for _, ec := range r.Estimators {
		row := []string{ec.Name}
		for i := range ec.RiskAUC {
			row = append(row, cell(ec.RiskAUC[i]), cell(ec.CostAUC[i]))
		}
		at.add(row...)
	}
	at.render(w)
}

func printComparisonJSON(w io.Writer, r *comparisonReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal comparison report: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
