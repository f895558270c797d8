package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/spboyer/lesioneval/internal/models"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// table is a plain-text table whose columns are padded by display width,
// so labels with wide runes stay aligned.
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			c := ""
			if i < len(cells) {
				c = cells[i]
			}
			parts[i] = runewidth.FillRight(c, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(t.header)
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	line(rule)
	for _, row := range t.rows {
		line(row)
	}
}

func f4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func gateIcon(s models.GateStatus) string {
	switch s {
	case models.GateStatusPassed:
		return "✓"
	case models.GateStatusFailed:
		return "✗"
	default:
		return "–"
	}
}

// printReport writes the run summary: one row per estimator, the
// Monte-Carlo digest and the gate outcomes.
func printReport(w io.Writer, report *models.EvaluationReport) {
	d := report.Digest
	fmt.Fprintf(w, "Run %s: %d samples, %d estimators, %s\n\n",
		report.RunID, report.Setup.Samples, d.Estimators, formatDuration(time.Duration(d.DurationMs)*time.Millisecond))

	t := newTable("ESTIMATOR", "KIND", "ACCURACY", "RISK AUC", "COST AUC", "MEAN COST", "MEAN ECE", "MEAN U")
	for _, o := range report.Estimators {
		ece := "-"
		if len(o.Calibration) > 0 {
			ece = f4(o.MeanECE())
		}
		costAUC, meanCost := "-", "-"
		if len(report.CostCoverage) > 0 {
			costAUC, meanCost = f4(o.CostAUC), f4(o.MeanTrueCost)
		}
		t.add(o.Name, string(o.Kind), f4(o.Accuracy), f4(o.RiskAUC), costAUC, meanCost, ece, f4(o.MeanUncertainty))
	}
	t.render(w)

	if mc := report.MonteCarlo; mc != nil {
		fmt.Fprintf(w, "\nMonte-Carlo (%s): %d/%d passes, mean %.4f, %.0f%% CI [%.4f, %.4f], std %.4f\n",
			mc.Mode, len(mc.Passes), mc.Requested, mc.BootstrapCI.Mean,
			mc.BootstrapCI.ConfidenceLevel*100, mc.BootstrapCI.Lower, mc.BootstrapCI.Upper, mc.StdDev)
		for _, f := range mc.Failed {
			fmt.Fprintf(w, "  pass %d failed: %s\n", f.Pass, f.Error)
		}
	}

	if len(report.Gates) > 0 {
		fmt.Fprintln(w)
		gt := newTable("", "GATE", "ESTIMATOR", "VALUE", "THRESHOLD")
		for _, g := range report.Gates {
			bound := "≤ "
			if g.Minimum {
				bound = "≥ "
			}
			value := f4(g.Value)
			if g.Status == models.GateStatusNA {
				value = "n/a"
			}
			gt.add(gateIcon(g.Status), g.Identifier, g.Estimator, value, bound+f4(g.Threshold))
		}
		gt.render(w)
		fmt.Fprintf(w, "\n%d passed, %d failed\n", d.GatesPassed, d.GatesFailed)
	}
}
