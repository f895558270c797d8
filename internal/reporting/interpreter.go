package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/spboyer/lesioneval/internal/models"
)

// InterpretAccuracy returns a plain-language label for a top-1 accuracy (0–1).
func InterpretAccuracy(acc float64) string {
	pct := acc * 100
	switch {
	case pct > 90:
		return "Excellent (>90%)"
	case pct >= 70:
		return "Good (70-90%)"
	case pct >= 50:
		return "Needs Work (50-70%)"
	default:
		return "Poor (<50%)"
	}
}

// InterpretECE explains an expected calibration error.
func InterpretECE(ece float64) string {
	switch {
	case ece < 0.05:
		return fmt.Sprintf("Well calibrated (ECE %.3f)", ece)
	case ece <= 0.15:
		return fmt.Sprintf("Moderately calibrated (ECE %.3f)", ece)
	default:
		return fmt.Sprintf("Poorly calibrated (ECE %.3f): confidences overstate or understate accuracy", ece)
	}
}

// InterpretSeparation says whether an estimator's uncertainty tells its
// mistakes apart from its correct predictions.
func InterpretSeparation(s *models.UncertaintySummary) string {
	if s == nil || s.Correct == 0 || s.Incorrect == 0 {
		return "Not enough correct and incorrect predictions to compare uncertainty."
	}
	if s.MeanCorrect <= 0 {
		return fmt.Sprintf("Incorrect predictions carry uncertainty %.3f, correct ones none.", s.MeanIncorrect)
	}
	ratio := s.MeanIncorrect / s.MeanCorrect
	switch {
	case ratio >= 1.5:
		return fmt.Sprintf("Uncertainty flags mistakes well (incorrect %.2fx correct).", ratio)
	case ratio > 1:
		return fmt.Sprintf("Uncertainty flags mistakes weakly (incorrect %.2fx correct).", ratio)
	default:
		return fmt.Sprintf("Uncertainty does not separate mistakes (incorrect %.2fx correct).", ratio)
	}
}

// FormatSummaryReport produces a plain-language report from an EvaluationReport.
func FormatSummaryReport(report *models.EvaluationReport) string {
	var b strings.Builder

	d := report.Digest
	duration := time.Duration(d.DurationMs) * time.Millisecond

	b.WriteString("=== Interpretation ===\n\n")
	b.WriteString(fmt.Sprintf("Samples:       %d\n", report.Setup.Samples))
	b.WriteString(fmt.Sprintf("Estimators:    %d\n", d.Estimators))
	if d.BestEstimator != "" {
		b.WriteString(fmt.Sprintf("Best:          %s at %.4f: %s\n", d.BestEstimator, d.BestAccuracy, InterpretAccuracy(d.BestAccuracy)))
	}
	b.WriteString(fmt.Sprintf("Duration:      %v\n", duration))
	if total := d.GatesPassed + d.GatesFailed; total > 0 {
		b.WriteString(fmt.Sprintf("Gates:         %d passed, %d failed out of %d\n", d.GatesPassed, d.GatesFailed, total))
	}

	if len(report.Estimators) > 0 {
		b.WriteString("\nPer-Estimator Interpretation:\n")
		for i := range report.Estimators {
			o := &report.Estimators[i]
			icon := "✓"
			if estimatorFailed(report, o.Name) {
				icon = "✗"
			}
			b.WriteString(fmt.Sprintf("  %s %s (%s)\n", icon, o.Name, o.Kind))
			b.WriteString(fmt.Sprintf("    Accuracy: %.4f: %s\n", o.Accuracy, InterpretAccuracy(o.Accuracy)))
			b.WriteString(fmt.Sprintf("    Risk-coverage AUC: %.4f\n", o.RiskAUC))
			if o.CostAUC > 0 {
				b.WriteString(fmt.Sprintf("    Cost-coverage AUC: %.4f\n", o.CostAUC))
			}
			if len(o.Calibration) > 0 {
				b.WriteString(fmt.Sprintf("    %s\n", InterpretECE(o.MeanECE())))
			}
			if o.Uncertainty != nil {
				b.WriteString(fmt.Sprintf("    %s\n", InterpretSeparation(o.Uncertainty)))
			}
			if len(o.EmptyClasses) > 0 {
				b.WriteString(fmt.Sprintf("    No test samples for: %s\n", strings.Join(o.EmptyClasses, ", ")))
			}
		}
	}

	if mc := report.MonteCarlo; mc != nil {
		b.WriteString("\nMonte-Carlo:\n")
		b.WriteString(fmt.Sprintf("  %d of %d passes aggregated (%s)\n", len(mc.Passes), mc.Requested, mc.Mode))
		ci := mc.BootstrapCI
		b.WriteString(fmt.Sprintf("  Mean %.4f, %.0f%% CI [%.4f, %.4f], std dev %.4f\n",
			ci.Mean, ci.ConfidenceLevel*100, ci.Lower, ci.Upper, mc.StdDev))
		for _, f := range mc.Failed {
			b.WriteString(fmt.Sprintf("  ✗ pass %d: %s\n", f.Pass, f.Error))
		}
	}

	return b.String()
}

func estimatorFailed(report *models.EvaluationReport, name string) bool {
	for _, g := range report.Gates {
		if g.Estimator == name && !g.Passed() {
			return true
		}
	}
	return false
}
