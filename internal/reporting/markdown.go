package reporting

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders a report as a GitHub-flavoured Markdown document.
func Markdown(report *models.EvaluationReport) string {
	var b strings.Builder

	title := report.Name
	if title == "" {
		title = "Evaluation report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	if !report.Timestamp.IsZero() {
		fmt.Fprintf(&b, "- Date: %s\n", report.Timestamp.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Samples: %d\n", report.Setup.Samples)
	fmt.Fprintf(&b, "- Labels: %s\n", strings.Join(report.Setup.Labels, ", "))
	fmt.Fprintf(&b, "- Ranking: %s, metric: %s\n\n", report.Setup.Ranking, report.Setup.Metric)

	b.WriteString("## Estimators\n\n")
	b.WriteString("| Estimator | Kind | Samples | Accuracy | Mean true cost | Mean uncertainty | Risk AUC | Cost AUC | ECE |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for i := range report.Estimators {
		o := &report.Estimators[i]
		fmt.Fprintf(&b, "| %s | %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			o.Name, o.Kind, o.Samples, o.Accuracy, o.MeanTrueCost, o.MeanUncertainty, o.RiskAUC, o.CostAUC, o.MeanECE())
	}
	b.WriteString("\n")

	if len(report.Gates) > 0 {
		b.WriteString("## Gates\n\n")
		b.WriteString("| Gate | Estimator | Value | Threshold | Status |\n")
		b.WriteString("|---|---|---:|---:|---|\n")
		for _, g := range report.Gates {
			bound := "≤"
			if g.Minimum {
				bound = "≥"
			}
			fmt.Fprintf(&b, "| %s | %s | %.4f | %s %.4f | %s |\n", g.Identifier, g.Estimator, g.Value, bound, g.Threshold, g.Status)
		}
		b.WriteString("\n")
	}

	for i := range report.Estimators {
		o := &report.Estimators[i]
		if len(o.PerClass) > 0 {
			fmt.Fprintf(&b, "## Per-class coverage: %s\n\n", o.Name)
			b.WriteString("| Class | Samples | AUC | Full-coverage metric |\n|---|---:|---:|---:|\n")
			for _, c := range o.PerClass {
				fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f |\n", c.Label, c.Total, c.AUC, c.Series.Full())
			}
			b.WriteString("\n")
		}
		if o.Confusion != nil {
			fmt.Fprintf(&b, "## Confusion matrix: %s\n\n", o.Name)
			writeConfusion(&b, o.Confusion)
		}
		if o.Uncertainty != nil && len(o.Uncertainty.ByClass) > 0 {
			fmt.Fprintf(&b, "## Uncertainty by predicted class: %s\n\n", o.Name)
			b.WriteString("| Class | Predictions | Accuracy | Mean uncertainty |\n|---|---:|---:|---:|\n")
			for _, c := range o.Uncertainty.ByClass {
				fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f |\n", c.Label, c.Count, c.Accuracy, c.MeanUncertainty)
			}
			b.WriteString("\n")
		}
	}

	if mc := report.MonteCarlo; mc != nil {
		b.WriteString("## Monte-Carlo passes\n\n")
		fmt.Fprintf(&b, "- Mode: %s\n", mc.Mode)
		fmt.Fprintf(&b, "- Passes: %d of %d\n", len(mc.Passes), mc.Requested)
		fmt.Fprintf(&b, "- Mean: %.4f (%.0f%% CI %.4f to %.4f)\n", mc.BootstrapCI.Mean, mc.BootstrapCI.ConfidenceLevel*100, mc.BootstrapCI.Lower, mc.BootstrapCI.Upper)
		fmt.Fprintf(&b, "- Std dev: %.4f\n", mc.StdDev)
		if mc.SettledAt >= 0 && mc.SettledAt < len(mc.Passes) {
			fmt.Fprintf(&b, "- Running mean settled from pass %d\n", mc.Passes[mc.SettledAt])
		}
		for _, f := range mc.Failed {
			fmt.Fprintf(&b, "- Failed pass %d: %s\n", f.Pass, f.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeConfusion(b *strings.Builder, c *models.ConfusionSummary) {
	b.WriteString("| true \\ predicted |")
	for _, l := range c.Labels {
		fmt.Fprintf(b, " %s |", l)
	}
	b.WriteString("\n|---|")
	for range c.Labels {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for i, row := range c.Counts {
		label := fmt.Sprintf("class_%d", i)
		if i < len(c.Labels) {
			label = c.Labels[i]
		}
		fmt.Fprintf(b, "| %s |", label)
		for _, n := range row {
			fmt.Fprintf(b, " %d |", n)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "\nAccuracy: %.4f\n\n", c.Accuracy)
}

// HTML renders the Markdown report as a standalone HTML page.
func HTML(report *models.EvaluationReport) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(report)), &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(report.Name))
	out.WriteString("<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
