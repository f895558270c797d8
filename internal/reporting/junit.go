package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/spboyer/lesioneval/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one estimator's gates.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one gate.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a gate that did not hold.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a gate that could not be evaluated.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts the gates of a report to JUnit XML, one suite per
// estimator in report order.
func ConvertToJUnit(report *models.EvaluationReport) *JUnitTestSuites {
	durationSec := float64(report.Digest.DurationMs) / 1000.0
	out := &JUnitTestSuites{Time: durationSec}

	for i := range report.Estimators {
		o := &report.Estimators[i]
		suite := JUnitTestSuite{
			Name:      fmt.Sprintf("%s/%s", report.Name, o.Name),
			Timestamp: report.Timestamp.Format(time.RFC3339),
			Properties: []JUnitProperty{
				{Name: "run_id", Value: report.RunID},
				{Name: "kind", Value: string(o.Kind)},
				{Name: "samples", Value: fmt.Sprintf("%d", o.Samples)},
				{Name: "accuracy", Value: fmt.Sprintf("%.4f", o.Accuracy)},
				{Name: "ranking", Value: report.Setup.Ranking},
			},
		}
		for _, g := range report.Gates {
			if g.Estimator != o.Name {
				continue
			}
			suite.TestCases = append(suite.TestCases, convertGate(g))
			suite.Tests++
			switch g.Status {
			case models.GateStatusFailed:
				suite.Failures++
			case models.GateStatusNA:
				suite.Skipped++
			}
		}
		out.Tests += suite.Tests
		out.Failures += suite.Failures
		out.TestSuites = append(out.TestSuites, suite)
	}
	return out
}

func convertGate(g models.GateResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      g.Identifier,
		Classname: g.Estimator,
	}
	switch g.Status {
	case models.GateStatusFailed:
		tc.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%s: %.4f %s %.4f", g.Identifier, g.Value, violated(g), g.Threshold),
			Type:    "GateFailure",
			Body:    fmt.Sprintf("[FAIL] %s (%s): value=%.4f threshold=%.4f\n", g.Identifier, g.Estimator, g.Value, g.Threshold),
		}
	case models.GateStatusNA:
		tc.Skipped = &JUnitSkipped{Message: fmt.Sprintf("%s not computed for %s", g.Identifier, g.Estimator)}
	}
	return tc
}

// violated is the comparison that made the gate fail.
func violated(g models.GateResult) string {
	if g.Minimum {
		return "<"
	}
	return ">"
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(report *models.EvaluationReport, path string) error {
	suites := ConvertToJUnit(report)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
