package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"JSON", " md ", "json"})
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatJSON, FormatMarkdown}, got)

	all, err := ParseFormats([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, AllFormats, all)

	_, err = ParseFormats([]string{"pdf"})
	assert.ErrorContains(t, err, `unknown report format "pdf"`)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(newTestReport())

	assert.True(t, strings.HasPrefix(md, "# isic-2019\n"))
	assert.Contains(t, md, "| softmax | softmax | 4 | 0.7500 |")
	assert.Contains(t, md, "| min_accuracy | mc dropout | 0.5000 | ≥ 0.7000 | failed |")
	assert.Contains(t, md, "## Confusion matrix: softmax")
	assert.Contains(t, md, "| MEL | 1 | 1 |")
	assert.Contains(t, md, "- Passes: 2 of 3")
	assert.Contains(t, md, "- Failed pass 1:")
}

func TestHTML(t *testing.T) {
	out, err := HTML(newTestReport())
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<title>isic-2019</title>")
	assert.Contains(t, s, "<h1>isic-2019</h1>")
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "<td>softmax</td>")
}

func TestWrite_AllFormats(t *testing.T) {
	dir := t.TempDir()
	paths, err := Write(newTestReport(), dir, AllFormats)
	require.NoError(t, err)

	for _, name := range []string{"report.json", "report.md", "report.html", "report.xlsx", "junit.xml"} {
		assert.Contains(t, paths, filepath.Join(dir, name))
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.Contains(t, paths, filepath.Join(dir, "series", "risk_coverage_softmax.csv"))
	assert.Contains(t, paths, filepath.Join(dir, "series", "montecarlo.csv"))
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	want := newTestReport()
	require.NoError(t, WriteJSON(want, path))

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.MonteCarlo.Passes, got.MonteCarlo.Passes)
	assert.Equal(t, want.Estimators[0].Confusion.Counts, got.Estimators[0].Confusion.Counts)

	_, err = ReadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteSeriesCSV(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteSeriesCSV(newTestReport(), dir)
	require.NoError(t, err)
	assert.Contains(t, paths, filepath.Join(dir, "calibration_softmax.csv"))

	f, err := os.Open(filepath.Join(dir, "risk_coverage_softmax.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"coverage", "metric"}, rows[0])
	assert.Equal(t, []string{"0.25", "1"}, rows[2])
	assert.Equal(t, []string{"1", "0.75"}, rows[5])

	mc, err := os.ReadFile(filepath.Join(dir, "montecarlo.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(mc)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "2,0.75,0.2,0.95,0.55,"))
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "mc_dropout", fileStem("mc dropout"))
	assert.Equal(t, "a_b", fileStem("a/b"))
	assert.Equal(t, "estimator", fileStem(""))
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(newTestReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, SheetSummary, sheets[0])
	assert.Contains(t, sheets, SheetRiskCoverage)
	assert.Contains(t, sheets, SheetMonteCarlo)
	assert.NotContains(t, sheets, SheetCostCoverage, "empty sheets are omitted")

	name, err := f.GetCellValue(SheetSummary, "A2")
	require.NoError(t, err)
	assert.Equal(t, "softmax", name)

	rows, err := f.GetRows(SheetConfusion)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}
