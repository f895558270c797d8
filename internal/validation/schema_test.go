package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validConfigYAML = `name: isic-2019
labels: [MEL, NV, BCC, AK, BKL, DF, VASC, SCC]
unknown_class: true
ground_truth: data/ground_truth.csv
calibration:
  bins: 10
  skip_first: false
cost:
  flattened: true
coverage:
  ranking: uncertainty
  metric: accuracy
estimators:
  - name: softmax
    kind: softmax
    params:
      path: data/softmax.csv
  - name: dropout
    kind: mc_dropout
    params:
      pattern: data/mc/pass_{i}.csv
      passes: 100
montecarlo:
  mode: accuracy
  estimator: dropout
  baseline: softmax
  workers: 4
  confidence: 0.95
gates:
  min_accuracy: 0.7
  max_ece: 0.1
`

func TestValidateConfigBytes_Valid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(validConfigYAML))
	require.Empty(t, errs, "valid config should have no errors")
}

func TestValidateConfigBytes_Empty(t *testing.T) {
	require.Empty(t, ValidateConfigBytes(nil))
	require.Empty(t, ValidateConfigBytes([]byte("# nothing yet\n")))
}

func TestValidateConfigBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown_ranking", "coverage:\n  ranking: entropy\n", "/coverage/ranking"},
		{"zero_bins", "calibration:\n  bins: 0\n", "/calibration/bins"},
		{"unknown_key", "colour: red\n", "colour"},
		{"negative_weight", "cost:\n  weights: [[0, -1], [1, 0]]\n", "/cost/weights/0/1"},
		{"reserved_label", "labels: [MEL, UNK]\n", "/labels/1"},
		{"bad_confidence", "montecarlo:\n  confidence: 1.5\n", "/montecarlo/confidence"},
		{"estimator_kind", "estimators:\n  - name: a\n    kind: ensemble\n", "/estimators/0/kind"},
		{"ragged_weights", "cost:\n  weights: [[0, 1, 1], [1, 0]]\n", "/cost/weights/0"},
		{"duplicate_estimator", "estimators:\n  - {name: a, kind: softmax}\n  - {name: a, kind: mc_dropout}\n", "duplicate estimator"},
		{"unknown_reference", "estimators:\n  - {name: a, kind: softmax}\nmontecarlo:\n  baseline: b\n", "/montecarlo/baseline"},
		{"yaml_syntax", "labels: [MEL\n", "YAML parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateConfigBytes([]byte(tt.yaml))
			require.NotEmpty(t, errs)
			require.Contains(t, strings.Join(errs, "\n"), tt.want)
		})
	}
}

func TestValidateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".lesioneval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0644))

	errs, err := ValidateConfigFile(path)
	require.NoError(t, err)
	require.Empty(t, errs)

	_, err = ValidateConfigFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
