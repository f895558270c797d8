package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureConfig = `name: fixture
labels: [A, B, C]
ground_truth: data/ground_truth.csv
cost: {flattened: true}
estimators:
  - {name: softmax, kind: softmax, params: {path: results/softmax.csv}}
  - {name: mc_dropout, kind: mc_dropout, params: {pattern: "results/pass_{i}.csv", passes: 2}}
  - {name: costs, kind: expected_costs, params: {from: softmax}}
montecarlo: {estimator: mc_dropout, baseline: softmax}
gates: {min_accuracy: 0.7}
paths: {results: out}
cache: {dir: .cache}
`

// writeProject creates a three-class project with four samples. The
// softmax table gets sample 2 wrong; the averaged passes get all right.
func writeProject(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		".lesioneval.yaml":      config,
		"data/ground_truth.csv": "image,label\nimg0,A\nimg1,B\nimg2,C\nimg3,A\n",
		"results/softmax.csv":   "0.8,0.1,0.1\n0.2,0.7,0.1\n0.5,0.3,0.2\n0.6,0.3,0.1\n",
		"results/pass_0.csv":    "0.8,0.1,0.1,0.1\n0.2,0.7,0.1,0.2\n0.5,0.3,0.2,0.9\n0.6,0.3,0.1,0.4\n",
		"results/pass_1.csv":    "0.9,0.05,0.05,0.2\n0.1,0.8,0.1,0.3\n0.1,0.2,0.7,0.4\n0.7,0.2,0.1,0.5\n",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
