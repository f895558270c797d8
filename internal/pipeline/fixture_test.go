package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// newFixture writes a four-sample, three-class project: a softmax table
// with one mistake (sample 2), two MC-dropout passes whose average gets
// everything right, and a missing third pass.
func newFixture(t *testing.T) *projectconfig.ProjectConfig {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	write("data/ground_truth.csv", "image,label\nimg0,A\nimg1,B\nimg2,C\nimg3,A\n")
	write("results/softmax.csv", "0.8,0.1,0.1\n0.2,0.7,0.1\n0.5,0.3,0.2\n0.6,0.3,0.1\n")
	write("results/pass_0.csv", "0.8,0.1,0.1,0.1\n0.2,0.7,0.1,0.2\n0.5,0.3,0.2,0.9\n0.6,0.3,0.1,0.4\n")
	write("results/pass_1.csv", "0.9,0.05,0.05,0.2\n0.1,0.8,0.1,0.3\n0.1,0.2,0.7,0.4\n0.7,0.2,0.1,0.5\n")

	cfg := projectconfig.New()
	cfg.Dir = dir
	cfg.Name = "fixture"
	cfg.Labels = []string{"A", "B", "C"}
	cfg.GroundTruth = "data/ground_truth.csv"
	cfg.Cost.Flattened = ptr(true)
	cfg.Estimators = []projectconfig.EstimatorConfig{
		{Name: "softmax", Kind: "softmax", Params: map[string]any{"path": "results/softmax.csv"}},
		{Name: "mc_dropout", Kind: "mc_dropout", Params: map[string]any{"pattern": "results/pass_{i}.csv", "passes": 3}},
		{Name: "costs", Kind: "expected_costs", Params: map[string]any{"from": "softmax"}},
	}
	cfg.MonteCarlo.Estimator = "mc_dropout"
	cfg.MonteCarlo.Baseline = "softmax"
	return cfg
}
