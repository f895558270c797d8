package pipeline

import (
	"context"
	"testing"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParams(t *testing.T) {
	var p PassParams
	require.NoError(t, decodeParams(map[string]any{"pattern": "p_{i}.csv", "passes": "7"}, &p))
	assert.Equal(t, 7, p.Passes, "weakly typed")

	err := decodeParams(map[string]any{"pattern": "p_{i}.csv", "pases": 7}, &p)
	assert.ErrorContains(t, err, "pases")
}

func TestPlanEstimator_Errors(t *testing.T) {
	cfg := projectconfig.New()
	tests := []struct {
		name string
		ec   projectconfig.EstimatorConfig
		want string
	}{
		{"missing_path", projectconfig.EstimatorConfig{Name: "s", Kind: "softmax"}, "params.path is required"},
		{"no_placeholder", projectconfig.EstimatorConfig{Name: "m", Kind: "mc_dropout", Params: map[string]any{"pattern": "pass.csv"}}, "placeholder"},
		{"both_sources", projectconfig.EstimatorConfig{Name: "c", Kind: "expected_costs", Params: map[string]any{"path": "c.csv", "from": "s"}}, "exactly one"},
		{"no_source", projectconfig.EstimatorConfig{Name: "c", Kind: "expected_costs"}, "exactly one"},
		{"unknown_kind", projectconfig.EstimatorConfig{Name: "x", Kind: "ensemble"}, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planEstimator(tt.ec, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), tt.ec.Name)
		})
	}
}

func TestInputFiles(t *testing.T) {
	cfg := newFixture(t)
	files, err := InputFiles(cfg.Estimators[1], cfg)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, cfg.Resolve("results/pass_2.csv"), files[2])

	files, err = InputFiles(cfg.Estimators[2], cfg)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoadEstimator(t *testing.T) {
	cfg := newFixture(t)
	in, err := LoadInputs(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	prior := map[string]*Estimator{}

	soft, err := LoadEstimator(ctx, cfg.Estimators[0], cfg, in, prior)
	require.NoError(t, err)
	assert.Len(t, soft.Records, 4)
	assert.False(t, soft.HasUncertainty())
	prior[soft.Name] = soft

	mc, err := LoadEstimator(ctx, cfg.Estimators[1], cfg, in, prior)
	require.NoError(t, err)
	require.Len(t, mc.Passes, 3)
	assert.NoError(t, mc.Passes[0].Err)
	assert.Error(t, mc.Passes[2].Err, "missing pass file")
	require.Len(t, mc.Records, 4)
	assert.True(t, mc.HasUncertainty())
	assert.InDeltaSlice(t, []float64{0.3, 0.25, 0.45}, mc.Records[2].Scores, 1e-12)

	costs, err := LoadEstimator(ctx, cfg.Estimators[2], cfg, in, prior)
	require.NoError(t, err)
	assert.True(t, costs.CostTable)
	// flattened: expected cost of class p is 1 - P(p)
	assert.InDeltaSlice(t, []float64{0.2, 0.9, 0.9}, costs.Records[0].Scores, 1e-12)
}

func TestLoadEstimator_FromUnknown(t *testing.T) {
	cfg := newFixture(t)
	in, err := LoadInputs(cfg)
	require.NoError(t, err)

	_, err = LoadEstimator(context.Background(), cfg.Estimators[2], cfg, in, map[string]*Estimator{})
	assert.ErrorContains(t, err, "not loaded before it")

	prior := map[string]*Estimator{"softmax": {Name: "softmax", CostTable: true}}
	_, err = LoadEstimator(context.Background(), cfg.Estimators[2], cfg, in, prior)
	assert.ErrorContains(t, err, "already holds expected costs")
}

func TestLoadEstimator_AllPassesMissing(t *testing.T) {
	cfg := newFixture(t)
	in, err := LoadInputs(cfg)
	require.NoError(t, err)
	ec := projectconfig.EstimatorConfig{Name: "mc", Kind: string(models.EstimatorKindMCDropout), Params: map[string]any{"pattern": "nowhere/p_{i}.csv", "passes": 2}}

	_, err = LoadEstimator(context.Background(), ec, cfg, in, nil)
	assert.ErrorContains(t, err, "all 2 passes failed")
}
