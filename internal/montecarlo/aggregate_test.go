package montecarlo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/lesioneval/internal/cost"
	"github.com/spboyer/lesioneval/internal/mocks"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func rec(u float64, scores ...float64) models.PredictionRecord {
	return models.NewPredictionRecord(scores...).WithUncertainty(u)
}

func TestAggregate_IsolatesMalformedPass(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	// labels: 0, 1
	paths := []string{
		write("mc_forward_pass_0_entropy.csv", "0.9,0.1,0.3\n0.2,0.8,0.5\n"),
		write("mc_forward_pass_1_entropy.csv", "0.9,0.1,0.3\nabc,0.8,0.5\n"),
		write("mc_forward_pass_2_entropy.csv", "0.9,0.1,0.2\n0.7,0.3,0.4\n"),
	}

	ctrl := gomock.NewController(t)
	res, err := Aggregate(context.Background(), Request{
		Passes:   FilePasses(paths, models.Layout{Classes: 2, Uncertainty: true}),
		Baseline: []models.PredictionRecord{rec(0.1, 0.6, 0.4), rec(0.1, 0.6, 0.4)},
		Oracle:   mocks.NewLabelOracleFor(ctrl, []int{0, 1}),
		Mode:     ModeAccuracy,
		Workers:  2,
		Seed:     7,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, []int{0, 2}, res.Passes)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Pass)
	assert.Contains(t, res.Failed[0].Error, "(pass 1)")

	assert.InDeltaSlice(t, []float64{1, 0.5}, res.Dropout.Metric, 1e-12)
	assert.InDeltaSlice(t, []float64{0.4, 0.3}, res.Dropout.MeanUncertainty, 1e-12)
	assert.InDeltaSlice(t, []float64{1.4, 0.8}, res.Dropout.Upper, 1e-12)
	assert.InDeltaSlice(t, []float64{0.6, 0.2}, res.Dropout.Lower, 1e-12)

	assert.InDeltaSlice(t, []float64{0.5, 0.5}, res.Baseline.Metric, 1e-12)
	assert.Len(t, res.Baseline.Upper, 2)

	assert.InDeltaSlice(t, []float64{1, 0.75}, res.CumulativeMean, 1e-12)
	assert.Equal(t, 1, res.SettledAt)
	assert.InDelta(t, 0.75, res.BootstrapCI.Mean, 1e-12)
}

func TestAggregate_MissingUncertaintyFailsPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	res, err := Aggregate(context.Background(), Request{
		Passes: []PassSource{
			RecordsPass([]models.PredictionRecord{models.NewPredictionRecord(1, 0)}),
			RecordsPass([]models.PredictionRecord{rec(0.2, 1, 0)}),
			RecordsPass([]models.PredictionRecord{rec(0.2, 1, 0), rec(0.2, 1, 0)}),
		},
		Oracle: mocks.NewLabelOracleFor(ctrl, []int{0}),
		Mode:   ModeAccuracy,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Passes)
	require.Len(t, res.Failed, 2)
	assert.Contains(t, res.Failed[0].Error, "uncertainty")
	assert.Contains(t, res.Failed[1].Error, "expected 1")
	assert.Empty(t, res.Baseline.Metric)
}

func TestAggregate_AllPassesFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	boom := func(context.Context) ([]models.PredictionRecord, error) { return nil, errors.New("disk gone") }
	_, err := Aggregate(context.Background(), Request{
		Passes: []PassSource{boom, boom},
		Oracle: mocks.NewLabelOracleFor(ctrl, []int{0}),
		Mode:   ModeAccuracy,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 passes failed")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestAggregate_LowestExpectedCost(t *testing.T) {
	m, err := cost.New(cost.Config{Classes: 2, Weights: [][]float64{
		{0, 10},
		{1, 0},
	}})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	res, err := Aggregate(context.Background(), Request{
		Passes: []PassSource{
			// expected costs for [0.8, 0.2]: predict 0 -> 2, predict 1 -> 0.8, so class 1
			RecordsPass([]models.PredictionRecord{rec(0.5, 0.8, 0.2)}),
			// [0.95, 0.05]: predict 0 -> 0.5, predict 1 -> 0.95, so class 0
			RecordsPass([]models.PredictionRecord{rec(0.2, 0.95, 0.05)}),
		},
		Oracle: mocks.NewLabelOracleFor(ctrl, []int{0}),
		Mode:   ModeLowestExpectedCost,
		Costs:  m,
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0}, res.Dropout.Metric, 1e-12)
}

func TestAggregate_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := mocks.NewLabelOracleFor(ctrl, []int{0})
	pass := []PassSource{RecordsPass(nil)}

	_, err := Aggregate(context.Background(), Request{Oracle: oracle, Mode: ModeAccuracy})
	assert.ErrorIs(t, err, models.ErrEmptyInput)

	_, err = Aggregate(context.Background(), Request{Passes: pass, Mode: ModeAccuracy})
	assert.ErrorContains(t, err, "oracle")

	_, err = Aggregate(context.Background(), Request{Passes: pass, Oracle: oracle, Mode: ModeLowestExpectedCost})
	assert.ErrorContains(t, err, "cost matrix")

	_, err = Aggregate(context.Background(), Request{Passes: pass, Oracle: oracle, Mode: "f1"})
	assert.ErrorContains(t, err, "unknown mode")
}

func TestAggregate_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Aggregate(ctx, Request{
		Passes: []PassSource{RecordsPass([]models.PredictionRecord{rec(0.1, 1, 0)})},
		Oracle: mocks.NewLabelOracleFor(ctrl, []int{0}),
		Mode:   ModeAccuracy,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPassPaths(t *testing.T) {
	paths, err := PassPaths("results/entropy/mc_forward_pass_{i}_entropy.csv", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"results/entropy/mc_forward_pass_0_entropy.csv",
		"results/entropy/mc_forward_pass_1_entropy.csv",
		"results/entropy/mc_forward_pass_2_entropy.csv",
	}, paths)

	_, err = PassPaths("results/pass.csv", 3)
	assert.Error(t, err)
	_, err = PassPaths("results/{i}.csv", 0)
	assert.Error(t, err)
}

func TestLoadAll_KeepsPassErrors(t *testing.T) {
	boom := errors.New("disk gone")
	sources := []PassSource{
		RecordsPass([]models.PredictionRecord{models.NewPredictionRecord(0.1, 0.9)}),
		func(context.Context) ([]models.PredictionRecord, error) { return nil, boom },
	}

	loaded, err := LoadAll(context.Background(), sources, 1)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Len(t, loaded[0].Records, 1)
	assert.ErrorIs(t, loaded[1].Err, boom)

	replay := Memoize(loaded)
	recs, err := replay[0](context.Background())
	require.NoError(t, err)
	assert.Equal(t, loaded[0].Records, recs)
	_, err = replay[1](context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLoadAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadAll(ctx, []PassSource{RecordsPass(nil)}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
