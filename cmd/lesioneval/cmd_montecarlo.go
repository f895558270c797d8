package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spboyer/lesioneval/internal/montecarlo"
	"github.com/spf13/cobra"
)

var (
	mcEstimator  string
	mcBaseline   string
	mcMode       string
	mcWorkers    int
	mcSeed       int64
	mcConfidence float64
	mcJSON       bool
)

func newMonteCarloCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Aggregate Monte-Carlo dropout passes",
		Long: `Evaluate every stochastic forward pass of an mc_dropout estimator and print
the per-pass metric with its uncertainty envelope, next to the deterministic
baseline. Passes that cannot be read are reported and left out.

Mode accuracy reports the fraction of correct argmax predictions; mode
lowest_expected_cost reports the mean true cost of the class with the lowest
expected cost.`,
		Args: cobra.NoArgs,
		RunE: monteCarloCommandE,
	}

	cmd.Flags().StringVarP(&mcEstimator, "estimator", "e", "", "mc_dropout estimator (default: montecarlo.estimator from the config)")
	cmd.Flags().StringVar(&mcBaseline, "baseline", "", "Baseline estimator (default: montecarlo.baseline from the config)")
	cmd.Flags().StringVarP(&mcMode, "mode", "m", "", "accuracy or lowest_expected_cost (default: montecarlo.mode from the config)")
	cmd.Flags().IntVarP(&mcWorkers, "workers", "w", 0, "Concurrent pass loaders (default: montecarlo.workers from the config)")
	cmd.Flags().Int64Var(&mcSeed, "seed", 0, "Bootstrap seed; negative is non-deterministic")
	cmd.Flags().Float64Var(&mcConfidence, "confidence", 0, "Bootstrap interval level (default: montecarlo.confidence from the config)")
	cmd.Flags().BoolVar(&mcJSON, "json", false, "Print the result as JSON")

	return cmd
}

func monteCarloCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mc := cfg.MonteCarlo
	if mcEstimator != "" {
		mc.Estimator = mcEstimator
	}
	if cmd.Flags().Changed("baseline") {
		mc.Baseline = mcBaseline
	}
	if mcMode != "" {
		mc.Mode = mcMode
	}
	if mcWorkers > 0 {
		mc.Workers = mcWorkers
	}
	if mcConfidence > 0 {
		mc.Confidence = mcConfidence
	}
	if mc.Estimator == "" {
		return errors.New("no mc_dropout estimator: set montecarlo.estimator or pass --estimator")
	}

	names := []string{mc.Estimator}
	if mc.Baseline != "" {
		names = append(names, mc.Baseline)
	}
	in, loaded, err := loadEstimators(cmd.Context(), cfg, names...)
	if err != nil {
		return err
	}
	est := loaded[mc.Estimator]
	if len(est.Passes) == 0 {
		return fmt.Errorf("estimator %q of kind %s has no forward passes", est.Name, est.Kind)
	}

	req := montecarlo.Request{
		Passes:     montecarlo.Memoize(est.Passes),
		Oracle:     in.Truth,
		Mode:       montecarlo.Mode(mc.Mode),
		Costs:      in.Costs,
		Workers:    mc.Workers,
		Confidence: mc.Confidence,
		Seed:       mcSeed,
	}
	if mc.Baseline != "" {
		req.Baseline = loaded[mc.Baseline].Records
	}
	result, err := montecarlo.Aggregate(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mcJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	header := []string{"PASS", "METRIC", "MEAN U", "LOWER", "UPPER", "CUM MEAN"}
	if len(result.Baseline.Metric) > 0 {
		header = append(header, "BASELINE")
	}
	t := newTable(header...)
	for i, pass := range result.Passes {
		d := result.Dropout
		row := []string{strconv.Itoa(pass), f4(d.Metric[i]), f4(d.MeanUncertainty[i]), f4(d.Lower[i]), f4(d.Upper[i]), f4(result.CumulativeMean[i])}
		if len(result.Baseline.Metric) > 0 {
			row = append(row, f4(result.Baseline.Metric[i]))
		}
		t.add(row...)
	}
	t.render(out)

	ci := result.BootstrapCI
	fmt.Fprintf(out, "\n%s over %d/%d passes: mean %.4f, std %.4f, %.0f%% CI [%.4f, %.4f]\n",
		result.Mode, len(result.Passes), result.Requested, ci.Mean, result.StdDev, ci.ConfidenceLevel*100, ci.Lower, ci.Upper)
	for _, f := range result.Failed {
		fmt.Fprintf(out, "pass %d failed: %s\n", f.Pass, f.Error)
	}
	return nil
}
