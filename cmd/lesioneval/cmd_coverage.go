package main

import (
	"fmt"
	"strconv"

	"github.com/spboyer/lesioneval/internal/coverage"
	"github.com/spboyer/lesioneval/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	coverageRanking  string
	coverageMetric   string
	coveragePerClass bool
	coverageAt       []float64
)

func newCoverageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage [estimator...]",
		Short: "Compare risk-coverage curves across estimators",
		Long: `Rank samples from least to most trustworthy, remove them one at a time and
print the accuracy of the remaining samples at selected coverage levels,
together with the area under the risk-coverage and cost-coverage curves.

With no arguments every configured estimator is compared.`,
		RunE: coverageCommandE,
	}

	cmd.Flags().StringVarP(&coverageRanking, "ranking", "r", "", "Ranking: confidence, uncertainty, expected_cost (default: coverage.ranking from the config)")
	cmd.Flags().StringVarP(&coverageMetric, "metric", "m", "", "Per-class metric: accuracy, true_cost, expected_cost (default: coverage.metric from the config)")
	cmd.Flags().BoolVar(&coveragePerClass, "per-class", false, "Also print one curve summary per true class")
	cmd.Flags().Float64SliceVar(&coverageAt, "at", []float64{0.5, 0.8, 0.9, 1}, "Coverage levels to print")

	return cmd
}

func coverageCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, c := range coverageAt {
		if c < 0 || c > 1 {
			return fmt.Errorf("coverage level %g outside [0, 1]", c)
		}
	}

	s := pipeline.SettingsFrom(cfg)
	if coverageRanking != "" {
		s.Ranking = coverage.Ranking(coverageRanking)
	}
	if coverageMetric != "" {
		s.Metric = coverage.Metric(coverageMetric)
	}
	s.PerClass = coveragePerClass

	names := estimatorNames(cfg, args)
	in, loaded, err := loadEstimators(cmd.Context(), cfg, names...)
	if err != nil {
		return err
	}

	header := []string{"ESTIMATOR", "RISK AUC", "COST AUC"}
	for _, c := range coverageAt {
		header = append(header, "ACC@"+strconv.FormatFloat(c, 'g', -1, 64))
	}
	t := newTable(header...)
	ests := make([]*pipeline.Estimator, 0, len(names))
	for _, name := range names {
		ests = append(ests, loaded[name])
	}
	cmp, err := pipeline.Compare(ests, in, s)
	if err != nil {
		return err
	}
	for i, risk := range cmp.Risk {
		costAUC := "-"
		if len(cmp.Cost) > 0 {
			costAUC = f4(cmp.Cost[i].AUC)
		}
		row := []string{risk.Estimator, f4(risk.AUC), costAUC}
		for _, c := range coverageAt {
			v, err := risk.Series.At(c)
			if err != nil {
				return err
			}
			row = append(row, f4(v))
		}
		t.add(row...)
	}
	out := cmd.OutOrStdout()
	t.render(out)

	if coveragePerClass {
		fmt.Fprintln(out)
		pt := newTable("ESTIMATOR", "CLASS", "SAMPLES", "AUC", "FULL")
		for _, est := range ests {
			ev, err := pipeline.Evaluate(est, in, s)
			if err != nil {
				return err
			}
			for _, c := range ev.Outcome.PerClass {
				pt.add(ev.Outcome.Name, c.Label, strconv.Itoa(c.Total), f4(c.AUC), f4(c.Series.Full()))
			}
			for _, empty := range ev.Outcome.EmptyClasses {
				pt.add(ev.Outcome.Name, empty, "0", "-", "-")
			}
		}
		pt.render(out)
	}
	return nil
}
