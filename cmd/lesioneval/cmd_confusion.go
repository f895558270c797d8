package main

import (
	"fmt"
	"strconv"

	"github.com/spboyer/lesioneval/internal/coverage"
	"github.com/spboyer/lesioneval/internal/pipeline"
	"github.com/spf13/cobra"
)

var confusionNormalized bool

func newConfusionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confusion <estimator>",
		Short: "Print the confusion matrix of an estimator",
		Long: `Print the confusion matrix of an estimator, true class by row and predicted
class by column. Expected-cost estimators predict the class with the lowest
expected cost.

With --normalized each row is divided by its sum plus one.`,
		Args: cobra.ExactArgs(1),
		RunE: confusionCommandE,
	}

	cmd.Flags().BoolVarP(&confusionNormalized, "normalized", "n", false, "Print row-normalized values")

	return cmd
}

func confusionCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in, loaded, err := loadEstimators(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}

	s := pipeline.SettingsFrom(cfg)
	s.Ranking = coverage.RankConfidence
	s.PerClass = false
	ev, err := pipeline.Evaluate(loaded[args[0]], in, s)
	if err != nil {
		return err
	}
	cm := ev.Outcome.Confusion

	header := append([]string{"TRUE \\ PRED"}, cm.Labels...)
	t := newTable(header...)
	for i, row := range cm.Counts {
		cells := []string{in.Labels.Name(i)}
		for j, c := range row {
			if confusionNormalized {
				cells = append(cells, f4(cm.Normalized[i][j]))
			} else {
				cells = append(cells, strconv.Itoa(c))
			}
		}
		t.add(cells...)
	}
	out := cmd.OutOrStdout()
	t.render(out)
	fmt.Fprintf(out, "\nAccuracy: %.4f\n", cm.Accuracy)
	return nil
}
