package main

import (
	"fmt"
	"strconv"

	"github.com/spboyer/lesioneval/internal/cost"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	costFlattened bool
	costUncertain bool
	costProbs     []float64
)

func newCostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Print the cost matrix, or the expected costs of one prediction",
		Long: `Print the cost matrix the config selects, predicted class by row and true
class by column. With the uncertain matrix the last row is the cost of
abstaining and the last column the cost of an unknown lesion.

With --probs the expected cost of predicting each class under the given
class probabilities is printed, together with the lowest-expected-cost
decision.`,
		Args: cobra.NoArgs,
		RunE: costCommandE,
	}

	cmd.Flags().BoolVar(&costFlattened, "flattened", false, "Use the flattened matrix (default: cost.flattened from the config)")
	cmd.Flags().BoolVar(&costUncertain, "uncertain", false, "Add the abstain class (default: cost.uncertain from the config)")
	cmd.Flags().Float64SliceVarP(&costProbs, "probs", "p", nil, "Class probabilities of one sample")

	return cmd
}

func costCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("flattened") {
		cfg.Cost.Flattened = &costFlattened
	}
	if cmd.Flags().Changed("uncertain") {
		cfg.Cost.Uncertain = &costUncertain
	}

	labels, err := pipeline.LabelTable(cfg)
	if err != nil {
		return err
	}
	m, err := pipeline.CostMatrix(cfg, labels)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(costProbs) > 0 {
		ec, err := m.ExpectedCosts(costProbs)
		if err != nil {
			return err
		}
		best, lowest, err := m.LowestExpectedCost(costProbs)
		if err != nil {
			return err
		}
		t := newTable("PREDICT", "EXPECTED COST")
		for p, v := range ec {
			t.add(rowLabel(m, labels, p), f4(v))
		}
		t.render(out)
		fmt.Fprintf(out, "\nLowest expected cost: %s (%.4f)\n", rowLabel(m, labels, best), lowest)
		return nil
	}

	fmt.Fprintln(out, "Matrix: "+matrixKind(m, cfg.Cost.Weights != nil))
	fmt.Fprintln(out)
	header := []string{"PRED \\ TRUE"}
	for t := 0; t < m.Size(); t++ {
		header = append(header, columnLabel(m, labels, t))
	}
	t := newTable(header...)
	for p, row := range m.Rows() {
		cells := []string{rowLabel(m, labels, p)}
		for _, v := range row {
			cells = append(cells, strconv.FormatFloat(v, 'g', -1, 64))
		}
		t.add(cells...)
	}
	t.render(out)
	return nil
}

// matrixKind describes which matrix m is.
func matrixKind(m *cost.Matrix, weighted bool) string {
	kind := "clinical"
	switch {
	case m.Flattened():
		kind = "flattened"
	case weighted:
		kind = "custom weights"
	}
	kind += fmt.Sprintf(", %d classes", m.Classes())
	if m.Uncertain() {
		kind += " plus abstain"
	}
	return kind
}

func rowLabel(m *cost.Matrix, labels models.LabelTable, p int) string {
	if p == m.AbstainIndex() {
		return "abstain"
	}
	return labels.Name(p)
}

func columnLabel(m *cost.Matrix, labels models.LabelTable, t int) string {
	if t == m.AbstainIndex() {
		return models.UnknownLabel
	}
	return labels.Name(t)
}
