package main

import (
	"fmt"
	"strconv"

	"github.com/spboyer/lesioneval/internal/calibration"
	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/spf13/cobra"
)

var (
	calibrateBins      int
	calibrateSkipFirst bool
	calibrateHistogram bool
)

func newCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate <estimator>",
		Short: "Print reliability bins for a probability estimator",
		Long: `Bin every class probability of an estimator and print, per bin, the mean
predicted probability against the observed accuracy. Empty bins are omitted.

With --histogram the per-bin sample counts are printed instead, empty bins
included.`,
		Args: cobra.ExactArgs(1),
		RunE: calibrateCommandE,
	}

	cmd.Flags().IntVarP(&calibrateBins, "bins", "b", 0, "Number of bins (default: calibration.bins from the config)")
	cmd.Flags().BoolVar(&calibrateSkipFirst, "skip-first", false, "Drop the lowest bin (default: calibration.skip_first from the config)")
	cmd.Flags().BoolVar(&calibrateHistogram, "histogram", false, "Print histogram counts instead of reliability bins")

	return cmd
}

func calibrateCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in, loaded, err := loadEstimators(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}
	est := loaded[args[0]]
	if est.CostTable {
		return fmt.Errorf("estimator %q holds expected costs, not probabilities", est.Name)
	}

	opts := calibration.Options{
		Bins:      cfg.Calibration.Bins,
		SkipFirst: projectconfig.Bool(cfg.Calibration.SkipFirst),
		Labels:    in.Labels,
	}
	if cmd.Flags().Changed("bins") {
		opts.Bins = calibrateBins
	}
	if cmd.Flags().Changed("skip-first") {
		opts.SkipFirst = calibrateSkipFirst
	}

	out := cmd.OutOrStdout()
	if calibrateHistogram {
		hist, err := calibration.Histogram(est.Records, opts)
		if err != nil {
			return err
		}
		t := newTable("CLASS", "BIN", "RANGE", "COUNT")
		for _, h := range hist {
			for _, b := range h.Bins {
				t.add(h.Label, strconv.Itoa(b.Index), b.Range, strconv.Itoa(b.Count))
			}
		}
		t.render(out)
		return nil
	}

	classes, err := calibration.Reliability(est.Records, opts, in.Truth)
	if err != nil {
		return err
	}
	t := newTable("CLASS", "BIN", "RANGE", "COUNT", "MEAN P", "ACCURACY")
	for _, c := range classes {
		for _, b := range c.Bins {
			t.add(c.Label, strconv.Itoa(b.Index), calibration.RangeLabel(b.Lower, b.Upper), strconv.Itoa(b.Count), f4(b.MeanProbability), f4(b.Accuracy))
		}
	}
	t.render(out)

	fmt.Fprintln(out)
	et := newTable("CLASS", "ECE")
	sum := 0.0
	for _, c := range classes {
		et.add(c.Label, f4(c.ECE))
		sum += c.ECE
	}
	if len(classes) > 0 {
		et.add("mean", f4(sum/float64(len(classes))))
	}
	et.render(out)
	return nil
}
