package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/lesioneval/internal/cache"
	"github.com/spboyer/lesioneval/internal/pipeline"
	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/spboyer/lesioneval/internal/reporting"
	"github.com/spboyer/lesioneval/internal/spinner"
	"github.com/spf13/cobra"
)

var (
	runEstimators []string
	runOutputDir  string
	runFormats    []string
	enableCache   bool
	disableCache  bool
	runCacheDir   string
	runSeed       int64
	interpret     bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate every configured estimator",
		Long: `Evaluate every estimator in the config file and write the report.

The report is written to <results>/<run id>/ in the requested formats. The
command exits with status 1 when a configured gate fails.`,
		Args: cobra.NoArgs,
		RunE: runCommandE,
	}

	cmd.Flags().StringArrayVarP(&runEstimators, "estimator", "e", nil, "Filter estimators by name/kind glob pattern, !pattern excludes (can be repeated)")
	cmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Report directory (default: paths.results from the config)")
	cmd.Flags().StringSliceVarP(&runFormats, "format", "f", []string{"json", "csv", "md"}, "Report formats: json, csv, md, html, xlsx, junit, all")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Enable report caching (default: cache.enabled from the config)")
	cmd.Flags().BoolVar(&disableCache, "no-cache", false, "Disable report caching")
	cmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "Cache directory (default: cache.dir from the config)")
	cmd.Flags().Int64Var(&runSeed, "seed", 0, "Bootstrap seed; negative is non-deterministic")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "Print a plain-language interpretation of the results")

	return cmd
}

func resolveCache(cfg *projectconfig.ProjectConfig) (*cache.Cache, error) {
	if disableCache || !(enableCache || projectconfig.Bool(cfg.Cache.Enabled)) {
		return nil, nil
	}
	dir := runCacheDir
	if dir == "" {
		dir = cfg.Resolve(cfg.Cache.Dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	return cache.New(abs), nil
}

func progressMessage(e pipeline.ProgressEvent) string {
	switch e.EventType {
	case pipeline.EventEstimatorStart:
		return fmt.Sprintf("[%d/%d] %s", e.Num, e.Total, e.Estimator)
	case pipeline.EventMonteCarloStart:
		return fmt.Sprintf("Aggregating %d passes of %s", e.Total, e.Estimator)
	case pipeline.EventRunComplete, pipeline.EventRunCached:
		return "Writing report"
	default:
		return ""
	}
}

func runCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formats, err := reporting.ParseFormats(runFormats)
	if err != nil {
		return err
	}
	resultCache, err := resolveCache(cfg)
	if err != nil {
		return err
	}

	opts := []pipeline.RunnerOption{
		pipeline.WithEstimatorFilters(runEstimators...),
		pipeline.WithSeed(runSeed),
	}
	if resultCache != nil {
		opts = append(opts, pipeline.WithCache(resultCache))
	}
	runner := pipeline.NewRunner(cfg, opts...)

	sp := spinner.Start(cmd.ErrOrStderr(), "Loading inputs")
	runner.OnProgress(func(e pipeline.ProgressEvent) {
		if msg := progressMessage(e); msg != "" {
			sp.Update(msg)
		}
	})
	report, err := runner.Run(cmd.Context())
	sp.Stop()
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	dir := runOutputDir
	if dir == "" {
		dir = cfg.Resolve(cfg.Paths.Results)
	}
	dir = filepath.Join(dir, report.RunID)
	if _, err := reporting.Write(report, dir, formats); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	out := cmd.OutOrStdout()
	printReport(out, report)
	if interpret {
		fmt.Fprintln(out)
		fmt.Fprint(out, reporting.FormatSummaryReport(report))
	}
	fmt.Fprintf(out, "\nReport written to: %s\n", dir)

	if failed := report.FailedGates(); len(failed) > 0 {
		return &GateFailureError{Message: fmt.Sprintf("%d of %d gates did not pass", len(failed), len(report.Gates))}
	}
	return nil
}
