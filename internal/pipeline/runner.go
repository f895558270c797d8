package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spboyer/lesioneval/internal/cache"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/montecarlo"
	"github.com/spboyer/lesioneval/internal/projectconfig"
)

// ErrNoEstimators is returned when the configuration, after filtering,
// leaves nothing to evaluate.
var ErrNoEstimators = errors.New("no estimators to evaluate")

// Runner evaluates every configured estimator into one report.
type Runner struct {
	cfg *projectconfig.ProjectConfig

	// Estimator filtering
	filters []string

	// Result caching
	cache *cache.Cache

	// Bootstrap seed for the Monte-Carlo interval
	seed int64

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRunStart           EventType = "run_start"
	EventRunComplete        EventType = "run_complete"
	EventRunCached          EventType = "run_cached"
	EventEstimatorStart     EventType = "estimator_start"
	EventEstimatorComplete  EventType = "estimator_complete"
	EventMonteCarloStart    EventType = "montecarlo_start"
	EventMonteCarloComplete EventType = "montecarlo_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	Estimator  string
	Num        int
	Total      int
	DurationMs int64
	Details    map[string]any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEstimatorFilters sets glob patterns matched against estimator names and kinds.
func WithEstimatorFilters(patterns ...string) RunnerOption {
	return func(r *Runner) {
		r.filters = patterns
	}
}

// WithCache enables report caching
func WithCache(c *cache.Cache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithSeed fixes the bootstrap resampling seed; negative is non-deterministic.
func WithSeed(seed int64) RunnerOption {
	return func(r *Runner) {
		r.seed = seed
	}
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *projectconfig.ProjectConfig, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// cacheSettings is everything besides input bytes that determines a report.
type cacheSettings struct {
	Config     *projectconfig.ProjectConfig
	Estimators []string
	Seed       int64
}

func (r *Runner) cacheKey(estimators []projectconfig.EstimatorConfig) (string, error) {
	inputs := []string{r.cfg.Resolve(r.cfg.GroundTruth)}
	if r.cfg.TestIndexes != "" {
		inputs = append(inputs, r.cfg.Resolve(r.cfg.TestIndexes))
	}
	names := make([]string, len(estimators))
	for i, ec := range estimators {
		names[i] = ec.Name
		files, err := InputFiles(ec, r.cfg)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, files...)
	}
	return cache.Key(cacheSettings{Config: r.cfg, Estimators: names, Seed: r.seed}, inputs)
}

// Run loads the inputs, evaluates every selected estimator in config order,
// aggregates the Monte-Carlo passes when configured and checks the gates.
func (r *Runner) Run(ctx context.Context) (*models.EvaluationReport, error) {
	startTime := time.Now()

	estimators, err := FilterEstimators(r.cfg.Estimators, r.filters)
	if err != nil {
		return nil, err
	}
	if len(estimators) == 0 {
		return nil, ErrNoEstimators
	}

	var key string
	if r.cache != nil {
		key, err = r.cacheKey(estimators)
		if err != nil {
			return nil, fmt.Errorf("computing cache key: %w", err)
		}
		if report, ok := r.cache.Get(key); ok {
			slog.Debug("report served from cache", "key", key)
			r.notifyProgress(ProgressEvent{EventType: EventRunCached, Total: len(estimators), Details: map[string]any{"run_id": report.RunID}})
			return report, nil
		}
	}

	in, err := LoadInputs(r.cfg)
	if err != nil {
		return nil, err
	}
	settings := SettingsFrom(r.cfg)

	r.notifyProgress(ProgressEvent{EventType: EventRunStart, Total: len(estimators)})

	loaded := make(map[string]*Estimator, len(estimators))
	ordered := make([]*Estimator, 0, len(estimators))
	var evals []*Evaluation
	for i, ec := range estimators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		estStart := time.Now()
		r.notifyProgress(ProgressEvent{EventType: EventEstimatorStart, Estimator: ec.Name, Num: i + 1, Total: len(estimators)})

		est, err := LoadEstimator(ctx, ec, r.cfg, in, loaded)
		if err != nil {
			return nil, err
		}
		loaded[ec.Name] = est
		ordered = append(ordered, est)

		ev, err := Evaluate(est, in, settings)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)

		r.notifyProgress(ProgressEvent{
			EventType:  EventEstimatorComplete,
			Estimator:  ec.Name,
			Num:        i + 1,
			Total:      len(estimators),
			DurationMs: time.Since(estStart).Milliseconds(),
			Details: map[string]any{
				"accuracy": ev.Outcome.Accuracy,
				"risk_auc": ev.Outcome.RiskAUC,
			},
		})
	}

	cmp, err := Compare(ordered, in, settings)
	if err != nil {
		return nil, err
	}

	mc, err := r.runMonteCarlo(ctx, in, loaded)
	if err != nil {
		return nil, err
	}

	report := r.buildReport(in, settings, evals, cmp, mc, startTime)
	r.notifyProgress(ProgressEvent{
		EventType:  EventRunComplete,
		Total:      len(estimators),
		DurationMs: report.Digest.DurationMs,
		Details: map[string]any{
			"run_id":       report.RunID,
			"gates_failed": report.Digest.GatesFailed,
		},
	})

	if r.cache != nil {
		if err := r.cache.Put(key, report); err != nil {
			slog.Warn("failed to cache report", "error", err)
		}
	}
	return report, nil
}

// runMonteCarlo aggregates the passes of the configured estimator. It
// returns nil when no estimator is configured or the estimator was
// filtered out of this run.
func (r *Runner) runMonteCarlo(ctx context.Context, in *Inputs, loaded map[string]*Estimator) (*models.MonteCarloResult, error) {
	mcCfg := r.cfg.MonteCarlo
	if mcCfg.Estimator == "" {
		return nil, nil
	}
	est, ok := loaded[mcCfg.Estimator]
	if !ok {
		slog.Info("monte carlo estimator not selected, skipping", "estimator", mcCfg.Estimator)
		return nil, nil
	}
	if len(est.Passes) == 0 {
		return nil, fmt.Errorf("montecarlo: estimator %q of kind %s has no forward passes", est.Name, est.Kind)
	}

	req := montecarlo.Request{
		Passes:     montecarlo.Memoize(est.Passes),
		Oracle:     in.Truth,
		Mode:       montecarlo.Mode(mcCfg.Mode),
		Costs:      in.Costs,
		Workers:    mcCfg.Workers,
		Confidence: mcCfg.Confidence,
		Seed:       r.seed,
	}
	if mcCfg.Baseline != "" {
		base, ok := loaded[mcCfg.Baseline]
		if ok {
			req.Baseline = base.Records
		} else {
			slog.Info("monte carlo baseline not selected, skipping", "estimator", mcCfg.Baseline)
		}
	}

	start := time.Now()
	r.notifyProgress(ProgressEvent{EventType: EventMonteCarloStart, Estimator: est.Name, Total: len(est.Passes)})
	result, err := montecarlo.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	r.notifyProgress(ProgressEvent{
		EventType:  EventMonteCarloComplete,
		Estimator:  est.Name,
		Num:        len(result.Passes),
		Total:      result.Requested,
		DurationMs: time.Since(start).Milliseconds(),
		Details:    map[string]any{"failed": len(result.Failed)},
	})
	return result, nil
}

func (r *Runner) buildReport(in *Inputs, s Settings, evals []*Evaluation, cmp *Comparison, mc *models.MonteCarloResult, startTime time.Time) *models.EvaluationReport {
	report := &models.EvaluationReport{
		RunID:     uuid.NewString(),
		Name:      r.cfg.Name,
		Timestamp: startTime,
		Setup: models.ReportSetup{
			Labels:        in.Labels.Names(),
			UnknownClass:  in.Labels.HasUnknown(),
			Samples:       in.Truth.Len(),
			Bins:          s.Bins,
			SkipFirstBin:  s.SkipFirst,
			Ranking:       string(s.Ranking),
			Metric:        string(s.Metric),
			CostFlattened: projectconfig.Bool(r.cfg.Cost.Flattened),
			CostUncertain: projectconfig.Bool(r.cfg.Cost.Uncertain),
		},
		MonteCarlo: mc,
		Metadata:   map[string]any{"seed": r.seed},
	}
	if r.cfg.Dir != "" {
		report.Metadata["config_dir"] = r.cfg.Dir
	}

	for _, ev := range evals {
		report.Estimators = append(report.Estimators, ev.Outcome)
	}
	report.RiskCoverage = cmp.Risk
	report.CostCoverage = cmp.Cost
	report.Gates = CheckGates(r.cfg.Gates, report.Estimators, in.Costs != nil)
	report.Digest = digest(report, in.Costs != nil)
	report.Digest.DurationMs = time.Since(startTime).Milliseconds()
	return report
}

func digest(report *models.EvaluationReport, hasCosts bool) models.ReportDigest {
	d := models.ReportDigest{Estimators: len(report.Estimators)}
	lowest := math.Inf(1)
	for i, o := range report.Estimators {
		if i == 0 || o.Accuracy > d.BestAccuracy {
			d.BestAccuracy = o.Accuracy
			d.BestEstimator = o.Name
		}
		d.BestRiskAUC = max(d.BestRiskAUC, o.RiskAUC)
		lowest = min(lowest, o.CostAUC)
	}
	if hasCosts && len(report.Estimators) > 0 {
		d.LowestCostAUC = lowest
	}
	for _, g := range report.Gates {
		if g.Passed() {
			d.GatesPassed++
		} else {
			d.GatesFailed++
		}
	}
	return d
}
