package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/spboyer/lesioneval/internal/calibration"
	"github.com/spboyer/lesioneval/internal/confusion"
	"github.com/spboyer/lesioneval/internal/coverage"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/projectconfig"
	"github.com/spboyer/lesioneval/internal/uncertainty"
)

// Settings are the analysis options shared by every estimator of a run.
type Settings struct {
	Bins      int              `json:"bins"`
	SkipFirst bool             `json:"skip_first"`
	Ranking   coverage.Ranking `json:"ranking"`
	Metric    coverage.Metric  `json:"metric"`
	PerClass  bool             `json:"per_class"`
}

// SettingsFrom reads the analysis options of cfg.
func SettingsFrom(cfg *projectconfig.ProjectConfig) Settings {
	return Settings{
		Bins:      cfg.Calibration.Bins,
		SkipFirst: projectconfig.Bool(cfg.Calibration.SkipFirst),
		Ranking:   coverage.Ranking(cfg.Coverage.Ranking),
		Metric:    coverage.Metric(cfg.Coverage.Metric),
		PerClass:  projectconfig.Bool(cfg.Coverage.PerClass),
	}
}

// Evaluation is everything computed for one estimator.
type Evaluation struct {
	Outcome models.EstimatorOutcome
	Risk    models.EstimatorSeries
	// Cost is nil when the run has no cost matrix.
	Cost *models.EstimatorSeries
}

// ranked is the record set coverage runs on, with the ranking actually used.
type ranked struct {
	records   []models.PredictionRecord
	costTable bool
	ranking   coverage.Ranking
}

// rank picks the records and ranking coverage runs on. Probability records
// ranked by expected cost are converted first; a ranking the records cannot
// support falls back to one they can.
func rank(est *Estimator, in *Inputs, want coverage.Ranking) (ranked, error) {
	r := ranked{records: est.Records, costTable: est.CostTable, ranking: want}

	if want == coverage.RankExpectedCost && !r.costTable {
		costs, err := in.RequireCosts()
		if err != nil {
			return r, fmt.Errorf("ranking %q: %w", want, err)
		}
		r.records, err = costs.ExpectedCostRecords(est.Records)
		if err != nil {
			return r, fmt.Errorf("ranking %q: %w", want, err)
		}
		r.costTable = true
	}
	if r.costTable && r.ranking == coverage.RankConfidence {
		r.ranking = coverage.RankExpectedCost
	}
	if r.ranking == coverage.RankUncertainty && !allUncertain(r.records) {
		r.ranking = coverage.RankConfidence
		if r.costTable {
			r.ranking = coverage.RankExpectedCost
		}
	}
	if r.ranking != want {
		slog.Info("ranking not available for estimator, falling back",
			"estimator", est.Name, "requested", want, "using", r.ranking)
	}
	return r, nil
}

func allUncertain(records []models.PredictionRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, rec := range records {
		if !rec.HasUncertainty() {
			return false
		}
	}
	return true
}

func meanUncertainty(records []models.PredictionRecord) float64 {
	n, sum := 0, 0.0
	for _, r := range records {
		if r.HasUncertainty() {
			n++
			sum += *r.Uncertainty
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Evaluate runs every analysis for one estimator against the shared inputs.
func Evaluate(est *Estimator, in *Inputs, s Settings) (*Evaluation, error) {
	wrap := func(err error) error {
		return fmt.Errorf("estimator %q: %w", est.Name, err)
	}
	if err := checkSamples(est, in); err != nil {
		return nil, err
	}

	r, err := rank(est, in, s.Ranking)
	if err != nil {
		return nil, wrap(err)
	}
	req := coverage.Request{
		Ranking:       r.ranking,
		Metric:        coverage.MetricAccuracy,
		ExpectedCosts: r.costTable,
		Costs:         in.Costs,
		Labels:        in.Labels,
	}

	ev := &Evaluation{Outcome: models.EstimatorOutcome{
		Name:            est.Name,
		Kind:            est.Kind,
		Samples:         len(est.Records),
		MeanUncertainty: meanUncertainty(est.Records),
	}}
	out := &ev.Outcome

	cmp, err := compareRanked([]rankedEstimator{{name: est.Name, ranked: r}}, in)
	if err != nil {
		return nil, wrap(err)
	}
	ev.Risk = cmp.Risk[0]
	out.Accuracy = ev.Risk.Series.Full()
	out.RiskAUC = ev.Risk.AUC
	if len(cmp.Cost) > 0 {
		ev.Cost = &cmp.Cost[0]
		out.MeanTrueCost = ev.Cost.Series.Full()
		out.CostAUC = ev.Cost.AUC
	}

	if !est.CostTable {
		bins := s.Bins
		if bins < 1 {
			bins = calibration.DefaultBins
		}
		opts := calibration.Options{Bins: bins, SkipFirst: s.SkipFirst, Labels: in.Labels}
		if out.Calibration, err = calibration.Reliability(est.Records, opts, in.Truth); err != nil {
			return nil, wrap(err)
		}
		if out.Histogram, err = calibration.Histogram(est.Records, opts); err != nil {
			return nil, wrap(err)
		}
	}

	if s.PerClass {
		classReq := req
		classReq.Metric = s.Metric
		if err := classReq.Validate(); err != nil {
			slog.Info("per-class metric not available, using accuracy", "estimator", est.Name, "metric", s.Metric, "reason", err)
			classReq.Metric = coverage.MetricAccuracy
		}
		pc, err := coverage.PerClass(r.records, classReq, in.Truth)
		if err != nil {
			return nil, wrap(err)
		}
		out.PerClass = pc.Classes
		out.EmptyClasses = pc.EmptyClasses
	}

	predicted := make([]int, len(r.records))
	for i, rec := range r.records {
		predicted[i] = req.Predict(rec)
	}
	cm, err := confusion.FromPredictions(predicted, in.Truth, in.Labels.Len(), max(in.Labels.Len(), r.records[0].Classes()))
	if err != nil {
		return nil, wrap(err)
	}
	out.Confusion = cm.Summary(in.Labels)

	if allUncertain(r.records) {
		predict := uncertainty.Argmax
		if r.costTable {
			predict = uncertainty.Argmin
		}
		if out.Uncertainty, err = uncertainty.Summarize(r.records, in.Truth, predict, in.Labels, uncertainty.DefaultBins); err != nil {
			return nil, wrap(err)
		}
	}

	slog.Debug("estimator evaluated",
		"estimator", est.Name,
		"accuracy", out.Accuracy,
		"risk_auc", out.RiskAUC,
		"cost_auc", out.CostAUC,
	)
	return ev, nil
}
