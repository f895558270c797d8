package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	"github.com/spboyer/lesioneval/internal/dataset"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/montecarlo"
	"github.com/spboyer/lesioneval/internal/projectconfig"
)

// TableParams configure softmax and bayes_by_backprop estimators: one
// probability table.
type TableParams struct {
	Path string `mapstructure:"path"`
	// Uncertainty marks a trailing uncertainty column.
	Uncertainty bool `mapstructure:"uncertainty"`
	// Classes fixes the number of score columns; 0 infers it from the first row.
	Classes int `mapstructure:"classes"`
}

// PassParams configure mc_dropout estimators: one table per stochastic
// forward pass, each with a trailing uncertainty column.
type PassParams struct {
	// Pattern holds {i} for the pass index.
	Pattern string `mapstructure:"pattern"`
	Passes  int    `mapstructure:"passes"`
	Classes int    `mapstructure:"classes"`
	// Combined is an optional precomputed predictive table; without it the
	// passes are averaged.
	Combined string `mapstructure:"combined"`
}

// CostParams configure expected_costs estimators: either a table of
// expected costs or the name of a probability estimator to convert.
type CostParams struct {
	Path        string `mapstructure:"path"`
	From        string `mapstructure:"from"`
	Uncertainty bool   `mapstructure:"uncertainty"`
	Classes     int    `mapstructure:"classes"`
}

// Estimator is one loaded prediction source.
type Estimator struct {
	Name    string
	Kind    models.EstimatorKind
	Records []models.PredictionRecord
	// CostTable marks records holding expected costs rather than probabilities.
	CostTable bool
	// Passes are the per-pass tables of an mc_dropout estimator.
	Passes []montecarlo.Loaded
}

// HasUncertainty reports whether every record carries an uncertainty value.
func (e *Estimator) HasUncertainty() bool {
	if len(e.Records) == 0 {
		return false
	}
	for _, r := range e.Records {
		if !r.HasUncertainty() {
			return false
		}
	}
	return true
}

// estimatorPlan is an estimator config with its params decoded and paths resolved.
type estimatorPlan struct {
	name  string
	kind  models.EstimatorKind
	table *TableParams
	pass  *PassParams
	cost  *CostParams
	paths []string
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}

func planEstimator(ec projectconfig.EstimatorConfig, cfg *projectconfig.ProjectConfig) (*estimatorPlan, error) {
	p := &estimatorPlan{name: ec.Name, kind: models.EstimatorKind(ec.Kind)}
	wrap := func(err error) error {
		return fmt.Errorf("estimator %q: %w", ec.Name, err)
	}

	switch p.kind {
	case models.EstimatorKindSoftmax, models.EstimatorKindBayes:
		p.table = &TableParams{}
		if err := decodeParams(ec.Params, p.table); err != nil {
			return nil, wrap(err)
		}
		if p.table.Path == "" {
			return nil, wrap(fmt.Errorf("params.path is required"))
		}
		p.table.Path = cfg.Resolve(p.table.Path)
		p.paths = []string{p.table.Path}

	case models.EstimatorKindMCDropout:
		p.pass = &PassParams{Passes: projectconfig.DefaultPassCount}
		if err := decodeParams(ec.Params, p.pass); err != nil {
			return nil, wrap(err)
		}
		paths, err := montecarlo.PassPaths(cfg.Resolve(p.pass.Pattern), p.pass.Passes)
		if err != nil {
			return nil, wrap(err)
		}
		p.paths = paths
		if p.pass.Combined != "" {
			p.pass.Combined = cfg.Resolve(p.pass.Combined)
			p.paths = append(p.paths, p.pass.Combined)
		}

	case models.EstimatorKindCosts:
		p.cost = &CostParams{}
		if err := decodeParams(ec.Params, p.cost); err != nil {
			return nil, wrap(err)
		}
		if (p.cost.Path == "") == (p.cost.From == "") {
			return nil, wrap(fmt.Errorf("exactly one of params.path and params.from is required"))
		}
		if p.cost.Path != "" {
			p.cost.Path = cfg.Resolve(p.cost.Path)
			p.paths = []string{p.cost.Path}
		}

	default:
		return nil, wrap(fmt.Errorf("unknown kind %q", ec.Kind))
	}
	return p, nil
}

// InputFiles lists the files an estimator reads.
func InputFiles(ec projectconfig.EstimatorConfig, cfg *projectconfig.ProjectConfig) ([]string, error) {
	p, err := planEstimator(ec, cfg)
	if err != nil {
		return nil, err
	}
	return p.paths, nil
}

// LoadEstimator reads an estimator's predictions. prior holds estimators
// loaded earlier in the run, which expected_costs estimators may convert.
func LoadEstimator(ctx context.Context, ec projectconfig.EstimatorConfig, cfg *projectconfig.ProjectConfig, in *Inputs, prior map[string]*Estimator) (*Estimator, error) {
	p, err := planEstimator(ec, cfg)
	if err != nil {
		return nil, err
	}
	est := &Estimator{Name: p.name, Kind: p.kind}
	wrap := func(err error) error {
		return fmt.Errorf("estimator %q: %w", ec.Name, err)
	}

	switch {
	case p.table != nil:
		est.Records, err = dataset.ReadTable(p.table.Path, models.Layout{Classes: p.table.Classes, Uncertainty: p.table.Uncertainty})
		if err != nil {
			return nil, wrap(err)
		}

	case p.pass != nil:
		layout := models.Layout{Classes: p.pass.Classes, Uncertainty: true}
		sources := montecarlo.FilePasses(p.paths[:p.pass.Passes], layout)
		est.Passes, err = montecarlo.LoadAll(ctx, sources, cfg.MonteCarlo.Workers)
		if err != nil {
			return nil, wrap(err)
		}
		if p.pass.Combined != "" {
			est.Records, err = dataset.ReadTable(p.pass.Combined, layout)
		} else {
			est.Records, err = combineLoaded(est.Passes)
		}
		if err != nil {
			return nil, wrap(err)
		}

	case p.cost != nil:
		est.CostTable = true
		if p.cost.Path != "" {
			est.Records, err = dataset.ReadTable(p.cost.Path, models.Layout{Classes: p.cost.Classes, Uncertainty: p.cost.Uncertainty})
			if err != nil {
				return nil, wrap(err)
			}
			break
		}
		src, ok := prior[p.cost.From]
		if !ok {
			return nil, wrap(fmt.Errorf("params.from names %q, which is not loaded before it", p.cost.From))
		}
		if src.CostTable {
			return nil, wrap(fmt.Errorf("params.from names %q, which already holds expected costs", p.cost.From))
		}
		costs, err := in.RequireCosts()
		if err != nil {
			return nil, wrap(err)
		}
		est.Records, err = costs.ExpectedCostRecords(src.Records)
		if err != nil {
			return nil, wrap(err)
		}
	}

	slog.Debug("estimator loaded", "estimator", est.Name, "kind", est.Kind, "samples", len(est.Records))
	return est, nil
}

// combineLoaded averages the passes that loaded; failed passes are skipped
// here and reported by the Monte-Carlo aggregation.
func combineLoaded(loaded []montecarlo.Loaded) ([]models.PredictionRecord, error) {
	var ok [][]models.PredictionRecord
	for i, l := range loaded {
		if l.Err != nil {
			slog.Debug("skipping pass in combined table", "pass", i, "error", l.Err)
			continue
		}
		ok = append(ok, l.Records)
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("all %d passes failed to load", len(loaded))
	}
	return montecarlo.Combine(ok)
}
