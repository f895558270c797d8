package main

import (
	"context"
	"fmt"

	"github.com/spboyer/lesioneval/internal/pipeline"
	"github.com/spboyer/lesioneval/internal/projectconfig"
)

// loadEstimators loads the shared inputs and the named estimators, plus
// any estimator an expected_costs estimator converts. Estimators are
// loaded in config order.
func loadEstimators(ctx context.Context, cfg *projectconfig.ProjectConfig, names ...string) (*pipeline.Inputs, map[string]*pipeline.Estimator, error) {
	want := map[string]bool{}
	for _, n := range names {
		if _, ok := cfg.FindEstimator(n); !ok {
			return nil, nil, fmt.Errorf("no estimator named %q in the config", n)
		}
		want[n] = true
	}
	// Pull in conversion sources, walking backwards so chains resolve.
	for i := len(cfg.Estimators) - 1; i >= 0; i-- {
		ec := cfg.Estimators[i]
		if !want[ec.Name] {
			continue
		}
		if from, ok := ec.Params["from"].(string); ok && from != "" {
			want[from] = true
		}
	}

	in, err := pipeline.LoadInputs(cfg)
	if err != nil {
		return nil, nil, err
	}
	loaded := map[string]*pipeline.Estimator{}
	for _, ec := range cfg.Estimators {
		if !want[ec.Name] {
			continue
		}
		est, err := pipeline.LoadEstimator(ctx, ec, cfg, in, loaded)
		if err != nil {
			return nil, nil, err
		}
		loaded[ec.Name] = est
	}
	return in, loaded, nil
}

// estimatorNames returns args, or every configured estimator when empty.
func estimatorNames(cfg *projectconfig.ProjectConfig, args []string) []string {
	if len(args) > 0 {
		return args
	}
	names := make([]string, len(cfg.Estimators))
	for i, ec := range cfg.Estimators {
		names[i] = ec.Name
	}
	return names
}
