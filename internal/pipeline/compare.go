package pipeline

import (
	"fmt"

	"github.com/spboyer/lesioneval/internal/coverage"
	"github.com/spboyer/lesioneval/internal/models"
)

// Comparison holds the coverage curves of several estimators over the same
// samples, in the order the estimators were given.
type Comparison struct {
	Risk []models.EstimatorSeries
	// Cost is empty when the run has no cost matrix.
	Cost []models.EstimatorSeries
}

type rankedEstimator struct {
	name string
	ranked
}

// Compare ranks every estimator and builds its risk-coverage curve, and its
// cost-coverage curve when in has a cost matrix.
func Compare(ests []*Estimator, in *Inputs, s Settings) (*Comparison, error) {
	if len(ests) == 0 {
		return nil, models.ErrEmptyInput
	}
	items := make([]rankedEstimator, 0, len(ests))
	for _, est := range ests {
		if err := checkSamples(est, in); err != nil {
			return nil, err
		}
		r, err := rank(est, in, s.Ranking)
		if err != nil {
			return nil, fmt.Errorf("estimator %q: %w", est.Name, err)
		}
		items = append(items, rankedEstimator{name: est.Name, ranked: r})
	}
	return compareRanked(items, in)
}

func checkSamples(est *Estimator, in *Inputs) error {
	if len(est.Records) == 0 {
		return fmt.Errorf("estimator %q: %w", est.Name, models.ErrEmptyInput)
	}
	if len(est.Records) != in.Truth.Len() {
		return fmt.Errorf("estimator %q: %d predictions but %d ground-truth labels", est.Name, len(est.Records), in.Truth.Len())
	}
	return nil
}

// compareRanked groups estimators that share a ranking and record kind, so
// each group runs as one multi-model request, then restores input order.
func compareRanked(items []rankedEstimator, in *Inputs) (*Comparison, error) {
	type group struct {
		req     coverage.Request
		members []int
	}
	var groups []*group
	for i, it := range items {
		req := coverage.Request{
			Ranking:       it.ranking,
			Metric:        coverage.MetricAccuracy,
			ExpectedCosts: it.costTable,
			Costs:         in.Costs,
			Labels:        in.Labels,
		}
		var g *group
		for _, existing := range groups {
			if existing.req.Ranking == req.Ranking && existing.req.ExpectedCosts == req.ExpectedCosts {
				g = existing
				break
			}
		}
		if g == nil {
			g = &group{req: req}
			groups = append(groups, g)
		}
		g.members = append(g.members, i)
	}

	cmp := &Comparison{Risk: make([]models.EstimatorSeries, len(items))}
	if in.Costs != nil {
		cmp.Cost = make([]models.EstimatorSeries, len(items))
	}
	for _, g := range groups {
		ests := make([]coverage.Estimator, len(g.members))
		for j, i := range g.members {
			ests[j] = coverage.Estimator{Name: items[i].name, Records: items[i].records}
		}

		risk, err := coverage.MultiModel(ests, g.req, in.Truth)
		if err != nil {
			return nil, fmt.Errorf("risk coverage: %w", err)
		}
		for j, i := range g.members {
			cmp.Risk[i] = risk[j]
		}

		if in.Costs == nil {
			continue
		}
		costReq := g.req
		costReq.Metric = coverage.MetricTrueCost
		costs, err := coverage.MultiModel(ests, costReq, in.Truth)
		if err != nil {
			return nil, fmt.Errorf("cost coverage: %w", err)
		}
		for j, i := range g.members {
			cmp.Cost[i] = costs[j]
		}
	}
	return cmp, nil
}
