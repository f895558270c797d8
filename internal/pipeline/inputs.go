// Package pipeline turns a project configuration into an evaluation report:
// it loads the ground truth and every estimator's predictions, runs the
// calibration, coverage, confusion and uncertainty analyses, aggregates
// Monte-Carlo passes and checks the configured gates.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spboyer/lesioneval/internal/cost"
	"github.com/spboyer/lesioneval/internal/dataset"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/projectconfig"
)

// ErrNoGroundTruth is returned when the configuration names no label table.
var ErrNoGroundTruth = errors.New("ground_truth is not configured")

// Inputs holds everything shared by all estimators of a run.
type Inputs struct {
	Labels models.LabelTable
	Truth  *dataset.GroundTruth
	// Costs is nil when the configuration cannot produce a cost matrix,
	// e.g. custom labels without weights. CostsErr says why.
	Costs    *cost.Matrix
	CostsErr error
}

// LabelTable builds the label table named by cfg.
func LabelTable(cfg *projectconfig.ProjectConfig) (models.LabelTable, error) {
	unknown := projectconfig.Bool(cfg.UnknownClass)
	if len(cfg.Labels) == 0 {
		return models.DefaultLabelTable(unknown), nil
	}
	t, err := models.NewLabelTable(cfg.Labels, unknown)
	if err != nil {
		return models.LabelTable{}, fmt.Errorf("labels: %w", err)
	}
	return t, nil
}

// CostMatrix builds the cost matrix named by cfg for labels.
func CostMatrix(cfg *projectconfig.ProjectConfig, labels models.LabelTable) (*cost.Matrix, error) {
	return cost.New(cost.Config{
		Classes:   labels.Classes(),
		Flattened: projectconfig.Bool(cfg.Cost.Flattened),
		Uncertain: projectconfig.Bool(cfg.Cost.Uncertain),
		Weights:   cfg.Cost.Weights,
	})
}

// LoadInputs reads the label table, the ground truth (restricted to the
// test indexes when configured) and the cost matrix.
func LoadInputs(cfg *projectconfig.ProjectConfig) (*Inputs, error) {
	labels, err := LabelTable(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.GroundTruth == "" {
		return nil, ErrNoGroundTruth
	}

	truth, err := dataset.LoadGroundTruth(cfg.Resolve(cfg.GroundTruth), labels)
	if err != nil {
		return nil, fmt.Errorf("ground truth: %w", err)
	}
	if cfg.TestIndexes != "" {
		idx, err := dataset.LoadIndexes(cfg.Resolve(cfg.TestIndexes))
		if err != nil {
			return nil, fmt.Errorf("test indexes: %w", err)
		}
		truth, err = truth.Subset(idx)
		if err != nil {
			return nil, fmt.Errorf("test indexes: %w", err)
		}
	}

	in := &Inputs{Labels: labels, Truth: truth}
	in.Costs, in.CostsErr = CostMatrix(cfg, labels)
	if in.CostsErr != nil {
		slog.Debug("cost matrix unavailable", "error", in.CostsErr)
	}
	slog.Debug("inputs loaded", "samples", truth.Len(), "labels", labels.Len())
	return in, nil
}

// RequireCosts returns the cost matrix or the reason there is none.
func (in *Inputs) RequireCosts() (*cost.Matrix, error) {
	if in.Costs == nil {
		if in.CostsErr == nil {
			return nil, errors.New("a cost matrix is required")
		}
		return nil, fmt.Errorf("a cost matrix is required: %w", in.CostsErr)
	}
	return in.Costs, nil
}
