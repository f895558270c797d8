package pipeline

import (
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/projectconfig"
)

// Gate identifiers.
const (
	GateMinAccuracy = "min_accuracy"
	GateMinRiskAUC  = "min_risk_auc"
	GateMaxCostAUC  = "max_cost_auc"
	GateMaxECE      = "max_ece"
)

// CheckGates compares every estimator against the configured thresholds.
// A gate whose value was not computed for an estimator is n/a, which does
// not count as passed. hasCosts says whether cost curves were computed.
func CheckGates(g projectconfig.GatesConfig, outcomes []models.EstimatorOutcome, hasCosts bool) []models.GateResult {
	var out []models.GateResult
	for _, o := range outcomes {
		if g.MinAccuracy != nil {
			out = append(out, gate(GateMinAccuracy, o.Name, o.Accuracy, *g.MinAccuracy, true, true))
		}
		if g.MinRiskAUC != nil {
			out = append(out, gate(GateMinRiskAUC, o.Name, o.RiskAUC, *g.MinRiskAUC, true, true))
		}
		if g.MaxCostAUC != nil {
			out = append(out, gate(GateMaxCostAUC, o.Name, o.CostAUC, *g.MaxCostAUC, false, hasCosts))
		}
		if g.MaxECE != nil {
			out = append(out, gate(GateMaxECE, o.Name, o.MeanECE(), *g.MaxECE, false, len(o.Calibration) > 0))
		}
	}
	return out
}

func gate(id, estimator string, value, threshold float64, minimum, computed bool) models.GateResult {
	r := models.GateResult{
		Identifier: id,
		Estimator:  estimator,
		Threshold:  threshold,
		Minimum:    minimum,
	}
	switch {
	case !computed:
		r.Status = models.GateStatusNA
		return r
	case minimum && value >= threshold, !minimum && value <= threshold:
		r.Status = models.GateStatusPassed
	default:
		r.Status = models.GateStatusFailed
	}
	r.Value = value
	return r
}
