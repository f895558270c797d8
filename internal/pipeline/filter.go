package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/lesioneval/internal/projectconfig"
)

// FilterEstimators selects estimators by glob patterns matched against the
// estimator name or kind. A pattern prefixed with "!" excludes its matches.
// With only exclusions every other estimator is kept; no patterns keeps
// everything. Config order is preserved.
func FilterEstimators(estimators []projectconfig.EstimatorConfig, patterns []string) ([]projectconfig.EstimatorConfig, error) {
	var include, exclude []string
	for _, p := range patterns {
		if _, err := filepath.Match(strings.TrimPrefix(p, "!"), ""); err != nil {
			return nil, fmt.Errorf("invalid estimator filter pattern %q: %w", p, err)
		}
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, rest)
		} else {
			include = append(include, p)
		}
	}

	var out []projectconfig.EstimatorConfig
	for _, e := range estimators {
		if len(include) > 0 && !selects(e, include) {
			continue
		}
		if selects(e, exclude) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// selects reports whether any pattern matches the estimator's name or kind.
// Patterns are validated by the caller.
func selects(e projectconfig.EstimatorConfig, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, e.Name); ok {
			return true
		}
		if ok, _ := filepath.Match(p, e.Kind); ok {
			return true
		}
	}
	return false
}
