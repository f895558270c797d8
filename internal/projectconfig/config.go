// Package projectconfig provides the ProjectConfig struct and loader for
// .lesioneval.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = ".lesioneval.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultResultsDir = "results/"
	DefaultCacheDir   = ".lesioneval-cache"

	DefaultBins      = 10
	DefaultRanking   = "confidence"
	DefaultMetric    = "accuracy"
	DefaultMCMode    = "accuracy"
	DefaultWorkers   = 4
	DefaultMCLevel   = 0.95
	DefaultPassCount = 100

	DefaultConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"
)

// PathsConfig holds output directories.
type PathsConfig struct {
	Results string `yaml:"results,omitempty"`
}

// CalibrationConfig holds reliability-diagram binning.
type CalibrationConfig struct {
	Bins      int   `yaml:"bins,omitempty"`
	SkipFirst *bool `yaml:"skip_first,omitempty"`
}

// CostConfig selects the misclassification cost matrix.
type CostConfig struct {
	Flattened *bool       `yaml:"flattened,omitempty"`
	Uncertain *bool       `yaml:"uncertain,omitempty"`
	Weights   [][]float64 `yaml:"weights,omitempty"`
}

// CoverageConfig holds selective-prediction settings.
type CoverageConfig struct {
	Ranking  string `yaml:"ranking,omitempty"`
	Metric   string `yaml:"metric,omitempty"`
	PerClass *bool  `yaml:"per_class,omitempty"`
}

// EstimatorConfig names one prediction source. Params are decoded per kind
// by the pipeline.
type EstimatorConfig struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params,omitempty"`
}

// MonteCarloConfig holds multi-pass aggregation settings.
type MonteCarloConfig struct {
	Mode       string  `yaml:"mode,omitempty"`
	Estimator  string  `yaml:"estimator,omitempty"`
	Baseline   string  `yaml:"baseline,omitempty"`
	Workers    int     `yaml:"workers,omitempty"`
	Confidence float64 `yaml:"confidence,omitempty"`
}

// GatesConfig holds optional pass/fail thresholds checked after a run.
type GatesConfig struct {
	MinAccuracy *float64 `yaml:"min_accuracy,omitempty"`
	MinRiskAUC  *float64 `yaml:"min_risk_auc,omitempty"`
	MaxCostAUC  *float64 `yaml:"max_cost_auc,omitempty"`
	MaxECE      *float64 `yaml:"max_ece,omitempty"`
}

// CacheConfig holds report cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// PublishConfig holds Azure Blob Storage upload settings. Either
// AccountURL (with an Azure credential) or the connection string read from
// ConnectionStringEnv is used.
type PublishConfig struct {
	Container           string `yaml:"container,omitempty"`
	AccountURL          string `yaml:"account_url,omitempty"`
	ConnectionStringEnv string `yaml:"connection_string_env,omitempty"`
	Prefix              string `yaml:"prefix,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .lesioneval.yaml.
type ProjectConfig struct {
	Name         string            `yaml:"name,omitempty"`
	Labels       []string          `yaml:"labels,omitempty"`
	UnknownClass *bool             `yaml:"unknown_class,omitempty"`
	GroundTruth  string            `yaml:"ground_truth,omitempty"`
	TestIndexes  string            `yaml:"test_indexes,omitempty"`
	Calibration  CalibrationConfig `yaml:"calibration,omitempty"`
	Cost         CostConfig        `yaml:"cost,omitempty"`
	Coverage     CoverageConfig    `yaml:"coverage,omitempty"`
	Estimators   []EstimatorConfig `yaml:"estimators,omitempty"`
	MonteCarlo   MonteCarloConfig  `yaml:"montecarlo,omitempty"`
	Gates        GatesConfig       `yaml:"gates,omitempty"`
	Paths        PathsConfig       `yaml:"paths,omitempty"`
	Cache        CacheConfig       `yaml:"cache,omitempty"`
	Publish      PublishConfig     `yaml:"publish,omitempty"`

	// Dir is the directory the config file was found in; relative paths
	// in the file resolve against it. Empty when defaults are used.
	Dir string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		UnknownClass: boolPtr(false),
		Calibration: CalibrationConfig{
			Bins:      DefaultBins,
			SkipFirst: boolPtr(false),
		},
		Cost: CostConfig{
			Flattened: boolPtr(false),
			Uncertain: boolPtr(false),
		},
		Coverage: CoverageConfig{
			Ranking:  DefaultRanking,
			Metric:   DefaultMetric,
			PerClass: boolPtr(false),
		},
		MonteCarlo: MonteCarloConfig{
			Mode:       DefaultMCMode,
			Workers:    DefaultWorkers,
			Confidence: DefaultMCLevel,
		},
		Paths: PathsConfig{
			Results: DefaultResultsDir,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Publish: PublishConfig{
			ConnectionStringEnv: DefaultConnectionStringEnv,
		},
	}
}

// Load finds .lesioneval.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	fileCfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	mergeConfig(cfg, fileCfg)
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// LoadFile reads an explicit config file and merges it onto defaults.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	fileCfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg := New()
	mergeConfig(cfg, fileCfg)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}
	cfg.Dir = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes config YAML without applying defaults.
func Parse(data []byte) (*ProjectConfig, error) {
	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return &fileCfg, nil
}

// Resolve returns p relative to the config directory, or p itself when it
// is absolute, empty or no config file was loaded.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// FindEstimator returns the estimator with the given name.
func (c *ProjectConfig) FindEstimator(name string) (EstimatorConfig, bool) {
	for _, e := range c.Estimators {
		if e.Name == name {
			return e, true
		}
	}
	return EstimatorConfig{}, false
}

// findConfigFile walks up from dir looking for .lesioneval.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors instead of silently swallowing them.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if len(src.Labels) > 0 {
		dst.Labels = src.Labels
	}
	if src.UnknownClass != nil {
		dst.UnknownClass = src.UnknownClass
	}
	if src.GroundTruth != "" {
		dst.GroundTruth = src.GroundTruth
	}
	if src.TestIndexes != "" {
		dst.TestIndexes = src.TestIndexes
	}

	// Calibration
	if src.Calibration.Bins != 0 {
		dst.Calibration.Bins = src.Calibration.Bins
	}
	if src.Calibration.SkipFirst != nil {
		dst.Calibration.SkipFirst = src.Calibration.SkipFirst
	}

	// Cost
	if src.Cost.Flattened != nil {
		dst.Cost.Flattened = src.Cost.Flattened
	}
	if src.Cost.Uncertain != nil {
		dst.Cost.Uncertain = src.Cost.Uncertain
	}
	if src.Cost.Weights != nil {
		dst.Cost.Weights = src.Cost.Weights
	}

	// Coverage
	if src.Coverage.Ranking != "" {
		dst.Coverage.Ranking = src.Coverage.Ranking
	}
	if src.Coverage.Metric != "" {
		dst.Coverage.Metric = src.Coverage.Metric
	}
	if src.Coverage.PerClass != nil {
		dst.Coverage.PerClass = src.Coverage.PerClass
	}

	if len(src.Estimators) > 0 {
		dst.Estimators = src.Estimators
	}

	// MonteCarlo
	if src.MonteCarlo.Mode != "" {
		dst.MonteCarlo.Mode = src.MonteCarlo.Mode
	}
	if src.MonteCarlo.Estimator != "" {
		dst.MonteCarlo.Estimator = src.MonteCarlo.Estimator
	}
	if src.MonteCarlo.Baseline != "" {
		dst.MonteCarlo.Baseline = src.MonteCarlo.Baseline
	}
	if src.MonteCarlo.Workers != 0 {
		dst.MonteCarlo.Workers = src.MonteCarlo.Workers
	}
	if src.MonteCarlo.Confidence != 0 {
		dst.MonteCarlo.Confidence = src.MonteCarlo.Confidence
	}

	// Gates
	if src.Gates.MinAccuracy != nil {
		dst.Gates.MinAccuracy = src.Gates.MinAccuracy
	}
	if src.Gates.MinRiskAUC != nil {
		dst.Gates.MinRiskAUC = src.Gates.MinRiskAUC
	}
	if src.Gates.MaxCostAUC != nil {
		dst.Gates.MaxCostAUC = src.Gates.MaxCostAUC
	}
	if src.Gates.MaxECE != nil {
		dst.Gates.MaxECE = src.Gates.MaxECE
	}

	// Paths
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Publish
	if src.Publish.Container != "" {
		dst.Publish.Container = src.Publish.Container
	}
	if src.Publish.AccountURL != "" {
		dst.Publish.AccountURL = src.Publish.AccountURL
	}
	if src.Publish.ConnectionStringEnv != "" {
		dst.Publish.ConnectionStringEnv = src.Publish.ConnectionStringEnv
	}
	if src.Publish.Prefix != "" {
		dst.Publish.Prefix = src.Publish.Prefix
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// Bool dereferences an optional flag, treating nil as false.
func Bool(b *bool) bool {
	return b != nil && *b
}
