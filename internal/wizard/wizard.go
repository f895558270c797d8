// Package wizard collects the answers for a new .lesioneval.yaml
// interactively and renders the file.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/lesioneval/internal/models"
	"github.com/spboyer/lesioneval/internal/projectconfig"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Answers holds all fields collected during the interactive wizard.
type Answers struct {
	Name          string
	Labels        []string
	UnknownClass  bool
	GroundTruth   string
	Softmax       string
	DropoutPasses string
	PassCount     int
	Ranking       string
	Metric        string
	MinAccuracy   *float64
}

// Defaults returns answers prefilled for an ISIC 2019 project.
func Defaults(name string) *Answers {
	return &Answers{
		Name:        name,
		Labels:      models.DefaultLabelTable(false).Names(),
		GroundTruth: "data/ground_truth.csv",
		Softmax:     "results/softmax.csv",
		PassCount:   projectconfig.DefaultPassCount,
		Ranking:     projectconfig.DefaultRanking,
		Metric:      projectconfig.DefaultMetric,
	}
}

// Run runs an interactive huh form starting from defaults.
func Run(in io.Reader, out io.Writer, defaults *Answers) (*Answers, error) {
	a := *defaults
	labels := strings.Join(a.Labels, ", ")
	passes := strconv.Itoa(a.PassCount)
	minAcc := ""
	if a.MinAccuracy != nil {
		minAcc = strconv.FormatFloat(*a.MinAccuracy, 'g', -1, 64)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&a.Name).
				Validate(required("project name")),
			huh.NewInput().
				Title("Class labels").
				Description("Comma-separated, in score-column order").
				Value(&labels).
				Validate(func(s string) error {
					_, err := models.NewLabelTable(splitAndTrim(s), false)
					return err
				}),
			huh.NewConfirm().
				Title("Add an unknown (abstain) class?").
				Value(&a.UnknownClass),
			huh.NewInput().
				Title("Ground-truth table").
				Value(&a.GroundTruth).
				Validate(required("ground-truth table")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Softmax predictions table").
				Description("Leave empty to skip").
				Value(&a.Softmax),
			huh.NewInput().
				Title("Monte-Carlo pass tables").
				Description("Pattern with {i} for the pass index; leave empty to skip").
				Placeholder("results/entropy/mc_forward_pass_{i}_entropy.csv").
				Value(&a.DropoutPasses),
			huh.NewInput().
				Title("Number of passes").
				Value(&passes).
				Validate(positiveInt),
			huh.NewSelect[string]().
				Title("Coverage ranking").
				Options(
					huh.NewOption("confidence (max softmax)", "confidence"),
					huh.NewOption("uncertainty (trailing column)", "uncertainty"),
					huh.NewOption("expected cost", "expected_cost"),
				).
				Value(&a.Ranking),
			huh.NewSelect[string]().
				Title("Coverage metric").
				Options(
					huh.NewOption("accuracy", "accuracy"),
					huh.NewOption("true cost", "true_cost"),
					huh.NewOption("expected cost", "expected_cost"),
				).
				Value(&a.Metric),
			huh.NewInput().
				Title("Minimum accuracy gate").
				Description("Between 0 and 1; leave empty for none").
				Value(&minAcc).
				Validate(optionalFraction),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	a.Name = strings.TrimSpace(a.Name)
	a.Labels = splitAndTrim(labels)
	a.PassCount, _ = strconv.Atoi(strings.TrimSpace(passes))
	a.MinAccuracy = nil
	if v, err := strconv.ParseFloat(strings.TrimSpace(minAcc), 64); err == nil {
		a.MinAccuracy = &v
	}
	return &a, nil
}

// Config turns answers into a project configuration holding only the
// values that differ from what the loader fills in.
func (a *Answers) Config() *projectconfig.ProjectConfig {
	cfg := &projectconfig.ProjectConfig{
		Name:        a.Name,
		Labels:      a.Labels,
		GroundTruth: a.GroundTruth,
		Coverage: projectconfig.CoverageConfig{
			Ranking: a.Ranking,
			Metric:  a.Metric,
		},
		Gates: projectconfig.GatesConfig{MinAccuracy: a.MinAccuracy},
	}
	if a.UnknownClass {
		t := true
		cfg.UnknownClass = &t
	}
	if s := strings.TrimSpace(a.Softmax); s != "" {
		cfg.Estimators = append(cfg.Estimators, projectconfig.EstimatorConfig{
			Name:   "softmax",
			Kind:   string(models.EstimatorKindSoftmax),
			Params: map[string]any{"path": s},
		})
	}
	if p := strings.TrimSpace(a.DropoutPasses); p != "" {
		cfg.Estimators = append(cfg.Estimators, projectconfig.EstimatorConfig{
			Name:   "mc_dropout",
			Kind:   string(models.EstimatorKindMCDropout),
			Params: map[string]any{"pattern": p, "passes": a.PassCount},
		})
		cfg.MonteCarlo.Estimator = "mc_dropout"
		if len(cfg.Estimators) > 1 {
			cfg.MonteCarlo.Baseline = "softmax"
		}
	}
	return cfg
}

// Render marshals the answers as a .lesioneval.yaml document.
func Render(a *Answers) ([]byte, error) {
	data, err := yaml.Marshal(a.Config())
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	header := "# lesioneval project configuration\n"
	return append([]byte(header), data...), nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a positive whole number")
	}
	return nil
}

func optionalFraction(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return fmt.Errorf("enter a number between 0 and 1")
	}
	return nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
