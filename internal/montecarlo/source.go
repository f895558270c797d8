package montecarlo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/spboyer/lesioneval/internal/dataset"
	"github.com/spboyer/lesioneval/internal/models"
)

// PassPlaceholder is replaced by the pass index in a pass path pattern.
const PassPlaceholder = "{i}"

// PassSource loads the prediction table of one stochastic forward pass.
type PassSource func(ctx context.Context) ([]models.PredictionRecord, error)

// FilePass reads a pass table from path.
func FilePass(path string, layout models.Layout) PassSource {
	return func(ctx context.Context) ([]models.PredictionRecord, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return dataset.ReadTable(path, layout)
	}
}

// RecordsPass serves records already in memory.
func RecordsPass(records []models.PredictionRecord) PassSource {
	return func(context.Context) ([]models.PredictionRecord, error) {
		return records, nil
	}
}

// PassPaths expands pattern for passes 0..n-1, e.g.
// "results/entropy/mc_forward_pass_{i}_entropy.csv".
func PassPaths(pattern string, n int) ([]string, error) {
	if !strings.Contains(pattern, PassPlaceholder) {
		return nil, fmt.Errorf("pass pattern %q has no %s placeholder", pattern, PassPlaceholder)
	}
	if n < 1 {
		return nil, fmt.Errorf("pass count must be >= 1, got %d", n)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = strings.ReplaceAll(pattern, PassPlaceholder, strconv.Itoa(i))
	}
	return out, nil
}

// FilePasses builds one FilePass per path.
func FilePasses(paths []string, layout models.Layout) []PassSource {
	out := make([]PassSource, len(paths))
	for i, p := range paths {
		out[i] = FilePass(p, layout)
	}
	return out
}

// Loaded is the outcome of running one PassSource.
type Loaded struct {
	Records []models.PredictionRecord
	Err     error
}

// LoadAll runs every source, at most workers at a time (DefaultWorkers when
// workers < 1). Per-pass errors are kept in the result; only cancellation of
// ctx fails the call.
func LoadAll(ctx context.Context, sources []PassSource, workers int) ([]Loaded, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}
	results := make([]Loaded, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := src(gctx)
			results[i] = Loaded{Records: recs, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Memoize turns loaded passes back into sources that replay them.
func Memoize(loaded []Loaded) []PassSource {
	out := make([]PassSource, len(loaded))
	for i, l := range loaded {
		out[i] = func(context.Context) ([]models.PredictionRecord, error) {
			return l.Records, l.Err
		}
	}
	return out
}
