package optim

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
)

// Runner is one independently runnable walk.
type Runner interface {
	Run(ctx context.Context) (*dynamo.Result, error)
}

// Evaluation is the outcome of one parameter combination.
type Evaluation struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Workers bounds the number of concurrent runs. Zero means GOMAXPROCS.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Combinations enumerates the grid, the last parameter varying fastest.
func (g *GridSearch) Combinations() []map[string]float64 {
	combos := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(combos)*len(g.ranges[depth]))
		for _, base := range combos {
			for _, val := range g.ranges[depth] {
				params := make(map[string]float64, len(base)+1)
				for k, v := range base {
					params[k] = v
				}
				params[name] = val
				next = append(next, params)
			}
		}
		combos = next
	}
	return combos
}

// Search runs every combination and returns the one minimizing metricName,
// along with all evaluations in grid order. Failed combinations are skipped;
// the search fails only when none succeeds.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (Runner, error),
	metricName string,
) (*Evaluation, []Evaluation, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, nil, errors.Wrapf(dynamo.ErrConfiguration, "%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	combos := g.Combinations()
	evals := make([]Evaluation, len(combos))

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, params := range combos {
		evals[i].Params = params
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			evals[i].Value, evals[i].Err = evaluate(gctx, build, params, metricName)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, evals, err
	}

	var best *Evaluation
	var failed error
	for i := range evals {
		if evals[i].Err != nil {
			failed = multierr.Append(failed, evals[i].Err)
			continue
		}
		if best == nil || evals[i].Value < best.Value {
			best = &evals[i]
		}
	}
	if best == nil {
		return nil, evals, errors.Wrap(failed, "every combination failed")
	}
	return best, evals, nil
}

func evaluate(ctx context.Context, build func(map[string]float64) (Runner, error), params map[string]float64, metricName string) (float64, error) {
	run, err := build(params)
	if err != nil {
		return math.Inf(1), err
	}
	res, err := run.Run(ctx)
	if err != nil {
		return math.Inf(1), err
	}
	val, ok := res.Metrics[metricName]
	if !ok {
		return math.Inf(1), errors.Errorf("run has no metric %q", metricName)
	}
	return val, nil
}

var weightSetters = map[string]func(*config.WeightConfig, float64){
	"jerk":     func(w *config.WeightConfig, v float64) { w.Jerk = v },
	"velocity": func(w *config.WeightConfig, v float64) { w.Velocity = v },
	"cop":      func(w *config.WeightConfig, v float64) { w.CoP = v },
	"alpha":    func(w *config.WeightConfig, v float64) { w.Alpha = v },
	"beta":     func(w *config.WeightConfig, v float64) { w.Beta = v },
}

// WeightNames lists the parameters ApplyWeights understands.
func WeightNames() []string {
	names := make([]string, 0, len(weightSetters))
	for name := range weightSetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyWeights returns a copy of base with the named objective weights
// replaced.
func ApplyWeights(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := *base
	cfg.Commands = append([]string(nil), base.Commands...)
	for name, v := range params {
		set, ok := weightSetters[name]
		if !ok {
			return nil, errors.Wrapf(dynamo.ErrConfiguration, "unknown weight %q", name)
		}
		if v < 0 {
			return nil, errors.Wrapf(dynamo.ErrConfiguration, "weight %s must not be negative, got %g", name, v)
		}
		set(&cfg.Weights, v)
	}
	return &cfg, nil
}
