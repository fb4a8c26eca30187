package experiment

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
)

// Runner runs an experiment with one formulation.
type Runner func(ctx context.Context, e *Experiment) (*dynamo.Result, error)

type Registry struct {
	formulations map[string]Runner
}

func NewRegistry() *Registry {
	r := &Registry{formulations: make(map[string]Runner)}
	r.formulations[config.FormulationVelocity] = runVelocity
	r.formulations[config.FormulationFixed] = runFixed
	return r
}

func (r *Registry) Get(name string) (Runner, error) {
	fn, ok := r.formulations[name]
	if !ok {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "unknown formulation %q", name)
	}
	return fn, nil
}

func (r *Registry) ListFormulations() []string {
	names := make([]string, 0, len(r.formulations))
	for name := range r.formulations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
