package experiment

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/footplan"
	"github.com/san-kum/walkgen/internal/logging"
	"github.com/san-kum/walkgen/internal/metrics"
	"github.com/san-kum/walkgen/internal/models"
	"github.com/san-kum/walkgen/internal/walk"
)

// Experiment runs one configured walk and records its metrics.
type Experiment struct {
	cfg       *config.Config
	robot     *models.Biped
	log       *zap.SugaredLogger
	registry  *Registry
	metrics   []dynamo.Metric
	observers []dynamo.Observer

	// Profile overrides the constant velocity reference of the config.
	Profile walk.Profile
}

func New(cfg *config.Config, log *zap.SugaredLogger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	robot := models.FromConfig(cfg.Robot)
	return &Experiment{
		cfg:      cfg,
		robot:    robot,
		log:      logging.OrNop(log),
		registry: NewRegistry(),
		metrics:  metrics.Default(robot.ComHeight()),
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Robot() models.Robot    { return e.robot }

// AddObserver registers an observer fed every output sample of a run.
func (e *Experiment) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	run, err := e.registry.Get(e.cfg.Formulation)
	if err != nil {
		return nil, err
	}
	e.log.Debugw("experiment", "formulation", e.cfg.Formulation, "horizon", e.cfg.Preview.Horizon, "period", e.cfg.Preview.Period)
	return run(ctx, e)
}

// NewOnline builds a velocity-reference generator at the origin with the
// config's commands applied.
func (e *Experiment) NewOnline() (*walk.Online, error) {
	gen, err := walk.NewOnline(e.robot, walk.OptionsFromConfig(e.cfg), e.log)
	if err != nil {
		return nil, err
	}
	if err := e.applyCommands(gen); err != nil {
		return nil, err
	}
	gen.Reset(0, 0, 0)
	return gen, nil
}

func (e *Experiment) applyCommands(g walk.Tunable) error {
	for _, cmd := range e.cfg.Commands {
		if err := walk.ApplyCommand(g, cmd); err != nil {
			return err
		}
	}
	return nil
}

func runVelocity(ctx context.Context, e *Experiment) (*dynamo.Result, error) {
	gen, err := e.NewOnline()
	if err != nil {
		return nil, err
	}
	for _, m := range e.metrics {
		gen.AddMetric(m)
	}
	for _, o := range e.observers {
		gen.AddObserver(o)
	}

	profile := e.Profile
	if profile == nil {
		profile = walk.Constant(e.cfg.Velocity())
	}
	return gen.Run(ctx, e.cfg.Duration, profile)
}

func runFixed(ctx context.Context, e *Experiment) (*dynamo.Result, error) {
	tr, err := footplan.FromConfig(e.cfg).Generate()
	if err != nil {
		return nil, err
	}
	gen, err := walk.NewFixedHorizon(e.robot, walk.OptionsFromConfig(e.cfg), e.log)
	if err != nil {
		return nil, err
	}
	if err := e.applyCommands(gen); err != nil {
		return nil, err
	}

	com, zmp, err := gen.Build(ctx, tr.Left, tr.Right, tr.ZMP)
	if err != nil {
		return nil, err
	}

	opts := gen.Options()
	res := &dynamo.Result{
		CoM:       com,
		ZMP:       zmp,
		Times:     make([]float64, len(com)),
		Footsteps: touchdowns(tr),
		Metrics:   make(map[string]float64),
		Cycles:    len(com) / int(math.Round(opts.Period/opts.OutputPeriod)),
	}
	for _, m := range e.metrics {
		m.Reset()
	}
	for i := range com {
		res.Times[i] = float64(i+1) * opts.OutputPeriod
		for _, m := range e.metrics {
			m.Observe(com[i], zmp[i], res.Times[i])
		}
		for _, o := range e.observers {
			o.OnSample(com[i], zmp[i], res.Times[i])
		}
	}
	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

// touchdowns returns where each foot starts and every place it lands, in
// time order.
func touchdowns(tr *footplan.Trajectories) []dynamo.FootPosition {
	var steps []dynamo.FootPosition
	collect := func(traj []dynamo.FootPosition, tag int, i int) {
		if i >= len(traj) {
			return
		}
		if i == 0 || (traj[i-1].InSwing() && !traj[i].InSwing()) {
			f := traj[i]
			f.StepType = tag
			steps = append(steps, f)
		}
	}
	for i := 0; i < tr.Len(); i++ {
		collect(tr.Left, dynamo.StepLeft, i)
		collect(tr.Right, dynamo.StepRight, i)
	}
	return steps
}
