package walk

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/logging"
	"github.com/san-kum/walkgen/internal/models"
	"github.com/san-kum/walkgen/internal/preview"
	"github.com/san-kum/walkgen/internal/qp"
	"github.com/san-kum/walkgen/internal/qpmat"
	"github.com/san-kum/walkgen/internal/support"
)

// CycleOutput is what one preview cycle produced.
type CycleOutput struct {
	Time     float64
	CoM      []dynamo.CoMState
	ZMP      []dynamo.ZMPSample
	Support  support.State
	Solution *qp.Solution
	Layout   *qpmat.Layout
	// Footsteps are the previewed landing positions of this cycle.
	Footsteps []dynamo.FootPosition
	// Landed is set when a foot touched down at the start of the cycle.
	Landed *dynamo.FootPosition
}

// Online generates walking from a velocity reference, choosing footsteps
// on the fly.
type Online struct {
	tuning
	opts  Options
	robot models.Robot
	log   *zap.SugaredLogger

	asm   *qpmat.Assembler
	model *preview.Model
	ratio int
	pb    *qp.Problem

	com     dynamo.State
	yaw     float64
	current support.State
	feet    qpmat.Feet
	next    *dynamo.FootPosition
	cycle   int

	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func NewOnline(robot models.Robot, opts Options, log *zap.SugaredLogger) (*Online, error) {
	pb, err := qp.NewProblem(2*opts.Horizon, 4*opts.Horizon, 0)
	if err != nil {
		return nil, err
	}
	o := &Online{opts: opts, robot: robot, log: logging.OrNop(log), pb: pb}
	o.tuning.opts = &o.opts
	if err := o.rebuild(); err != nil {
		return nil, err
	}
	o.Reset(0, 0, 0)
	return o, nil
}

func (o *Online) AddMetric(m dynamo.Metric)     { o.metrics = append(o.metrics, m) }
func (o *Online) AddObserver(b dynamo.Observer) { o.observers = append(o.observers, b) }

func (o *Online) rebuild() error {
	ratio, err := o.opts.ratio()
	if err != nil {
		return err
	}
	asm, err := qpmat.NewAssembler(o.opts.Horizon, o.opts.Period, o.opts.Weights, o.robot,
		hull.GeneralBuilder{MarginX: o.opts.MarginX, MarginY: o.opts.MarginY})
	if err != nil {
		return err
	}
	o.asm, o.ratio = asm, ratio
	o.model = preview.NewModel(o.opts.Period, o.robot.ComHeight())
	o.dirty = false
	return nil
}

// Reset puts the robot at rest in double support, centered on (x, y) with
// heading yaw. The left foot is the first support foot.
func (o *Online) Reset(x, y, yaw float64) {
	half := o.opts.FeetDistance / 2
	s, c := math.Sin(yaw), math.Cos(yaw)
	o.feet = qpmat.Feet{
		Left:  dynamo.FootPosition{X: x - s*half, Y: y + c*half, Yaw: yaw, StepType: dynamo.StepDouble},
		Right: dynamo.FootPosition{X: x + s*half, Y: y - c*half, Yaw: yaw, StepType: dynamo.StepDouble},
	}
	o.com = dynamo.NewState([3]float64{x, 0, 0}, [3]float64{y, 0, 0})
	o.yaw = yaw
	o.current = support.Initial(dynamo.LeftFoot, o.feet.Left.X, o.feet.Left.Y, yaw)
	o.next = nil
	o.cycle = 0
}

func (o *Online) Options() Options       { return o.opts }
func (o *Online) CoM() dynamo.State      { return o.com.Clone() }
func (o *Online) Support() support.State { return o.current }
func (o *Online) Feet() qpmat.Feet       { return o.feet }

// Cycle runs one preview cycle at time t. On failure the generator state is
// left untouched and the error is a *dynamo.CycleError.
func (o *Online) Cycle(ctx context.Context, t float64, ref dynamo.Velocity) (*CycleOutput, error) {
	out, err := o.cycleOnce(ctx, t, ref)
	if err != nil {
		return nil, &dynamo.CycleError{Cycle: o.cycle, Time: t, Wrapped: err}
	}
	o.cycle++
	return out, nil
}

func (o *Online) cycleOnce(ctx context.Context, t float64, ref dynamo.Velocity) (*CycleOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(dynamo.ErrContextCanceled, err.Error())
	}
	if !ref.Valid() {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "invalid reference %+v", ref)
	}
	if o.dirty {
		if err := o.rebuild(); err != nil {
			return nil, err
		}
	}

	n := o.opts.Horizon
	states := o.opts.Gait.Horizon(t, n, ref, o.current)
	feet := o.feet
	landed := o.land(&states[0], &feet)
	for i := 1; i < len(states); i++ {
		states[i].X, states[i].Y, states[i].Yaw = states[0].X, states[0].Y, states[0].Yaw
	}

	lay, err := o.asm.Build(o.pb, qpmat.Inputs{
		CoM:      o.com,
		Ref:      ref,
		TrunkYaw: o.yaw,
		Support:  states,
		Feet:     feet,
	})
	if err != nil {
		return nil, err
	}
	o.log.Debugw("assembled", "cycle", o.cycle, "vars", lay.NumVariables, "constraints", lay.NumConstraints,
		"steps", lay.Steps, "rebuilds", lay.Rebuilds)

	sol, err := o.pb.Solve(qp.DualActiveSet)
	if err != nil {
		return nil, err
	}
	if err := o.pb.Verify(sol.X, VerifyTolerance); err != nil {
		return nil, err
	}

	jx, jy := sol.X[0], sol.X[n]
	out := &CycleOutput{
		Time:     t,
		Support:  states[0],
		Solution: sol,
		Layout:   lay,
		Landed:   landed,
	}
	steps := lay.Steps
	for k := 0; k < steps; k++ {
		out.Footsteps = append(out.Footsteps, dynamo.FootPosition{
			Time:     t + float64(lay.Selection.StepRows[k]+1)*o.opts.Period,
			X:        sol.X[2*n+k],
			Y:        sol.X[2*n+steps+k],
			Yaw:      lay.Selection.Angles[k],
			StepType: states[lay.Selection.StepRows[k]+1].StepType(),
		})
	}

	stepType := states[0].StepType()
	for j := 0; j < o.ratio; j++ {
		tau := float64(j+1) * o.opts.OutputPeriod
		x := o.model.Sample(o.com, jx, jy, tau)
		px, py := o.model.CoP(x)
		yaw := o.yaw + ref.Yaw*tau
		com := dynamo.CoMState{X: x.X(), Y: x.Y(), Yaw: yaw}
		zmp := dynamo.ZMPSample{Px: px, Py: py, Theta: yaw, StepType: stepType}
		out.CoM = append(out.CoM, com)
		out.ZMP = append(out.ZMP, zmp)
		for _, m := range o.metrics {
			m.Observe(com, zmp, t+tau)
		}
		for _, b := range o.observers {
			b.OnSample(com, zmp, t+tau)
		}
	}

	o.com = o.model.Step(o.com, jx, jy)
	o.yaw += ref.Yaw * o.opts.Period
	o.current = states[0]
	o.feet = feet
	o.next = nil
	if steps > 0 {
		f := out.Footsteps[0]
		o.next = &f
	}
	return out, nil
}

// land applies a support switch happening at the start of the cycle: the
// foot touching down goes to the first footstep chosen by the previous
// cycle.
func (o *Online) land(cur *support.State, feet *qpmat.Feet) *dynamo.FootPosition {
	if !cur.StateChanged {
		return nil
	}
	prev := o.current
	var touch dynamo.FootPosition
	switch {
	case prev.Phase.Single() && cur.Phase.Single():
		touch = o.touchdown(cur.Foot, feet)
		cur.X, cur.Y, cur.Yaw = touch.X, touch.Y, touch.Yaw
	case prev.Phase.Single():
		touch = o.touchdown(cur.Foot.Other(), feet)
	case cur.Phase.Single():
		// leaving double support: the support foot is already down
		f := feet.Get(cur.Foot)
		cur.X, cur.Y, cur.Yaw = f.X, f.Y, f.Yaw
		feet.Left.StepType, feet.Right.StepType = cur.StepType(), cur.StepType()
		return nil
	default:
		return nil
	}
	feet.Left.StepType, feet.Right.StepType = cur.StepType(), cur.StepType()
	touch.StepType = cur.StepType()
	return &touch
}

func (o *Online) touchdown(foot dynamo.Foot, feet *qpmat.Feet) dynamo.FootPosition {
	f := feet.Get(foot)
	if o.next != nil {
		f.X, f.Y, f.Yaw = o.next.X, o.next.Y, o.next.Yaw
	}
	f.Time = o.current.TimeLimit
	if foot == dynamo.LeftFoot {
		feet.Left = f
	} else {
		feet.Right = f
	}
	return f
}

// Profile returns the velocity reference at time t.
type Profile func(t float64) dynamo.Velocity

// Constant is a profile holding v forever.
func Constant(v dynamo.Velocity) Profile {
	return func(float64) dynamo.Velocity { return v }
}

// Run loops cycles from time 0 until duration. It stops at the first failed
// cycle and returns what was synthesized so far along with the error.
func (o *Online) Run(ctx context.Context, duration float64, profile Profile) (*dynamo.Result, error) {
	if duration <= 0 {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "duration must be positive, got %g", duration)
	}
	for _, m := range o.metrics {
		m.Reset()
	}
	result := &dynamo.Result{Metrics: make(map[string]float64)}

	var runErr error
	for t := 0.0; t < duration-1e-9; t += o.opts.Period {
		out, err := o.Cycle(ctx, t, profile(t))
		if err != nil {
			result.Errors = append(result.Errors, err)
			runErr = err
			break
		}
		result.Cycles++
		result.CoM = append(result.CoM, out.CoM...)
		result.ZMP = append(result.ZMP, out.ZMP...)
		for j := range out.CoM {
			result.Times = append(result.Times, t+float64(j+1)*o.opts.OutputPeriod)
		}
		if out.Landed != nil {
			result.Footsteps = append(result.Footsteps, *out.Landed)
		}
	}

	for _, m := range o.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, runErr
}
