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
)

// FixedHorizon tracks a precomputed ZMP reference under the support
// polygons of a precomputed foot plan.
type FixedHorizon struct {
	tuning
	opts  Options
	robot models.Robot
	log   *zap.SugaredLogger

	// Start is the initial CoM state. When nil the CoM starts at rest above
	// the first reference sample.
	Start dynamo.State
}

func NewFixedHorizon(robot models.Robot, opts Options, log *zap.SugaredLogger) (*FixedHorizon, error) {
	if _, err := opts.ratio(); err != nil {
		return nil, err
	}
	g := &FixedHorizon{opts: opts, robot: robot, log: logging.OrNop(log)}
	g.tuning.opts = &g.opts
	return g, nil
}

func (g *FixedHorizon) Options() Options { return g.opts }

// Build synthesizes one CoM and one ZMP sample per reference sample. left
// and right are the foot trajectories sampled at the output period.
func (g *FixedHorizon) Build(ctx context.Context, left, right []dynamo.FootPosition, zmpRef []dynamo.ZMPSample) ([]dynamo.CoMState, []dynamo.ZMPSample, error) {
	interval, err := g.opts.ratio()
	if err != nil {
		return nil, nil, err
	}
	if len(zmpRef) == 0 {
		return nil, nil, errors.Wrap(dynamo.ErrConfiguration, "empty zmp reference")
	}
	n, period, out := g.opts.Horizon, g.opts.Period, g.opts.OutputPeriod
	h := g.robot.ComHeight()

	lw, lh, _ := g.robot.FootSize(dynamo.LeftFoot)
	rw, rh, _ := g.robot.FootSize(dynamo.RightFoot)
	windows, err := hull.BuildTimeline(left, right,
		hull.Size{HalfWidth: lw, HalfHeight: lh}, hull.Size{HalfWidth: rw, HalfHeight: rh},
		hull.FixedBuilder{MarginX: g.opts.MarginX, MarginY: g.opts.MarginY})
	if err != nil {
		return nil, nil, err
	}
	asm, err := qpmat.NewFixedHorizon(n, period, h, g.opts.Alpha, g.opts.Beta)
	if err != nil {
		return nil, nil, err
	}
	model := preview.NewModel(period, h)
	pb, err := qp.NewProblem(2*n, 4*n, 0)
	if err != nil {
		return nil, nil, err
	}

	x := g.Start.Clone()
	if g.Start == nil {
		x = dynamo.NewState([3]float64{zmpRef[0].Px, 0, 0}, [3]float64{zmpRef[0].Py, 0, 0})
	}

	end := float64(len(zmpRef)) * out
	com := make([]dynamo.CoMState, 0, len(zmpRef))
	zmp := make([]dynamo.ZMPSample, 0, len(zmpRef))
	zx, zy := make([]float64, n), make([]float64, n)
	from := 0

	for li := 0; float64(li)*period < end-float64(n)*period-1e-9; li++ {
		start := float64(li) * period
		if err := ctx.Err(); err != nil {
			return com, zmp, &dynamo.CycleError{Cycle: li, Time: start, Wrapped: errors.Wrap(dynamo.ErrContextCanceled, err.Error())}
		}
		for i := 0; i < n; i++ {
			ref := zmpRef[(li+i)*interval]
			zx[i], zy[i] = ref.Px, ref.Py
		}

		err := func() error {
			var err error
			if from, err = asm.Build(pb, x, zx, zy, windows, start, from); err != nil {
				return err
			}
			sol, err := pb.Solve(qp.DualActiveSet)
			if err != nil {
				return err
			}
			if err := pb.Verify(sol.X, VerifyTolerance); err != nil {
				return err
			}
			jx, jy := sol.X[0], sol.X[n]
			for lk := 0; lk < interval; lk++ {
				xs := model.Sample(x, jx, jy, float64(lk+1)*out)
				px, py := model.CoP(xs)
				ref := zmpRef[li*interval+lk]
				com = append(com, dynamo.CoMState{X: xs.X(), Y: xs.Y(), Yaw: ref.Theta})
				zmp = append(zmp, dynamo.ZMPSample{Px: px, Py: py, Theta: ref.Theta, StepType: ref.StepType})
			}
			x = model.Step(x, jx, jy)
			return nil
		}()
		if err != nil {
			return com, zmp, &dynamo.CycleError{Cycle: li, Time: start, Wrapped: err}
		}
		g.log.Debugw("cycle", "index", li, "constraints", pb.NumConstraints())
	}

	com, zmp, err = g.pad(com, zmp, len(zmpRef), n*interval, interval)
	return com, zmp, err
}

// pad repeats the last samples up to the reference length. The tail left
// by the preview must be within one period of the horizon length.
func (g *FixedHorizon) pad(com []dynamo.CoMState, zmp []dynamo.ZMPSample, want, expected, interval int) ([]dynamo.CoMState, []dynamo.ZMPSample, error) {
	missing := want - len(zmp)
	if missing < 0 || int(math.Abs(float64(missing-expected))) > interval {
		return com, zmp, errors.Wrapf(dynamo.ErrConfiguration, "%d samples left to pad, expected %d±%d", missing, expected, interval)
	}
	if len(zmp) == 0 {
		return com, zmp, errors.Wrap(dynamo.ErrConfiguration, "reference shorter than the preview horizon")
	}
	if missing != expected {
		g.log.Warnw("padding differs from horizon length", "missing", missing, "expected", expected)
	}
	lastCoM, lastZMP := com[len(com)-1], zmp[len(zmp)-1]
	for i := 0; i < missing; i++ {
		com = append(com, lastCoM)
		zmp = append(zmp, lastZMP)
	}
	return com, zmp, nil
}
