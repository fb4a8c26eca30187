// Package footplan generates straight-walk foot trajectories and the matching
// ZMP reference for the fixed-horizon generator.
package footplan

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
)

type Plan struct {
	Steps        int
	StepLength   float64
	StepHeight   float64
	SingleTime   float64
	DoubleTime   float64
	FeetDistance float64
	// Initial and Final are the double support phases around the walk.
	Initial, Final float64
	Period         float64
}

func FromConfig(cfg *config.Config) Plan {
	return Plan{
		Steps:        cfg.Plan.Steps,
		StepLength:   cfg.Plan.StepLength,
		StepHeight:   cfg.Plan.StepHeight,
		SingleTime:   cfg.Plan.SingleTime,
		DoubleTime:   cfg.Plan.DoubleTime,
		FeetDistance: cfg.Robot.FeetDistance,
		Initial:      1,
		// the final phase has to outlast the preview horizon
		Final:  1 + float64(cfg.Preview.Horizon)*cfg.Preview.Period,
		Period: cfg.Preview.OutputPeriod,
	}
}

// Trajectories are the sampled outputs of a plan.
type Trajectories struct {
	Left, Right []dynamo.FootPosition
	ZMP         []dynamo.ZMPSample
}

func (t *Trajectories) Len() int { return len(t.ZMP) }

func (p Plan) validate() error {
	switch {
	case p.Period <= 0:
		return errors.Wrapf(dynamo.ErrConfiguration, "sample period must be positive, got %g", p.Period)
	case p.Steps < 0:
		return errors.Wrapf(dynamo.ErrConfiguration, "negative step count %d", p.Steps)
	case p.SingleTime <= 0 || p.DoubleTime < 0 || p.Initial < 0 || p.Final < 0:
		return errors.Wrap(dynamo.ErrConfiguration, "phase durations must be positive")
	case p.FeetDistance <= 0:
		return errors.Wrapf(dynamo.ErrConfiguration, "feet distance must be positive, got %g", p.FeetDistance)
	}
	return nil
}

func (p Plan) ticks(d float64) int {
	return int(math.Round(d / p.Period))
}

// Generate samples the plan. The right foot swings first; every step moves
// the swing foot StepLength past the support foot, the last one closes the
// feet side by side.
func (p Plan) Generate() (*Trajectories, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	half := p.FeetDistance / 2
	left := dynamo.FootPosition{Y: half}
	right := dynamo.FootPosition{Y: -half}
	tr := &Trajectories{}

	emit := func(zx, zy float64, stepType int) {
		t := float64(tr.Len()) * p.Period
		l, r := left, right
		l.Time, r.Time = t, t
		l.StepType, r.StepType = stepType, stepType
		tr.Left = append(tr.Left, l)
		tr.Right = append(tr.Right, r)
		tr.ZMP = append(tr.ZMP, dynamo.ZMPSample{Px: zx, Py: zy, StepType: stepType})
	}
	// shift moves the ZMP linearly from a to b during a double support.
	shift := func(ax, ay, bx, by float64, n int) {
		for i := 0; i < n; i++ {
			s := float64(i+1) / float64(n)
			emit(ax+(bx-ax)*s, ay+(by-ay)*s, dynamo.StepDouble)
		}
	}

	for i := p.ticks(p.Initial); i > 0; i-- {
		emit(0, 0, dynamo.StepDouble)
	}
	zx, zy := 0.0, 0.0

	swingRight := true
	for k := 0; k < p.Steps; k++ {
		swing, stance := &right, &left
		stepType := dynamo.StepLeft
		if !swingRight {
			swing, stance = &left, &right
			stepType = dynamo.StepRight
		}
		shift(zx, zy, stance.X, stance.Y, p.ticks(p.DoubleTime))
		zx, zy = stance.X, stance.Y

		from := swing.X
		to := stance.X + p.StepLength
		if k == p.Steps-1 {
			to = stance.X
		}
		n := p.ticks(p.SingleTime)
		for i := 0; i < n; i++ {
			s := float64(i+1) / float64(n)
			swing.X = from + (to-from)*(1-math.Cos(math.Pi*s))/2
			swing.Z = p.StepHeight * math.Sin(math.Pi*s)
			if i == n-1 {
				swing.Z = 0
			}
			emit(zx, zy, stepType)
		}
		swingRight = !swingRight
	}

	shift(zx, zy, (left.X+right.X)/2, (left.Y+right.Y)/2, p.ticks(p.DoubleTime))
	zx, zy = (left.X+right.X)/2, (left.Y+right.Y)/2
	for i := p.ticks(p.Final); i > 0; i-- {
		emit(zx, zy, dynamo.StepDouble)
	}
	return tr, nil
}
