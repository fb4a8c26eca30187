// Package walk runs the preview-control cycle: build constraints, assemble
// the QP, solve, verify, integrate and interpolate.
package walk

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/qpmat"
	"github.com/san-kum/walkgen/internal/support"
)

// VerifyTolerance is the slack allowed on every constraint row of a solution.
const VerifyTolerance = 1e-8

type Options struct {
	Horizon      int
	Period       float64
	OutputPeriod float64
	MarginX      float64
	MarginY      float64
	FeetDistance float64

	Weights     qpmat.Weights
	Alpha, Beta float64

	Gait support.FSM
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Horizon:      cfg.Preview.Horizon,
		Period:       cfg.Preview.Period,
		OutputPeriod: cfg.Preview.OutputPeriod,
		MarginX:      cfg.Constraints.MarginX,
		MarginY:      cfg.Constraints.MarginY,
		FeetDistance: cfg.Robot.FeetDistance,
		Weights: qpmat.Weights{
			Jerk:     cfg.Weights.Jerk,
			Velocity: cfg.Weights.Velocity,
			CoP:      cfg.Weights.CoP,
		},
		Alpha: cfg.Weights.Alpha,
		Beta:  cfg.Weights.Beta,
		Gait: support.FSM{
			T:          cfg.Preview.Period,
			StepPeriod: cfg.Gait.StepPeriod,
			DSPeriod:   cfg.Gait.DSPeriod,
			DSSSPeriod: cfg.Gait.DSSSPeriod,
			StepsSSDS:  cfg.Gait.StepsSSDS,
		},
	}
}

// ratio returns the number of output samples per preview period.
func (o Options) ratio() (int, error) {
	if o.Horizon <= 0 {
		return 0, errors.Wrapf(dynamo.ErrConfiguration, "horizon must be positive, got %d", o.Horizon)
	}
	if o.Period <= 0 || o.OutputPeriod <= 0 || o.OutputPeriod > o.Period {
		return 0, errors.Wrapf(dynamo.ErrConfiguration, "bad periods T=%g output=%g", o.Period, o.OutputPeriod)
	}
	r := math.Round(o.Period / o.OutputPeriod)
	if math.Abs(r*o.OutputPeriod-o.Period) > 1e-9 {
		return 0, errors.Wrapf(dynamo.ErrConfiguration, "T=%g is not a multiple of the output period %g", o.Period, o.OutputPeriod)
	}
	return int(r), nil
}
