package walk

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Tunable is a generator accepting runtime parameter changes. Changes take
// effect at the next cycle.
type Tunable interface {
	SetMargins(x, y float64) error
	SetSamplePeriod(t float64) error
	SetHorizon(n int) error
}

// ApplyCommand parses one of
//
//	XY <marginX> <marginY>
//	T <period>
//	N <horizon>
//
// and forwards it to g.
func ApplyCommand(g Tunable, cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return errors.Wrap(dynamo.ErrConfiguration, "empty command")
	}
	args, err := parseArgs(fields[1:])
	if err != nil {
		return errors.Wrapf(err, "command %q", cmd)
	}

	switch fields[0] {
	case "XY":
		if len(args) != 2 {
			return errors.Wrapf(dynamo.ErrConfiguration, "XY takes 2 arguments, got %d", len(args))
		}
		return g.SetMargins(args[0], args[1])
	case "T":
		if len(args) != 1 {
			return errors.Wrapf(dynamo.ErrConfiguration, "T takes 1 argument, got %d", len(args))
		}
		return g.SetSamplePeriod(args[0])
	case "N":
		if len(args) != 1 || args[0] != float64(int(args[0])) {
			return errors.Wrapf(dynamo.ErrConfiguration, "N takes 1 integer argument")
		}
		return g.SetHorizon(int(args[0]))
	}
	return errors.Wrapf(dynamo.ErrConfiguration, "unknown command %q", fields[0])
}

func parseArgs(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrap(dynamo.ErrConfiguration, err.Error())
		}
		out[i] = v
	}
	return out, nil
}

// tuning holds the shared setters of both generators.
type tuning struct {
	opts  *Options
	dirty bool
}

func (t *tuning) SetMargins(x, y float64) error {
	if x < 0 || y < 0 {
		return errors.Wrapf(dynamo.ErrConfiguration, "negative margins (%g, %g)", x, y)
	}
	t.opts.MarginX, t.opts.MarginY = x, y
	t.dirty = true
	return nil
}

func (t *tuning) SetSamplePeriod(period float64) error {
	next := *t.opts
	next.Period = period
	if _, err := next.ratio(); err != nil {
		return err
	}
	t.opts.Period = period
	t.opts.Gait.T = period
	t.dirty = true
	return nil
}

func (t *tuning) SetHorizon(n int) error {
	if n <= 0 {
		return errors.Wrapf(dynamo.ErrConfiguration, "horizon must be positive, got %d", n)
	}
	t.opts.Horizon = n
	t.dirty = true
	return nil
}
