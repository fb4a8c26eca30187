// Package preview builds the linear preview dynamics of the cart-table model:
// the stacked matrices that map an initial CoM state and a jerk sequence to
// predicted velocities, centers of pressure or jerks over a horizon.
package preview

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Gravity is the gravitational acceleration used by the cart-table model.
const Gravity = 9.81

// Target selects the quantity predicted by a Block.
type Target int

const (
	Velocity Target = iota
	CoP
	Jerk
)

func (t Target) String() string {
	switch t {
	case Velocity:
		return "velocity"
	case CoP:
		return "cop"
	case Jerk:
		return "jerk"
	}
	return "unknown"
}

// Block maps an initial single-axis state s0 and a jerk sequence u to the
// predicted target: S·s0 + U·u. UT caches the transpose of U.
type Block struct {
	Target Target
	U      *mat.Dense
	UT     *mat.Dense
	S      *mat.Dense
}

// Build returns the preview block of the given target over n steps of period
// t for a CoM at height comHeight. A comHeight of zero turns the CoP target
// into plain CoM position.
func Build(n int, t, comHeight float64, target Target) (*Block, error) {
	if n <= 0 {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "horizon must be positive, got %d", n)
	}
	if t <= 0 {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "sample period must be positive, got %g", t)
	}

	u := mat.NewDense(n, n, nil)
	s := mat.NewDense(n, 3, nil)
	hg := comHeight / Gravity

	switch target {
	case Velocity:
		for i := 0; i < n; i++ {
			k := float64(i + 1)
			s.SetRow(i, []float64{0, 1, k * t})
			for j := 0; j <= i; j++ {
				u.Set(i, j, float64(2*(i-j)+1)*t*t/2)
			}
		}
	case CoP:
		for i := 0; i < n; i++ {
			k := float64(i + 1)
			s.SetRow(i, []float64{1, k * t, k*k*t*t/2 - hg})
			for j := 0; j <= i; j++ {
				d := float64(i - j)
				u.Set(i, j, (1+3*d+3*d*d)*t*t*t/6-t*hg)
			}
		}
	case Jerk:
		for i := 0; i < n; i++ {
			u.Set(i, i, 1)
		}
	default:
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "unknown preview target %d", int(target))
	}

	ut := mat.DenseCopyOf(u.T())
	return &Block{Target: target, U: u, UT: ut, S: s}, nil
}

// Predict evaluates S·s0 + U·u for one axis.
func (b *Block) Predict(s0 [3]float64, u []float64) []float64 {
	n, _ := b.U.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(b.S, mat.NewVecDense(3, s0[:]))
	if len(u) == n {
		var ju mat.VecDense
		ju.MulVec(b.U, mat.NewVecDense(n, u))
		out.AddVec(out, &ju)
	}
	return out.RawVector().Data
}
