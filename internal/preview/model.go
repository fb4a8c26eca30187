package preview

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Model is the discretized cart-table model of both horizontal axes driven
// by piecewise constant jerk.
type Model struct {
	T         float64
	ComHeight float64
}

func NewModel(t, comHeight float64) *Model {
	return &Model{T: t, ComHeight: comHeight}
}

// A returns the 6x6 state transition, one [[1,T,T²/2],[0,1,T],[0,0,1]] block
// per axis.
func (m *Model) A() *mat.Dense {
	t := m.T
	a := mat.NewDense(dynamo.StateDim, dynamo.StateDim, nil)
	for off := 0; off < dynamo.StateDim; off += 3 {
		a.Set(off, off, 1)
		a.Set(off, off+1, t)
		a.Set(off, off+2, t*t/2)
		a.Set(off+1, off+1, 1)
		a.Set(off+1, off+2, t)
		a.Set(off+2, off+2, 1)
	}
	return a
}

// B returns the 6x2 jerk input matrix, columns for x and y jerk.
func (m *Model) B() *mat.Dense {
	t := m.T
	b := mat.NewDense(dynamo.StateDim, 2, nil)
	for axis := 0; axis < 2; axis++ {
		off := 3 * axis
		b.Set(off, axis, t*t*t/6)
		b.Set(off+1, axis, t*t/2)
		b.Set(off+2, axis, t)
	}
	return b
}

// C returns the 2x6 state-to-CoP matrix.
func (m *Model) C() *mat.Dense {
	c := mat.NewDense(2, dynamo.StateDim, nil)
	hg := m.ComHeight / Gravity
	c.Set(0, 0, 1)
	c.Set(0, 2, -hg)
	c.Set(1, 3, 1)
	c.Set(1, 5, -hg)
	return c
}

// Step advances x by one period under jerks (jx, jy): x' = A·x + B·u.
func (m *Model) Step(x dynamo.State, jx, jy float64) dynamo.State {
	var next mat.VecDense
	next.MulVec(m.A(), mat.NewVecDense(dynamo.StateDim, x.Clone()))
	var bu mat.VecDense
	bu.MulVec(m.B(), mat.NewVecDense(2, []float64{jx, jy}))
	next.AddVec(&next, &bu)
	return dynamo.State(next.RawVector().Data)
}

// CoP returns the center of pressure of state x.
func (m *Model) CoP(x dynamo.State) (px, py float64) {
	hg := m.ComHeight / Gravity
	return x[0] - hg*x[2], x[3] - hg*x[5]
}

// Sample evaluates the jerk-driven cubic at offset tau in [0, T] from x.
func (m *Model) Sample(x dynamo.State, jx, jy, tau float64) dynamo.State {
	out := make(dynamo.State, dynamo.StateDim)
	for axis, j := range [2]float64{jx, jy} {
		off := 3 * axis
		p, v, a := x[off], x[off+1], x[off+2]
		out[off] = p + v*tau + a*tau*tau/2 + j*tau*tau*tau/6
		out[off+1] = v + a*tau + j*tau*tau/2
		out[off+2] = a + j*tau
	}
	return out
}
