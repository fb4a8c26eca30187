package qpmat

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/preview"
	"github.com/san-kum/walkgen/internal/qp"
)

// FixedHorizon assembles the constrained ZMP tracking problem over a
// precomputed constraint timeline. Variables are [x jerks, y jerks].
type FixedHorizon struct {
	N         int
	T         float64
	ComHeight float64
	Alpha     float64
	Beta      float64

	vel, pos, cop *preview.Block
	q             *mat.Dense
}

func NewFixedHorizon(n int, t, comHeight, alpha, beta float64) (*FixedHorizon, error) {
	f := &FixedHorizon{N: n, T: t, ComHeight: comHeight, Alpha: alpha, Beta: beta}
	var err error
	if f.vel, err = preview.Build(n, t, comHeight, preview.Velocity); err != nil {
		return nil, err
	}
	// CoP block with zero height is the CoM position.
	if f.pos, err = preview.Build(n, t, 0, preview.CoP); err != nil {
		return nil, err
	}
	if f.cop, err = preview.Build(n, t, comHeight, preview.CoP); err != nil {
		return nil, err
	}

	var vv, pp mat.Dense
	vv.Mul(f.vel.UT, f.vel.U)
	vv.Scale(alpha, &vv)
	pp.Mul(f.pos.UT, f.pos.U)
	pp.Scale(beta, &pp)
	f.q = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		f.q.Set(i, i, 1)
	}
	f.q.Add(f.q, &vv)
	f.q.Add(f.q, &pp)
	return f, nil
}

// CoP returns the CoP preview block used by the constraints.
func (f *FixedHorizon) CoP() *preview.Block { return f.cop }

// Build writes the problem starting at time start. zrefX and zrefY hold the
// N reference ZMP samples of the horizon. from is the first window to search;
// the window active at start is returned for the next cycle.
func (f *FixedHorizon) Build(pb *qp.Problem, x dynamo.State, zrefX, zrefY []float64, windows []hull.Window, start float64, from int) (int, error) {
	n := f.N
	if len(zrefX) != n || len(zrefY) != n {
		return from, errors.Wrapf(dynamo.ErrConfiguration, "zmp reference has %d/%d samples, horizon is %d", len(zrefX), len(zrefY), n)
	}
	if len(windows) == 0 {
		return from, errors.Wrap(dynamo.ErrConfiguration, "empty constraint timeline")
	}

	active := make([]int, n)
	rows := 0
	next := from
	for i := 0; i < n; i++ {
		w, err := hull.Lookup(windows, next, start+float64(i)*f.T)
		if err != nil {
			return from, err
		}
		if i == 0 {
			next = w
		}
		active[i] = w
		rows += len(windows[w].Inequalities)
	}

	if err := pb.SetDimensions(2*n, rows, 0); err != nil {
		return from, err
	}
	pb.Reset()
	pb.FillBounds(-qp.Unbounded, qp.Unbounded)

	if err := pb.AddMatrix(f.q, qp.MatrixQ, 0, 0); err != nil {
		return from, err
	}
	if err := pb.AddMatrix(f.q, qp.MatrixQ, n, n); err != nil {
		return from, err
	}

	sx, sy := x.X(), x.Y()
	for _, ax := range []struct {
		s0   [3]float64
		zref []float64
		at   int
	}{
		{sx, zrefX, 0},
		{sy, zrefY, n},
	} {
		vs := f.vel.Predict(ax.s0, nil)
		ps := f.pos.Predict(ax.s0, nil)
		for i := range ps {
			ps[i] -= ax.zref[i]
		}
		d := scaledMulVec(f.Alpha, f.vel.UT, vs)
		dp := scaledMulVec(f.Beta, f.pos.UT, ps)
		for i := range d {
			d[i] += dp[i]
		}
		if err := pb.AddVector(d, qp.VectorD, ax.at); err != nil {
			return from, err
		}
	}

	// a·(Sx + U·ux) + b·(Sy + U·uy) + c >= 0
	du := mat.NewDense(rows, 2*n, nil)
	ds := make([]float64, rows)
	cx := f.cop.Predict(sx, nil)
	cy := f.cop.Predict(sy, nil)
	r := 0
	for i := 0; i < n; i++ {
		for _, h := range windows[active[i]].Inequalities {
			for j := 0; j <= i; j++ {
				u := f.cop.U.At(i, j)
				du.Set(r, j, h.A*u)
				du.Set(r, n+j, h.B*u)
			}
			ds[r] = h.A*cx[i] + h.B*cy[i] + h.C
			r++
		}
	}
	if err := pb.AddMatrix(du, qp.MatrixDU, 0, 0); err != nil {
		return from, err
	}
	if err := pb.AddVector(ds, qp.VectorDS, 0); err != nil {
		return from, err
	}
	return next, nil
}
