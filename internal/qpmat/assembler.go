// Package qpmat assembles the preview-control quadratic programs of both
// walking formulations into a qp.Problem.
//
// Decision variables of the velocity formulation are laid out as
//
//	[0, N)           x jerks
//	[N, 2N)          y jerks
//	[2N, 2N+S)       x footsteps
//	[2N+S, 2N+2S)    y footsteps
//
// where S is the number of footsteps previewed in the horizon. Constraint
// rows start with the CoP rows of every horizon step, followed by the foot
// placement rows of every footstep.
package qpmat

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/models"
	"github.com/san-kum/walkgen/internal/preview"
	"github.com/san-kum/walkgen/internal/qp"
	"github.com/san-kum/walkgen/internal/support"
)

type Objective int

const (
	JerkMin Objective = iota
	InstantVelocity
	CoPCentering
)

func (o Objective) String() string {
	switch o {
	case JerkMin:
		return "jerk"
	case InstantVelocity:
		return "velocity"
	case CoPCentering:
		return "cop"
	}
	return "unknown"
}

type Weights struct {
	Jerk, Velocity, CoP float64
}

func (w Weights) of(o Objective) float64 {
	switch o {
	case JerkMin:
		return w.Jerk
	case InstantVelocity:
		return w.Velocity
	default:
		return w.CoP
	}
}

// Inputs is everything a cycle needs besides the fixed parameters.
type Inputs struct {
	CoM      dynamo.State
	Ref      dynamo.Velocity
	TrunkYaw float64
	Support  []support.State
	Feet     Feet
}

// Layout describes where a built cycle placed its blocks.
type Layout struct {
	N, Steps       int
	NumVariables   int
	NumConstraints int
	// CoPRows[i] is the first constraint row of horizon step i, FootRows[k]
	// the first row of footstep k.
	CoPRows  []int
	FootRows []int
	// Rebuilds counts the support polygons rebuilt after a state change.
	Rebuilds  int
	Polygons  []hull.Polygon
	RefX      []float64
	RefY      []float64
	Selection *Selection
}

// Assembler builds the velocity-reference stepping problem.
type Assembler struct {
	N       int
	T       float64
	Weights Weights
	Robot   models.Robot
	Builder hull.Builder

	vel, cop, jerk *preview.Block
	invariant      *mat.Dense
}

func NewAssembler(n int, t float64, w Weights, robot models.Robot, b hull.Builder) (*Assembler, error) {
	a := &Assembler{N: n, T: t, Weights: w, Robot: robot, Builder: b}
	var err error
	if a.vel, err = preview.Build(n, t, robot.ComHeight(), preview.Velocity); err != nil {
		return nil, err
	}
	if a.cop, err = preview.Build(n, t, robot.ComHeight(), preview.CoP); err != nil {
		return nil, err
	}
	if a.jerk, err = preview.Build(n, t, robot.ComHeight(), preview.Jerk); err != nil {
		return nil, err
	}
	a.invariant = a.invariantTerm()
	return a, nil
}

func (a *Assembler) block(o Objective) *preview.Block {
	switch o {
	case JerkMin:
		return a.jerk
	case InstantVelocity:
		return a.vel
	default:
		return a.cop
	}
}

// invariantTerm is Σ w·UᵀU over the three objectives.
func (a *Assembler) invariantTerm() *mat.Dense {
	sum := mat.NewDense(a.N, a.N, nil)
	for _, o := range []Objective{JerkMin, InstantVelocity, CoPCentering} {
		b := a.block(o)
		var term mat.Dense
		term.Mul(b.UT, b.U)
		term.Scale(a.Weights.of(o), &term)
		sum.Add(sum, &term)
	}
	return sum
}

// Build clears pb and writes the whole problem of one cycle into it.
func (a *Assembler) Build(pb *qp.Problem, in Inputs) (*Layout, error) {
	if len(in.Support) != a.N+1 {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "got %d support states for a horizon of %d", len(in.Support), a.N)
	}
	if !in.CoM.IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	sel := NewSelection(in.Support, in.Feet, a.T, in.TrunkYaw, in.Ref.Yaw)
	lay := &Layout{N: a.N, Steps: sel.Steps, Selection: sel}
	lay.NumVariables = 2*a.N + 2*sel.Steps

	copIneqs, err := a.copPolygons(in, sel, lay)
	if err != nil {
		return nil, err
	}
	footIneqs, err := a.footPolygons(sel)
	if err != nil {
		return nil, err
	}

	rows := 0
	lay.CoPRows = make([]int, a.N)
	for i, q := range copIneqs {
		lay.CoPRows[i] = rows
		rows += len(q)
	}
	lay.FootRows = make([]int, sel.Steps)
	for k, q := range footIneqs {
		lay.FootRows[k] = rows
		rows += len(q)
	}
	lay.NumConstraints = rows

	if err := pb.SetDimensions(lay.NumVariables, rows, 0); err != nil {
		return nil, err
	}
	pb.Reset()
	pb.FillBounds(-qp.Unbounded, qp.Unbounded)

	if err := a.addInvariant(pb); err != nil {
		return nil, err
	}
	if err := a.addVariable(pb, in, sel, lay); err != nil {
		return nil, err
	}
	if err := a.addCoPConstraints(pb, in, sel, lay, copIneqs); err != nil {
		return nil, err
	}
	if err := a.addFootConstraints(pb, in, sel, lay, footIneqs); err != nil {
		return nil, err
	}
	return lay, nil
}

func (a *Assembler) addInvariant(pb *qp.Problem) error {
	if err := pb.AddMatrix(a.invariant, qp.MatrixQ, 0, 0); err != nil {
		return err
	}
	return pb.AddMatrix(a.invariant, qp.MatrixQ, a.N, a.N)
}

// addVariable writes the state and reference dependent terms.
func (a *Assembler) addVariable(pb *qp.Problem, in Inputs, sel *Selection, lay *Layout) error {
	n, s := a.N, sel.Steps
	lay.RefX = make([]float64, n)
	lay.RefY = make([]float64, n)
	for i := 0; i < n; i++ {
		yaw := in.TrunkYaw + in.Ref.Yaw*float64(i+1)*a.T
		c, sn := math.Cos(yaw), math.Sin(yaw)
		lay.RefX[i] = in.Ref.X*c - in.Ref.Y*sn
		lay.RefY[i] = in.Ref.Y*c + in.Ref.X*sn
	}

	axes := []struct {
		s0     [3]float64
		ref    []float64
		fc     []float64
		jerkAt int
		stepAt int
	}{
		{in.CoM.X(), lay.RefX, sel.FcX, 0, 2 * n},
		{in.CoM.Y(), lay.RefY, sel.FcY, n, 2*n + s},
	}
	wv, wc := a.Weights.Velocity, a.Weights.CoP
	for _, ax := range axes {
		// velocity tracking: wv·Uᵀ(S·x - ref)
		velErr := a.vel.Predict(ax.s0, nil)
		for i := range velErr {
			velErr[i] -= ax.ref[i]
		}
		if err := pb.AddVector(scaledMulVec(wv, a.vel.UT, velErr), qp.VectorD, ax.jerkAt); err != nil {
			return err
		}

		// CoP centering: wc·Uᵀ(S·x - fc) and -wc·Vᵀ(S·x - fc)
		copErr := a.cop.Predict(ax.s0, nil)
		for i := range copErr {
			copErr[i] -= ax.fc[i]
		}
		if err := pb.AddVector(scaledMulVec(wc, a.cop.UT, copErr), qp.VectorD, ax.jerkAt); err != nil {
			return err
		}
		if s == 0 {
			continue
		}
		if err := pb.AddVector(scaledMulVec(-wc, sel.VT, copErr), qp.VectorD, ax.stepAt); err != nil {
			return err
		}

		var utv, vtu, vtv mat.Dense
		utv.Mul(a.cop.UT, sel.V)
		utv.Scale(-wc, &utv)
		vtu.Mul(sel.VT, a.cop.U)
		vtu.Scale(-wc, &vtu)
		vtv.Mul(sel.VT, sel.V)
		vtv.Scale(wc, &vtv)
		if err := pb.AddMatrix(&utv, qp.MatrixQ, ax.jerkAt, ax.stepAt); err != nil {
			return err
		}
		if err := pb.AddMatrix(&vtu, qp.MatrixQ, ax.stepAt, ax.jerkAt); err != nil {
			return err
		}
		if err := pb.AddMatrix(&vtv, qp.MatrixQ, ax.stepAt, ax.stepAt); err != nil {
			return err
		}
	}
	return nil
}

// copPolygons returns the CoP half-planes of every horizon step, relative to
// the step's reference point (fc or its footstep).
func (a *Assembler) copPolygons(in Inputs, sel *Selection, lay *Layout) ([][]hull.Inequality, error) {
	out := make([][]hull.Inequality, a.N)
	lay.Polygons = make([]hull.Polygon, a.N)
	var (
		poly  hull.Polygon
		ineqs []hull.Inequality
	)
	for i := 0; i < a.N; i++ {
		s := in.Support[i+1]
		if i == 0 || s.StateChanged {
			var err error
			poly, err = a.copPolygon(in, sel, s, i)
			if err != nil {
				return nil, errors.Wrapf(err, "cop polygon of step %d", i)
			}
			if ineqs, err = hull.CheckedInequalities(poly); err != nil {
				return nil, errors.Wrapf(err, "cop polygon of step %d", i)
			}
			if s.StateChanged {
				lay.Rebuilds++
			}
		}
		lay.Polygons[i] = poly
		out[i] = ineqs
	}
	return out, nil
}

func (a *Assembler) footprint(foot dynamo.Foot, center r2.Point, yaw float64) hull.Footprint {
	hw, hh, _ := a.Robot.FootSize(foot)
	return hull.Footprint{Center: center, Yaw: yaw, HalfWidth: hw, HalfHeight: hh}
}

func (a *Assembler) copPolygon(in Inputs, sel *Selection, s support.State, row int) (hull.Polygon, error) {
	if k := s.StepNumber; k > 0 {
		foot := sel.Landed[k-1]
		return a.Builder.Polygon(hull.Support{
			Foot:  foot,
			Left:  a.footprint(dynamo.LeftFoot, r2.Point{}, sel.Angles[k-1]),
			Right: a.footprint(dynamo.RightFoot, r2.Point{}, sel.Angles[k-1]),
		})
	}
	if s.Phase.Single() {
		return a.Builder.Polygon(hull.Support{
			Foot:  s.Foot,
			Left:  a.footprint(dynamo.LeftFoot, r2.Point{}, s.Yaw),
			Right: a.footprint(dynamo.RightFoot, r2.Point{}, s.Yaw),
		})
	}
	l, r := in.Feet.Left, in.Feet.Right
	origin := r2.Point{X: sel.FcX[row], Y: sel.FcY[row]}
	return a.Builder.Polygon(hull.Support{
		Double: true,
		Foot:   s.Foot,
		Left:   a.footprint(dynamo.LeftFoot, r2.Point{X: l.X, Y: l.Y}.Sub(origin), l.Yaw),
		Right:  a.footprint(dynamo.RightFoot, r2.Point{X: r.X, Y: r.Y}.Sub(origin), r.Yaw),
	})
}

// footPolygons returns the placement half-planes of every footstep, relative
// to the foot it is placed from.
func (a *Assembler) footPolygons(sel *Selection) ([][]hull.Inequality, error) {
	out := make([][]hull.Inequality, sel.Steps)
	for k := 0; k < sel.Steps; k++ {
		poly := hull.PlacementRegion(sel.Landed[k]).Rotate(sel.PrevAngles[k])
		ineqs, err := hull.CheckedInequalities(poly)
		if err != nil {
			return nil, errors.Wrapf(err, "placement region of footstep %d", k+1)
		}
		out[k] = ineqs
	}
	return out, nil
}

// addCoPConstraints writes -D·U, +D·V and dc - D·S·x + D·fc, with D = -[a b]
// for each half-plane a·x + b·y + c >= 0.
func (a *Assembler) addCoPConstraints(pb *qp.Problem, in Inputs, sel *Selection, lay *Layout, ineqs [][]hull.Inequality) error {
	n, s := a.N, sel.Steps
	nr := 0
	for _, q := range ineqs {
		nr += len(q)
	}
	if nr == 0 {
		return nil
	}
	dx := mat.NewDense(nr, n, nil)
	dy := mat.NewDense(nr, n, nil)
	dc := make([]float64, nr)
	for i, q := range ineqs {
		for j, h := range q {
			r := lay.CoPRows[i] + j
			dx.Set(r, i, -h.A)
			dy.Set(r, i, -h.B)
			dc[r] = h.C
		}
	}

	for _, ax := range []struct {
		d      *mat.Dense
		s0     [3]float64
		fc     []float64
		jerkAt int
		stepAt int
	}{
		{dx, in.CoM.X(), sel.FcX, 0, 2 * n},
		{dy, in.CoM.Y(), sel.FcY, n, 2*n + s},
	} {
		var du mat.Dense
		du.Mul(ax.d, a.cop.U)
		du.Scale(-1, &du)
		if err := pb.AddMatrix(&du, qp.MatrixDU, 0, ax.jerkAt); err != nil {
			return err
		}
		if s > 0 {
			var dv mat.Dense
			dv.Mul(ax.d, sel.V)
			if err := pb.AddMatrix(&dv, qp.MatrixDU, 0, ax.stepAt); err != nil {
				return err
			}
		}
		offset := a.cop.Predict(ax.s0, nil)
		for i := range offset {
			offset[i] = ax.fc[i] - offset[i]
		}
		if err := pb.AddVector(mulVec(ax.d, offset), qp.VectorDS, 0); err != nil {
			return err
		}
	}
	return pb.AddVector(dc, qp.VectorDS, 0)
}

// addFootConstraints writes -D·Vf against the footstep variables and
// dc + D·Vcf·fc, fc being the current support foot.
func (a *Assembler) addFootConstraints(pb *qp.Problem, in Inputs, sel *Selection, lay *Layout, ineqs [][]hull.Inequality) error {
	n, s := a.N, sel.Steps
	if s == 0 {
		return nil
	}
	first := lay.FootRows[0]
	nr := lay.NumConstraints - first
	dx := mat.NewDense(nr, s, nil)
	dy := mat.NewDense(nr, s, nil)
	dc := make([]float64, nr)
	for k, q := range ineqs {
		for j, h := range q {
			r := lay.FootRows[k] - first + j
			dx.Set(r, k, -h.A)
			dy.Set(r, k, -h.B)
			dc[r] = h.C
		}
	}

	cur := in.Support[0]
	for _, ax := range []struct {
		d      *mat.Dense
		fc     float64
		stepAt int
	}{
		{dx, cur.X, 2 * n},
		{dy, cur.Y, 2*n + s},
	} {
		var dvf mat.Dense
		dvf.Mul(ax.d, sel.Vf)
		dvf.Scale(-1, &dvf)
		if err := pb.AddMatrix(&dvf, qp.MatrixDU, first, ax.stepAt); err != nil {
			return err
		}
		vcf := make([]float64, s)
		for k, v := range sel.Vcf {
			vcf[k] = v * ax.fc
		}
		if err := pb.AddVector(mulVec(ax.d, vcf), qp.VectorDS, first); err != nil {
			return err
		}
	}
	return pb.AddVector(dc, qp.VectorDS, first)
}

func mulVec(m mat.Matrix, v []float64) []float64 {
	r, _ := m.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(m, mat.NewVecDense(len(v), v))
	return out.RawVector().Data
}

func scaledMulVec(w float64, m mat.Matrix, v []float64) []float64 {
	out := mulVec(m, v)
	for i := range out {
		out[i] *= w
	}
	return out
}
