package qp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const machEps = 2.220446049250313e-16

// FeasibilityTolerance is the largest inequality violation the solver
// accepts before it stops.
const FeasibilityTolerance = 1e-10

// dualProblem is min ½xᵀGx + g0ᵀx s.t. ce·x + ce0 = 0, ci·x + ci0 >= 0,
// with constraints stored as rows.
type dualProblem struct {
	g       *mat.SymDense
	g0      []float64
	ce      [][]float64
	ce0     []float64
	ci      [][]float64
	ci0     []float64
	maxIter int
	// tol bounds the violation of any inequality in an ok result.
	tol float64
}

type dualResult struct {
	x      []float64
	lambda []float64 // equalities then inequalities
	iter   int
	fail   FailCode
}

// dualState carries the factorizations of the Goldfarb-Idnani iterations.
// J starts as L⁻ᵀ with G = L·Lᵀ and R is the upper triangular factor of the
// active constraint normals in the J basis.
type dualState struct {
	n     int
	j     [][]float64
	r     [][]float64
	rNorm float64
	// active set: indices into the constraint list, equalities are -i-1
	active []int
	u      []float64
	iq     int
}

func newSquare(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func (p dualProblem) solve() dualResult {
	n := p.g.SymmetricDim()
	neq, nin := len(p.ce), len(p.ci)
	res := dualResult{x: make([]float64, n), lambda: make([]float64, neq+nin)}

	var chol mat.Cholesky
	if ok := chol.Factorize(p.g); !ok {
		res.fail = FailAccuracy
		return res
	}
	var l, linv mat.TriDense
	chol.LTo(&l)
	if err := linv.InverseTri(&l); err != nil {
		res.fail = FailAccuracy
		return res
	}

	st := &dualState{
		n:      n,
		j:      newSquare(n),
		r:      newSquare(n),
		rNorm:  1,
		active: make([]int, neq+nin+1),
		u:      make([]float64, neq+nin+1),
	}
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			st.j[i][k] = linv.At(k, i)
		}
	}

	// unconstrained minimum
	var xv mat.VecDense
	if err := chol.SolveVecTo(&xv, mat.NewVecDense(n, append([]float64(nil), p.g0...))); err != nil {
		res.fail = FailAccuracy
		return res
	}
	x := res.x
	for i := 0; i < n; i++ {
		x[i] = -xv.AtVec(i)
	}

	d := make([]float64, n)
	z := make([]float64, n)
	rv := make([]float64, neq+nin+1)

	for i := 0; i < neq; i++ {
		np := p.ce[i]
		st.computeD(d, np)
		st.updateZ(z, d)
		st.updateR(rv, d)
		t2 := 0.0
		if math.Abs(floats.Dot(z, z)) > machEps {
			t2 = (-floats.Dot(np, x) - p.ce0[i]) / floats.Dot(z, np)
		}
		floats.AddScaled(x, t2, z)
		st.u[st.iq] = t2
		for k := 0; k < st.iq; k++ {
			st.u[k] -= t2 * rv[k]
		}
		st.active[i] = -i - 1
		if !st.addConstraint(d) {
			// linearly dependent equalities
			res.fail = FailAccuracy
			return res
		}
	}

	s := make([]float64, nin)
	iai := make([]int, nin)
	excl := make([]bool, nin)
	for i := range iai {
		iai[i] = i
	}
	uOld := make([]float64, neq+nin+1)
	aOld := make([]int, neq+nin+1)
	xOld := make([]float64, n)

	for {
		res.iter++
		if res.iter > p.maxIter {
			res.fail = FailIterations
			break
		}
		for i := neq; i < st.iq; i++ {
			iai[st.active[i]] = -1
		}

		worst := 0.0
		for i := 0; i < nin; i++ {
			excl[i] = true
			s[i] = floats.Dot(p.ci[i], x) + p.ci0[i]
			worst = math.Min(worst, s[i])
		}
		if worst >= -p.tol {
			break
		}
		copy(uOld[:st.iq], st.u[:st.iq])
		copy(aOld[:st.iq], st.active[:st.iq])
		copy(xOld, x)

		done, fail := p.chooseAndStep(st, x, s, iai, excl, d, z, rv, uOld, aOld, xOld)
		if fail != FailNone {
			res.fail = fail
			break
		}
		if done {
			break
		}
	}

	for k := 0; k < st.iq; k++ {
		a := st.active[k]
		if a < 0 {
			res.lambda[-a-1] = st.u[k]
		} else {
			res.lambda[neq+a] = st.u[k]
		}
	}
	return res
}

// chooseAndStep picks the most violated inequality and steps until it is
// satisfied or dropped. It reports done when no constraint is violated.
func (p dualProblem) chooseAndStep(st *dualState, x, s []float64, iai []int, excl []bool,
	d, z, rv, uOld []float64, aOld []int, xOld []float64) (bool, FailCode) {
	neq, nin := len(p.ce), len(p.ci)
	inf := math.Inf(1)

choose:
	ss, ip := -p.tol, -1
	for i := 0; i < nin; i++ {
		if s[i] < ss && iai[i] != -1 && excl[i] {
			ss, ip = s[i], i
		}
	}
	if ip < 0 {
		return true, FailNone
	}
	np := p.ci[ip]
	st.u[st.iq] = 0
	st.active[st.iq] = ip

	for {
		st.computeD(d, np)
		st.updateZ(z, d)
		st.updateR(rv, d)

		// dual step length
		t1, l := inf, 0
		for k := neq; k < st.iq; k++ {
			if rv[k] > 0 && st.u[k]/rv[k] < t1 {
				t1 = st.u[k] / rv[k]
				l = st.active[k]
			}
		}
		// primal step length
		t2 := inf
		if math.Abs(floats.Dot(z, z)) > machEps {
			t2 = -s[ip] / floats.Dot(z, np)
			if t2 < 0 {
				t2 = inf
			}
		}
		t := math.Min(t1, t2)
		if math.IsInf(t, 1) {
			return false, FailInfeasible
		}

		if math.IsInf(t2, 1) {
			// dual step only
			for k := 0; k < st.iq; k++ {
				st.u[k] -= t * rv[k]
			}
			st.u[st.iq] += t
			iai[l] = l
			st.deleteConstraint(neq, l)
			continue
		}

		floats.AddScaled(x, t, z)
		for k := 0; k < st.iq; k++ {
			st.u[k] -= t * rv[k]
		}
		st.u[st.iq] += t

		if math.Abs(t-t2) < machEps {
			// full step
			if !st.addConstraint(d) {
				excl[ip] = false
				st.deleteConstraint(neq, ip)
				for i := 0; i < nin; i++ {
					iai[i] = i
				}
				for i := neq; i < st.iq; i++ {
					st.active[i] = aOld[i]
					st.u[i] = uOld[i]
					iai[st.active[i]] = -1
				}
				copy(x, xOld)
				goto choose
			}
			iai[ip] = -1
			return false, FailNone
		}

		// partial step
		iai[l] = l
		st.deleteConstraint(neq, l)
		s[ip] = floats.Dot(np, x) + p.ci0[ip]
	}
}

// computeD sets d = Jᵀ·np.
func (st *dualState) computeD(d, np []float64) {
	for i := 0; i < st.n; i++ {
		sum := 0.0
		for k := 0; k < st.n; k++ {
			sum += st.j[k][i] * np[k]
		}
		d[i] = sum
	}
}

// updateZ sets the primal step direction z = J₂·d₂.
func (st *dualState) updateZ(z, d []float64) {
	for i := 0; i < st.n; i++ {
		sum := 0.0
		for k := st.iq; k < st.n; k++ {
			sum += st.j[i][k] * d[k]
		}
		z[i] = sum
	}
}

// updateR solves R·r = d₁ for the dual step direction.
func (st *dualState) updateR(r, d []float64) {
	for i := st.iq - 1; i >= 0; i-- {
		sum := 0.0
		for k := i + 1; k < st.iq; k++ {
			sum += st.r[i][k] * r[k]
		}
		r[i] = (d[i] - sum) / st.r[i][i]
	}
}

func (st *dualState) addConstraint(d []float64) bool {
	n := st.n
	for j := n - 1; j >= st.iq+1; j-- {
		cc, ss := d[j-1], d[j]
		h := math.Hypot(cc, ss)
		if h == 0 {
			continue
		}
		d[j] = 0
		ss /= h
		cc /= h
		if cc < 0 {
			cc, ss = -cc, -ss
			d[j-1] = -h
		} else {
			d[j-1] = h
		}
		xny := ss / (1 + cc)
		for k := 0; k < n; k++ {
			t1, t2 := st.j[k][j-1], st.j[k][j]
			st.j[k][j-1] = t1*cc + t2*ss
			st.j[k][j] = xny*(t1+st.j[k][j-1]) - t2
		}
	}
	st.iq++
	for i := 0; i < st.iq; i++ {
		st.r[i][st.iq-1] = d[i]
	}
	if math.Abs(d[st.iq-1]) <= machEps*st.rNorm {
		return false
	}
	st.rNorm = math.Max(st.rNorm, math.Abs(d[st.iq-1]))
	return true
}

func (st *dualState) deleteConstraint(neq, l int) {
	n := st.n
	qq := -1
	for i := neq; i < st.iq; i++ {
		if st.active[i] == l {
			qq = i
			break
		}
	}
	if qq < 0 {
		return
	}
	for i := qq; i < st.iq-1; i++ {
		st.active[i] = st.active[i+1]
		st.u[i] = st.u[i+1]
		for k := 0; k < n; k++ {
			st.r[k][i] = st.r[k][i+1]
		}
	}
	st.active[st.iq-1] = st.active[st.iq]
	st.u[st.iq-1] = st.u[st.iq]
	st.active[st.iq] = 0
	st.u[st.iq] = 0
	for k := 0; k < st.iq; k++ {
		st.r[k][st.iq-1] = 0
	}
	st.iq--
	if st.iq == 0 {
		return
	}
	for j := qq; j < st.iq; j++ {
		cc, ss := st.r[j][j], st.r[j+1][j]
		h := math.Hypot(cc, ss)
		if h == 0 {
			continue
		}
		cc /= h
		ss /= h
		st.r[j+1][j] = 0
		if cc < 0 {
			st.r[j][j] = -h
			cc, ss = -cc, -ss
		} else {
			st.r[j][j] = h
		}
		xny := ss / (1 + cc)
		for k := j + 1; k < st.iq; k++ {
			t1, t2 := st.r[j][k], st.r[j+1][k]
			st.r[j][k] = t1*cc + t2*ss
			st.r[j+1][k] = xny*(t1+st.r[j][k]) - t2
		}
		for k := 0; k < n; k++ {
			t1, t2 := st.j[k][j], st.j[k][j+1]
			st.j[k][j] = t1*cc + t2*ss
			st.j[k][j+1] = xny*(st.j[k][j]+t1) - t2
		}
	}
}
