package qp

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// SolverKind selects the algorithm used by Solve.
type SolverKind int

const (
	// DualActiveSet is the Goldfarb-Idnani dual active-set method.
	DualActiveSet SolverKind = iota
)

// FailCode is the solver exit status.
type FailCode int

const (
	FailNone       FailCode = 0
	FailIterations FailCode = 1
	FailAccuracy   FailCode = 2
	FailInfeasible FailCode = 11
)

func (c FailCode) String() string {
	switch c {
	case FailNone:
		return "ok"
	case FailIterations:
		return "iteration limit reached"
	case FailAccuracy:
		return "insufficient accuracy"
	case FailInfeasible:
		return "infeasible"
	}
	return fmt.Sprintf("fail code %d", int(c))
}

// SolverError reports a nonzero fail code.
type SolverError struct {
	Code    FailCode
	Wrapped error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("qp solver: %v: %v", e.Code, e.Wrapped)
}

func (e *SolverError) Unwrap() error {
	return e.Wrapped
}

// Solution is the result of one solve.
type Solution struct {
	NumVariables   int
	NumConstraints int
	X              []float64
	ConstrLagr     []float64
	LBoundLagr     []float64
	UBoundLagr     []float64
	Fail           FailCode
	Iterations     int
}

// Solve runs the selected solver on the current problem. A nonzero fail code
// is returned as a *SolverError together with the partial solution.
func (p *Problem) Solve(kind SolverKind) (*Solution, error) {
	if kind != DualActiveSet {
		return nil, errors.Wrapf(dynamo.ErrConfiguration, "unsupported solver kind %d", int(kind))
	}
	n := p.nv
	if n == 0 {
		return nil, errors.Wrap(dynamo.ErrConfiguration, "qp has no variables")
	}

	g := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			g.SetSym(i, j, (p.q[i*p.capV+j]+p.q[j*p.capV+i])/2)
		}
	}

	dp := dualProblem{g: g, g0: p.Vector(VectorD), tol: FeasibilityTolerance}
	for r := 0; r < p.nc; r++ {
		row := make([]float64, n)
		copy(row, p.row(r))
		if r < p.neq {
			dp.ce = append(dp.ce, row)
			dp.ce0 = append(dp.ce0, p.ds[r])
		} else {
			dp.ci = append(dp.ci, row)
			dp.ci0 = append(dp.ci0, p.ds[r])
		}
	}
	type bound struct {
		idx   int
		upper bool
	}
	var bounds []bound
	for i := 0; i < n; i++ {
		if p.xl[i] > -Unbounded {
			row := make([]float64, n)
			row[i] = 1
			dp.ci = append(dp.ci, row)
			dp.ci0 = append(dp.ci0, -p.xl[i])
			bounds = append(bounds, bound{idx: i})
		}
		if p.xu[i] < Unbounded {
			row := make([]float64, n)
			row[i] = -1
			dp.ci = append(dp.ci, row)
			dp.ci0 = append(dp.ci0, p.xu[i])
			bounds = append(bounds, bound{idx: i, upper: true})
		}
	}
	dp.maxIter = 40 * (n + p.nc + len(bounds))

	res := dp.solve()
	sol := &Solution{
		NumVariables:   n,
		NumConstraints: p.nc,
		X:              res.x,
		ConstrLagr:     res.lambda[:p.nc],
		LBoundLagr:     make([]float64, n),
		UBoundLagr:     make([]float64, n),
		Fail:           res.fail,
		Iterations:     res.iter,
	}
	for k, b := range bounds {
		if b.upper {
			sol.UBoundLagr[b.idx] = res.lambda[p.nc+k]
		} else {
			sol.LBoundLagr[b.idx] = res.lambda[p.nc+k]
		}
	}

	switch sol.Fail {
	case FailNone:
		return sol, nil
	case FailInfeasible:
		return sol, &SolverError{Code: sol.Fail, Wrapped: dynamo.ErrSolverInfeasible}
	default:
		return sol, &SolverError{Code: sol.Fail, Wrapped: dynamo.ErrSolverNumeric}
	}
}

// Verify evaluates every constraint row at x. Inequality rows below -tol and
// equality rows off by more than tol are all reported.
func (p *Problem) Verify(x []float64, tol float64) error {
	if len(x) != p.nv {
		return errors.Wrapf(dynamo.ErrConfiguration, "solution has %d entries, problem has %d variables", len(x), p.nv)
	}
	var err error
	for r := 0; r < p.nc; r++ {
		val := p.ds[r]
		for c, a := range p.row(r) {
			val += a * x[c]
		}
		if (r < p.neq && math.Abs(val) > tol) || (r >= p.neq && val < -tol) {
			err = multierr.Append(err, errors.Wrapf(dynamo.ErrConstraintViolation, "row %d: %.3e", r, val))
		}
	}
	for i := 0; i < p.nv; i++ {
		if (p.xl[i] > -Unbounded && x[i] < p.xl[i]-tol) || (p.xu[i] < Unbounded && x[i] > p.xu[i]+tol) {
			err = multierr.Append(err, errors.Wrapf(dynamo.ErrConstraintViolation, "variable %d: %.3e outside [%g, %g]", i, x[i], p.xl[i], p.xu[i]))
		}
	}
	return err
}
