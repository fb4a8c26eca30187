package qp

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// twoVar builds min ½|x|² - x1 - x2, whose free minimum is (1, 1).
func twoVar(t *testing.T, nc, neq int) *Problem {
	t.Helper()
	p, err := NewProblem(2, nc, neq)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddMatrix(mat.NewDiagDense(2, []float64{1, 1}), MatrixQ, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.AddVector([]float64{-1, -1}, VectorD, 0); err != nil {
		t.Fatal(err)
	}
	p.FillBounds(-Unbounded, Unbounded)
	return p
}

func TestSolveUnconstrained(t *testing.T) {
	g := NewWithT(t)
	p := twoVar(t, 0, 0)
	sol, err := p.Solve(DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sol.X[0]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(sol.X[1]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(sol.Fail).To(Equal(FailNone))
}

func TestSolveActiveInequality(t *testing.T) {
	g := NewWithT(t)
	p := twoVar(t, 1, 0)
	// x1 + x2 <= 1
	g.Expect(p.AddMatrix(mat.NewDense(1, 2, []float64{-1, -1}), MatrixDU, 0, 0)).To(Succeed())
	g.Expect(p.AddVector([]float64{1}, VectorDS, 0)).To(Succeed())

	sol, err := p.Solve(DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sol.X[0]).To(BeNumerically("~", 0.5, 1e-12))
	g.Expect(sol.X[1]).To(BeNumerically("~", 0.5, 1e-12))
	g.Expect(sol.ConstrLagr[0]).To(BeNumerically("~", 0.5, 1e-12))
	g.Expect(p.Verify(sol.X, 1e-8)).To(Succeed())
}

func TestSolveEquality(t *testing.T) {
	g := NewWithT(t)
	p := twoVar(t, 2, 1)
	// x1 - x2 = 0.2, and an inactive x1 <= 5
	g.Expect(p.AddMatrix(mat.NewDense(2, 2, []float64{1, -1, -1, 0}), MatrixDU, 0, 0)).To(Succeed())
	g.Expect(p.AddVector([]float64{-0.2, 5}, VectorDS, 0)).To(Succeed())

	sol, err := p.Solve(DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sol.X[0]).To(BeNumerically("~", 1.1, 1e-12))
	g.Expect(sol.X[1]).To(BeNumerically("~", 0.9, 1e-12))
	g.Expect(sol.ConstrLagr[1]).To(Equal(0.0))
}

func TestSolveUpperBound(t *testing.T) {
	g := NewWithT(t)
	p := twoVar(t, 0, 0)
	p.xu[0] = 0.3

	sol, err := p.Solve(DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sol.X[0]).To(BeNumerically("~", 0.3, 1e-12))
	g.Expect(sol.X[1]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(sol.UBoundLagr[0]).To(BeNumerically("~", 0.7, 1e-12))
	g.Expect(sol.LBoundLagr[0]).To(Equal(0.0))
}

func TestSolveInfeasible(t *testing.T) {
	g := NewWithT(t)
	p := twoVar(t, 2, 0)
	// x1 >= 1 and x1 <= 0
	g.Expect(p.AddMatrix(mat.NewDense(2, 2, []float64{1, 0, -1, 0}), MatrixDU, 0, 0)).To(Succeed())
	g.Expect(p.AddVector([]float64{-1, 0}, VectorDS, 0)).To(Succeed())

	sol, err := p.Solve(DualActiveSet)
	g.Expect(sol).NotTo(BeNil())
	g.Expect(sol.Fail).To(Equal(FailInfeasible))
	g.Expect(errors.Is(err, dynamo.ErrSolverInfeasible)).To(BeTrue())

	var serr *SolverError
	g.Expect(errors.As(err, &serr)).To(BeTrue())
	g.Expect(serr.Code).To(Equal(FailInfeasible))
}

func TestSolveNotPositiveDefinite(t *testing.T) {
	p, _ := NewProblem(2, 0, 0)
	_, err := p.Solve(DualActiveSet)
	if !errors.Is(err, dynamo.ErrSolverNumeric) {
		t.Errorf("got %v, want ErrSolverNumeric", err)
	}
}

func TestSolveUnknownKind(t *testing.T) {
	p := twoVar(t, 0, 0)
	if _, err := p.Solve(SolverKind(3)); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}

func TestVerifyReportsEveryViolation(t *testing.T) {
	g := NewWithT(t)
	p := twoVar(t, 3, 0)
	g.Expect(p.AddMatrix(mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1}), MatrixDU, 0, 0)).To(Succeed())

	g.Expect(p.Verify([]float64{0, 0}, 1e-8)).To(Succeed())
	g.Expect(p.Verify([]float64{-1e-9, 0}, 1e-8)).To(Succeed())

	err := p.Verify([]float64{-1, -1}, 1e-8)
	g.Expect(errors.Is(err, dynamo.ErrConstraintViolation)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("row 0"))
	g.Expect(err.Error()).To(ContainSubstring("row 2"))
}

func TestSolveManyTangentsMeetsTolerance(t *testing.T) {
	g := NewWithT(t)
	const nc = 240
	p := twoVar(t, nc, 0)
	// pull the minimum out to (3, 2) and keep x inside a polygon tangent to
	// the unit circle: cos·x1 + sin·x2 <= 1
	g.Expect(p.AddVector([]float64{-2, -1}, VectorD, 0)).To(Succeed())
	du := mat.NewDense(nc, 2, nil)
	ds := make([]float64, nc)
	for i := 0; i < nc; i++ {
		a := 2 * math.Pi * float64(i) / nc
		du.Set(i, 0, -math.Cos(a))
		du.Set(i, 1, -math.Sin(a))
		ds[i] = 1
	}
	g.Expect(p.AddMatrix(du, MatrixDU, 0, 0)).To(Succeed())
	g.Expect(p.AddVector(ds, VectorDS, 0)).To(Succeed())

	sol, err := p.Solve(DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.Verify(sol.X, 10*FeasibilityTolerance)).To(Succeed())
	g.Expect(math.Hypot(sol.X[0], sol.X[1])).To(BeNumerically("~", 1, 1e-3))
}
