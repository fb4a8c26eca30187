package qpmat

import (
	"testing"

	"github.com/golang/geo/r2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/qp"
)

func rectWindow(g *WithT, start, end, cx float64) hull.Window {
	poly, err := hull.Footprint{Center: r2.Point{X: cx}, HalfWidth: 0.1, HalfHeight: 0.05}.Rectangle(0, 0)
	g.Expect(err).NotTo(HaveOccurred())
	ineqs, err := hull.CheckedInequalities(poly)
	g.Expect(err).NotTo(HaveOccurred())
	return hull.Window{Start: start, End: end, Polygon: poly, Inequalities: ineqs}
}

func TestFixedHorizonLayout(t *testing.T) {
	g := NewWithT(t)
	f, err := NewFixedHorizon(10, 0.1, 0.8, 200, 1000)
	g.Expect(err).NotTo(HaveOccurred())

	windows := []hull.Window{rectWindow(g, 0, 0.45, 0), rectWindow(g, 0.45, 5, 0.3)}
	pb, _ := qp.NewProblem(1, 1, 0)
	zero := make([]float64, 10)

	next, err := f.Build(pb, dynamo.NewState([3]float64{}, [3]float64{}), zero, zero, windows, 0, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(next).To(Equal(0))
	g.Expect(pb.NumVariables()).To(Equal(20))
	g.Expect(pb.NumConstraints()).To(Equal(40))
	for _, v := range pb.Vector(qp.VectorD) {
		g.Expect(v).To(BeZero())
	}

	// rows of steps 0..4 come from the first window, the rest are shifted
	ds := pb.Vector(qp.VectorDS)
	for r := 0; r < 20; r++ {
		g.Expect(ds[r]).To(BeNumerically(">", 0), "row %d", r)
	}
	negative := 0
	for r := 20; r < 40; r++ {
		if ds[r] < 0 {
			negative++
		}
	}
	g.Expect(negative).To(Equal(5))

	next, err = f.Build(pb, dynamo.NewState([3]float64{}, [3]float64{}), zero, zero, windows, 0.5, next)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(next).To(Equal(1))
}

func TestFixedHorizonTracksReference(t *testing.T) {
	g := NewWithT(t)
	f, err := NewFixedHorizon(20, 0.1, 0.8, 200, 1000)
	g.Expect(err).NotTo(HaveOccurred())
	windows := []hull.Window{rectWindow(g, 0, 10, 0)}

	zx := make([]float64, 20)
	zy := make([]float64, 20)
	for i := range zx {
		zx[i] = 0.05
	}
	pb, _ := qp.NewProblem(1, 1, 0)
	_, err = f.Build(pb, dynamo.NewState([3]float64{}, [3]float64{}), zx, zy, windows, 0, 0)
	g.Expect(err).NotTo(HaveOccurred())

	sol, err := pb.Solve(qp.DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(pb.Verify(sol.X, 1e-8)).To(Succeed())
	// the first jerk pushes the CoM toward the reference
	g.Expect(sol.X[0]).To(BeNumerically(">", 0))
	g.Expect(sol.X[20]).To(BeNumerically("~", 0, 1e-9))
}

func TestFixedHorizonRejectsBadReference(t *testing.T) {
	g := NewWithT(t)
	f, err := NewFixedHorizon(10, 0.1, 0.8, 200, 1000)
	g.Expect(err).NotTo(HaveOccurred())
	pb, _ := qp.NewProblem(1, 1, 0)

	_, err = f.Build(pb, dynamo.NewState([3]float64{}, [3]float64{}), make([]float64, 3), make([]float64, 10), []hull.Window{rectWindow(g, 0, 1, 0)}, 0, 0)
	g.Expect(err).To(MatchError(dynamo.ErrConfiguration))
	_, err = f.Build(pb, dynamo.NewState([3]float64{}, [3]float64{}), make([]float64, 10), make([]float64, 10), nil, 0, 0)
	g.Expect(err).To(MatchError(dynamo.ErrConfiguration))
}
