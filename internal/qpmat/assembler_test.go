package qpmat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/hull"
	"github.com/san-kum/walkgen/internal/models"
	"github.com/san-kum/walkgen/internal/qp"
	"github.com/san-kum/walkgen/internal/support"
)

var testWeights = Weights{Jerk: 1e-5, Velocity: 1, CoP: 10}

func newTestAssembler(t *testing.T, n int, period float64) *Assembler {
	t.Helper()
	robot := models.NewBiped()
	robot.CoMHeight = 0.8
	a, err := NewAssembler(n, period, testWeights, robot, hull.GeneralBuilder{MarginX: 0.02, MarginY: 0.02})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func standingFeet() Feet {
	return Feet{
		Left:  dynamo.FootPosition{Y: 0.1, StepType: dynamo.StepDouble},
		Right: dynamo.FootPosition{Y: -0.1, StepType: dynamo.StepDouble},
	}
}

// walkingInputs switches from left to right support at horizon index 40.
func walkingInputs(n int, period float64) Inputs {
	fsm := support.DefaultFSM(period)
	current := support.State{
		Phase:     support.LeftSupport,
		Foot:      dynamo.LeftFoot,
		Y:         0.1,
		TimeLimit: 0.8,
	}
	ref := dynamo.Velocity{X: 0.2}
	return Inputs{
		CoM:     dynamo.NewState([3]float64{0, 0.05, 0}, [3]float64{0.1, 0, 0}),
		Ref:     ref,
		Support: fsm.Horizon(0, n, ref, current),
		Feet:    standingFeet(),
	}
}

func snapshot(pb *qp.Problem) map[string]any {
	return map[string]any{
		"Q":  pb.Matrix(qp.MatrixQ).RawMatrix().Data,
		"DU": pb.Matrix(qp.MatrixDU).RawMatrix().Data,
		"D":  pb.Vector(qp.VectorD),
		"DS": pb.Vector(qp.VectorDS),
	}
}

func TestRebuildIsBitIdentical(t *testing.T) {
	a := newTestAssembler(t, 75, 0.02)
	in := walkingInputs(75, 0.02)
	pb, _ := qp.NewProblem(1, 1, 0)

	if _, err := a.Build(pb, in); err != nil {
		t.Fatal(err)
	}
	first := snapshot(pb)

	// dirty the workspace with a different cycle first
	other := in
	other.CoM = dynamo.NewState([3]float64{0.3, 1, 2}, [3]float64{-0.2, 0, 1})
	other.Ref = dynamo.Velocity{X: -0.1, Yaw: 0.3}
	if _, err := a.Build(pb, other); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Build(pb, in); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, snapshot(pb)); diff != "" {
		t.Errorf("rebuild differs (-first +second):\n%s", diff)
	}
}

func TestSingleSwitchRebuildsOnePolygon(t *testing.T) {
	g := NewWithT(t)
	a := newTestAssembler(t, 75, 0.02)
	pb, _ := qp.NewProblem(1, 1, 0)

	lay, err := a.Build(pb, walkingInputs(75, 0.02))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(lay.Rebuilds).To(Equal(1))
	g.Expect(lay.Steps).To(Equal(1))
	g.Expect(lay.Selection.StepRows).To(Equal([]int{39}))
	g.Expect(lay.Selection.Landed).To(Equal([]dynamo.Foot{dynamo.RightFoot}))

	g.Expect(lay.NumVariables).To(Equal(2*75 + 2))
	g.Expect(pb.NumVariables()).To(Equal(lay.NumVariables))
	g.Expect(pb.NumConstraints()).To(Equal(75*4 + 5))
	g.Expect(lay.FootRows).To(Equal([]int{300}))

	// rows before the switch share the first polygon
	g.Expect(lay.Polygons[38]).To(Equal(lay.Polygons[0]))
	g.Expect(lay.Polygons[74]).To(Equal(lay.Polygons[39]))
}

func TestObjectiveIsSymmetric(t *testing.T) {
	g := NewWithT(t)
	a := newTestAssembler(t, 32, 0.05)
	pb, _ := qp.NewProblem(1, 1, 0)
	in := walkingInputs(32, 0.05)
	in.Ref = dynamo.Velocity{X: 0.2, Y: 0.05, Yaw: 0.2}

	lay, err := a.Build(pb, in)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(lay.Steps).To(BeNumerically(">", 0))

	q := pb.Matrix(qp.MatrixQ)
	n := lay.NumVariables
	for i := 0; i < n; i++ {
		g.Expect(q.At(i, i)).To(BeNumerically(">", 0), "diagonal %d", i)
		for j := 0; j < i; j++ {
			g.Expect(q.At(i, j)).To(BeNumerically("~", q.At(j, i), 1e-12))
		}
	}
}

func TestReferenceRotatesWithTrunk(t *testing.T) {
	g := NewWithT(t)
	a := newTestAssembler(t, 16, 0.1)
	pb, _ := qp.NewProblem(1, 1, 0)
	in := Inputs{
		CoM:      dynamo.NewState([3]float64{}, [3]float64{}),
		Ref:      dynamo.Velocity{X: 0.2},
		TrunkYaw: 1.5707963267948966,
		Support:  support.DefaultFSM(0.1).Horizon(0, 16, dynamo.Velocity{X: 0.2}, support.Initial(dynamo.LeftFoot, 0, 0.1, 0)),
		Feet:     standingFeet(),
	}
	lay, err := a.Build(pb, in)
	g.Expect(err).NotTo(HaveOccurred())
	for i := range lay.RefX {
		g.Expect(lay.RefX[i]).To(BeNumerically("~", 0, 1e-12))
		g.Expect(lay.RefY[i]).To(BeNumerically("~", 0.2, 1e-12))
	}
}

func TestStandingStillHasNoLinearTerm(t *testing.T) {
	g := NewWithT(t)
	a := newTestAssembler(t, 16, 0.1)
	pb, _ := qp.NewProblem(1, 1, 0)
	fsm := support.DefaultFSM(0.1)
	in := Inputs{
		CoM:     dynamo.NewState([3]float64{}, [3]float64{}),
		Support: fsm.Horizon(0, 16, dynamo.Velocity{}, support.Initial(dynamo.LeftFoot, 0, 0.1, 0)),
		Feet:    standingFeet(),
	}

	lay, err := a.Build(pb, in)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(lay.Steps).To(BeZero())
	g.Expect(lay.Rebuilds).To(BeZero())
	for _, v := range pb.Vector(qp.VectorD) {
		g.Expect(v).To(BeZero())
	}
	for _, v := range pb.Vector(qp.VectorDS) {
		g.Expect(v).To(BeNumerically(">", 0))
	}

	sol, err := pb.Solve(qp.DualActiveSet)
	g.Expect(err).NotTo(HaveOccurred())
	for _, u := range sol.X {
		g.Expect(u).To(BeNumerically("~", 0, 1e-12))
	}
}

func TestBuildRejectsShortHorizon(t *testing.T) {
	a := newTestAssembler(t, 16, 0.1)
	pb, _ := qp.NewProblem(1, 1, 0)
	in := walkingInputs(8, 0.1)
	if _, err := a.Build(pb, in); err == nil {
		t.Fatal("expected an error for a short support horizon")
	}
}
