package walk

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/footplan"
	"github.com/san-kum/walkgen/internal/models"
)

func fixedOptions() Options {
	o := testOptions()
	o.Horizon, o.Period = 75, 0.02
	o.MarginX, o.MarginY = 0.04, 0.04
	o.Gait.T = 0.02
	return o
}

func newFixed(t *testing.T, opts Options) *FixedHorizon {
	t.Helper()
	robot := models.NewBiped()
	robot.CoMHeight = 0.8
	g, err := NewFixedHorizon(robot, opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// standing returns n samples of both feet at the origin in double support.
func standing(n int, period float64) (left, right []dynamo.FootPosition, zmp []dynamo.ZMPSample) {
	for i := 0; i < n; i++ {
		f := dynamo.FootPosition{Time: float64(i) * period, StepType: dynamo.StepDouble}
		left = append(left, f)
		right = append(right, f)
		zmp = append(zmp, dynamo.ZMPSample{StepType: dynamo.StepDouble})
	}
	return left, right, zmp
}

func TestFixedHorizonConverges(t *testing.T) {
	g := NewWithT(t)
	gen := newFixed(t, fixedOptions())
	gen.Start = dynamo.NewState([3]float64{0.02, 0, 0}, [3]float64{0.005, 0, 0})

	left, right, ref := standing(800, 0.005)
	com, zmp, err := gen.Build(context.Background(), left, right, ref)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(com).To(HaveLen(800))
	g.Expect(zmp).To(HaveLen(800))

	for i, z := range zmp {
		g.Expect(math.Abs(z.Px)).To(BeNumerically("<=", 0.06+1e-3), "sample %d", i)
		g.Expect(math.Abs(z.Py)).To(BeNumerically("<=", 0.01+1e-3), "sample %d", i)
		g.Expect(z.StepType).To(Equal(dynamo.StepDouble))
	}
	first, last := com[0], com[len(com)-1]
	// one fine tick after the start
	g.Expect(first.X[0]).To(BeNumerically("~", 0.02, 1e-3))
	g.Expect(math.Abs(last.X[0])).To(BeNumerically("<", 0.01))
	g.Expect(math.Abs(last.Y[0])).To(BeNumerically("<", 0.0025))
}

func TestFixedHorizonFollowsPlan(t *testing.T) {
	g := NewWithT(t)
	opts := fixedOptions()
	plan := footplan.Plan{
		Steps:        3,
		StepLength:   0.15,
		StepHeight:   0.05,
		SingleTime:   0.7,
		DoubleTime:   0.1,
		FeetDistance: 0.2,
		Initial:      1,
		Final:        1 + float64(opts.Horizon)*opts.Period,
		Period:       opts.OutputPeriod,
	}
	tr, err := plan.Generate()
	g.Expect(err).NotTo(HaveOccurred())

	com, zmp, err := newFixed(t, opts).Build(context.Background(), tr.Left, tr.Right, tr.ZMP)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(zmp).To(HaveLen(tr.Len()))
	g.Expect(com[len(com)-1].X[0]).To(BeNumerically("~", 0.3, 0.05))
	for i := range zmp {
		g.Expect(zmp[i].StepType).To(Equal(tr.ZMP[i].StepType))
	}
}

func TestFixedHorizonLongSupportPhases(t *testing.T) {
	g := NewWithT(t)
	opts := fixedOptions()
	plan := footplan.Plan{
		Steps:        6,
		StepLength:   0.2,
		StepHeight:   0.05,
		SingleTime:   1.2,
		DoubleTime:   0.3,
		FeetDistance: 0.2,
		Initial:      1,
		Final:        1 + float64(opts.Horizon)*opts.Period,
		Period:       opts.OutputPeriod,
	}
	tr, err := plan.Generate()
	g.Expect(err).NotTo(HaveOccurred())

	// every cycle is checked against VerifyTolerance
	com, _, err := newFixed(t, opts).Build(context.Background(), tr.Left, tr.Right, tr.ZMP)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(com).To(HaveLen(tr.Len()))
	g.Expect(com[len(com)-1].X[0]).To(BeNumerically("~", 1.0, 0.05))
}

func TestFixedHorizonPaddingWindow(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		wantErr bool
	}{
		// 75 periods of 4 ticks are left for padding
		{"multiple of the period", 800, false},
		{"partial period", 802, false},
		{"shorter than the horizon", 200, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right, ref := standing(tt.samples, 0.005)
			_, zmp, err := newFixed(t, fixedOptions()).Build(context.Background(), left, right, ref)
			if tt.wantErr {
				if !errors.Is(err, dynamo.ErrConfiguration) {
					t.Fatalf("got %v, want a configuration error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(zmp) != tt.samples {
				t.Errorf("got %d samples, want %d", len(zmp), tt.samples)
			}
		})
	}
}

func TestFixedHorizonPadRejectsLargeGap(t *testing.T) {
	gen := newFixed(t, fixedOptions())
	com := make([]dynamo.CoMState, 10)
	zmp := make([]dynamo.ZMPSample, 10)
	if _, _, err := gen.pad(com, zmp, 10+300+5, 300, 4); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Fatalf("got %v, want a configuration error", err)
	}
	c, z, err := gen.pad(com, zmp, 10+300+3, 300, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 313 || len(z) != 313 {
		t.Errorf("padded to %d/%d samples", len(c), len(z))
	}
}

func TestFixedHorizonRejectsMismatchedFeet(t *testing.T) {
	left, right, ref := standing(400, 0.005)
	_, _, err := newFixed(t, fixedOptions()).Build(context.Background(), left, right[:399], ref)
	if !errors.Is(err, dynamo.ErrGeometry) {
		t.Fatalf("got %v, want a geometry error", err)
	}
}
