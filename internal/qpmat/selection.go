package qpmat

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/support"
)

// Selection routes horizon rows to footstep decision variables.
//
// Row i of the horizon corresponds to support state i+1. A row whose state
// has StepNumber k > 0 is attached to footstep k through V; other rows carry
// a constant reference position in FcX/FcY.
type Selection struct {
	N, Steps int

	V  *mat.Dense // N x Steps
	VT *mat.Dense
	// Vf chains footsteps: row k-1 selects F_k - F_(k-1).
	Vf *mat.Dense // Steps x Steps
	// Vcf marks the footstep placed relative to the current support foot.
	Vcf []float64

	FcX, FcY []float64

	// StepRows holds the horizon row at which each footstep lands.
	StepRows []int
	Landed   []dynamo.Foot
	// Angles is the yaw of each footstep, PrevAngles the yaw of the foot it
	// is placed from.
	Angles     []float64
	PrevAngles []float64
}

// Feet are the current foot positions on the ground.
type Feet struct {
	Left, Right dynamo.FootPosition
}

func (f Feet) Get(foot dynamo.Foot) dynamo.FootPosition {
	if foot == dynamo.LeftFoot {
		return f.Left
	}
	return f.Right
}

// Midpoint returns the center between both feet.
func (f Feet) Midpoint() (float64, float64) {
	return (f.Left.X + f.Right.X) / 2, (f.Left.Y + f.Right.Y) / 2
}

// NewSelection derives the selection matrices from n+1 support states.
// trunkYaw and yawRate predict the yaw of each footstep.
func NewSelection(states []support.State, feet Feet, t, trunkYaw, yawRate float64) *Selection {
	n := len(states) - 1
	steps := support.Steps(states)
	cur := states[0]
	sel := &Selection{
		N:     n,
		Steps: steps,
		FcX:   make([]float64, n),
		FcY:   make([]float64, n),
	}

	if steps > 0 {
		sel.V = mat.NewDense(n, steps, nil)
		sel.Vf = mat.NewDense(steps, steps, nil)
		sel.Vcf = make([]float64, steps)
		sel.Vcf[0] = 1
		sel.StepRows = make([]int, steps)
		sel.Landed = make([]dynamo.Foot, steps)
		sel.Angles = make([]float64, steps)
		sel.PrevAngles = make([]float64, steps)
	}

	mx, my := feet.Midpoint()
	for i := 0; i < n; i++ {
		s := states[i+1]
		k := s.StepNumber
		if k == 0 {
			if s.Phase.Single() {
				sel.FcX[i], sel.FcY[i] = cur.X, cur.Y
			} else {
				sel.FcX[i], sel.FcY[i] = mx, my
			}
			continue
		}
		sel.V.Set(i, k-1, 1)
		if s.StateChanged && states[i].StepNumber == k-1 {
			sel.StepRows[k-1] = i
			sel.Landed[k-1] = s.Landed()
			sel.Angles[k-1] = normalizeAngle(trunkYaw + yawRate*float64(i+1)*t)
		}
	}
	for k := 0; k < steps; k++ {
		sel.Vf.Set(k, k, 1)
		if k == 0 {
			sel.PrevAngles[k] = cur.Yaw
		} else {
			sel.Vf.Set(k, k-1, -1)
			sel.PrevAngles[k] = sel.Angles[k-1]
		}
	}
	if sel.V != nil {
		sel.VT = mat.DenseCopyOf(sel.V.T())
	}
	return sel
}

func normalizeAngle(a float64) float64 {
	return math.Atan2(math.Sin(a), math.Cos(a))
}
