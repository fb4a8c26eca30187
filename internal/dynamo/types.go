package dynamo

import (
	"math"
)

// State is the CoM state of both horizontal axes: [x, ẋ, ẍ, y, ẏ, ÿ].
type State []float64

// StateDim is the length of a State.
const StateDim = 6

func NewState(x, y [3]float64) State {
	return State{x[0], x[1], x[2], y[0], y[1], y[2]}
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	if len(s) != StateDim {
		return false
	}
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// X returns the (position, velocity, acceleration) triple of the x axis.
func (s State) X() [3]float64 { return [3]float64{s[0], s[1], s[2]} }

// Y returns the (position, velocity, acceleration) triple of the y axis.
func (s State) Y() [3]float64 { return [3]float64{s[3], s[4], s[5]} }

type Foot int

const (
	LeftFoot Foot = iota
	RightFoot
)

func (f Foot) Other() Foot {
	if f == LeftFoot {
		return RightFoot
	}
	return LeftFoot
}

func (f Foot) String() string {
	if f == LeftFoot {
		return "left"
	}
	return "right"
}

// Step type tags carried by ZMP samples. Any value >= StepDouble is read as
// double support.
const (
	StepRight  = -1
	StepLeft   = 1
	StepDouble = 10
)

// CoMState is one output sample of the center of mass.
type CoMState struct {
	X, Y [3]float64
	Yaw  float64
}

func (c CoMState) State() State {
	return NewState(c.X, c.Y)
}

// ZMPSample is one output sample of the zero moment point.
type ZMPSample struct {
	Px, Py   float64
	Theta    float64
	StepType int
}

func (z ZMPSample) IsDoubleSupport() bool {
	return z.StepType >= StepDouble
}

// FootPosition places one foot at one instant. Z > 0 means the foot is in
// the air. Yaw is in radians. StepType follows the ZMP sample tags.
type FootPosition struct {
	Time     float64
	X, Y, Z  float64
	Yaw      float64
	StepType int
}

func (f FootPosition) InSwing() bool {
	return f.Z > 0
}

func (f FootPosition) IsDoubleSupport() bool {
	return f.StepType >= StepDouble
}

// Velocity is a walking velocity reference in the trunk frame.
type Velocity struct {
	X, Y, Yaw float64
}

const velocityEps = 1e-8

// IsZero reports whether no motion is requested.
func (v Velocity) IsZero() bool {
	return math.Abs(v.X) <= velocityEps && math.Abs(v.Y) <= velocityEps && math.Abs(v.Yaw) <= velocityEps
}

func (v Velocity) Valid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Yaw} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Metric accumulates a scalar over a synthesized trajectory.
type Metric interface {
	Name() string
	Observe(com CoMState, zmp ZMPSample, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(com CoMState, zmp ZMPSample, t float64)
}

// Result is a synthesized trajectory with one CoM and one ZMP sample per tick.
type Result struct {
	CoM       []CoMState
	ZMP       []ZMPSample
	Times     []float64
	Footsteps []FootPosition
	Metrics   map[string]float64
	Cycles    int
	Errors    []error
}
