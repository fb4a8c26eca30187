// Package support previews the sequence of support phases of a walking
// biped over a horizon.
package support

import (
	"math"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// timeEps absorbs accumulated rounding of i·T when comparing against limits.
const timeEps = 1e-8

type Phase int

const (
	Start Phase = iota
	RightSupport
	LeftSupport
	DoubleSupport
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case RightSupport:
		return "right"
	case LeftSupport:
		return "left"
	case DoubleSupport:
		return "double"
	}
	return "unknown"
}

// Single reports whether one foot alone carries the robot.
func (p Phase) Single() bool {
	return p == RightSupport || p == LeftSupport
}

func singlePhase(f dynamo.Foot) Phase {
	if f == dynamo.LeftFoot {
		return LeftSupport
	}
	return RightSupport
}

// State is the support situation at one horizon step. Foot is the support
// foot in single support and the last support foot in double support.
type State struct {
	Phase        Phase
	Foot         dynamo.Foot
	StepNumber   int
	StepsLeft    int
	X, Y, Yaw    float64
	StartTime    float64
	TimeLimit    float64
	StateChanged bool
}

// Landed returns the foot that touched down when this state began: the
// support foot in single support, the other foot in double support.
func (s State) Landed() dynamo.Foot {
	if s.Phase.Single() {
		return s.Foot
	}
	return s.Foot.Other()
}

// StepType returns the tag written into output samples for this state.
func (s State) StepType() int {
	switch s.Phase {
	case LeftSupport:
		return dynamo.StepLeft
	case RightSupport:
		return dynamo.StepRight
	}
	return dynamo.StepDouble
}

// FSM holds the timing of the gait.
type FSM struct {
	// T is the preview sample period.
	T float64
	// StepPeriod is the duration of one single support phase.
	StepPeriod float64
	// DSPeriod is the duration of a terminal double support phase.
	DSPeriod float64
	// DSSSPeriod bounds the time spent in double support once a reference
	// arrives.
	DSSSPeriod float64
	// StepsSSDS is the number of steps taken after the reference drops to
	// zero before stopping in double support.
	StepsSSDS int
}

func DefaultFSM(t float64) *FSM {
	return &FSM{
		T:          t,
		StepPeriod: 0.8,
		DSPeriod:   1e9,
		DSSSPeriod: 0.8,
		StepsSSDS:  2,
	}
}

// Initial returns the state of a robot standing still on both feet, with
// foot as the first support foot.
func Initial(foot dynamo.Foot, x, y, yaw float64) State {
	return State{
		Phase:     Start,
		Foot:      foot,
		X:         x,
		Y:         y,
		Yaw:       yaw,
		TimeLimit: math.Inf(1),
	}
}

// Preview advances s to horizon step i counted from time t.
func (f *FSM) Preview(t float64, i int, ref dynamo.Velocity, s State) State {
	now := t + float64(i)*f.T
	moving := !ref.IsZero()
	s.StateChanged = false

	if s.Phase == Start || s.Phase == DoubleSupport {
		if moving && s.TimeLimit-now > f.DSSSPeriod+timeEps {
			s.TimeLimit = now + f.DSSSPeriod
		}
	}
	if now+timeEps < s.TimeLimit {
		return s
	}

	switch {
	case s.Phase.Single() && !moving && s.StepsLeft == 0:
		s.Phase = DoubleSupport
		s.TimeLimit = now + f.DSPeriod
		if i > 0 {
			s.StepNumber++
		}
	case !s.Phase.Single() && (moving || s.StepsLeft > 0):
		s.Phase = singlePhase(s.Foot)
		s.TimeLimit = now + f.StepPeriod
		s.StepsLeft = f.StepsSSDS
	case s.Phase.Single():
		s.Foot = s.Foot.Other()
		s.Phase = singlePhase(s.Foot)
		s.TimeLimit = now + f.StepPeriod
		if i > 0 {
			s.StepNumber++
		}
		if moving {
			s.StepsLeft = f.StepsSSDS
		} else {
			s.StepsLeft--
		}
	default:
		// standing still in double support
		s.TimeLimit = math.Inf(1)
		if s.Phase == Start {
			s.Phase = DoubleSupport
			s.StartTime = now
			s.StateChanged = true
		}
		return s
	}
	s.StartTime = now
	s.StateChanged = true
	return s
}

// Horizon returns n+1 states: the current state advanced to t, then n
// previewed steps. Step numbers count footsteps taken inside the horizon.
func (f *FSM) Horizon(t float64, n int, ref dynamo.Velocity, current State) []State {
	out := make([]State, n+1)
	out[0] = f.Preview(t, 0, ref, current)
	s := out[0]
	s.StepNumber = 0
	for i := 1; i <= n; i++ {
		s = f.Preview(t, i, ref, s)
		out[i] = s
	}
	return out
}

// Steps returns the number of footsteps previewed in states.
func Steps(states []State) int {
	if len(states) == 0 {
		return 0
	}
	return states[len(states)-1].StepNumber
}
