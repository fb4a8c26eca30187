package hull

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Size is the half extent of a foot sole.
type Size struct {
	HalfWidth, HalfHeight float64
}

// Window is a support polygon valid over [Start, End].
type Window struct {
	Start, End   float64
	Polygon      Polygon
	Inequalities []Inequality
}

// Active reports whether t falls inside the window.
func (w Window) Active(t float64) bool {
	return t >= w.Start && t <= w.End
}

type contact int

const (
	contactNone contact = iota
	contactRight
	contactLeft
	contactDouble
)

// BuildTimeline walks fine-sampled foot trajectories and emits one constraint
// window per support phase. A polygon is rebuilt only when the contact
// changes.
func BuildTimeline(left, right []dynamo.FootPosition, leftSize, rightSize Size, b Builder) ([]Window, error) {
	if len(left) != len(right) {
		return nil, errors.Wrapf(dynamo.ErrGeometry, "left and right foot sequences differ: %d vs %d", len(left), len(right))
	}
	if len(left) == 0 {
		return nil, errors.Wrap(dynamo.ErrConfiguration, "empty foot sequences")
	}

	var windows []Window
	state := contactNone
	for i := range left {
		l, r := left[i], right[i]
		next := state
		switch {
		case i == 0 || l.IsDoubleSupport():
			next = contactDouble
		case l.InSwing():
			next = contactRight
		case r.InSwing():
			next = contactLeft
		default:
			// both feet down after a touchdown
			next = contactDouble
		}
		if next == state {
			continue
		}
		state = next

		sup := Support{
			Double: state == contactDouble,
			Left:   Footprint{Center: r2.Point{X: l.X, Y: l.Y}, Yaw: l.Yaw, HalfWidth: leftSize.HalfWidth, HalfHeight: leftSize.HalfHeight},
			Right:  Footprint{Center: r2.Point{X: r.X, Y: r.Y}, Yaw: r.Yaw, HalfWidth: rightSize.HalfWidth, HalfHeight: rightSize.HalfHeight},
			Foot:   dynamo.RightFoot,
		}
		if l.Z < r.Z {
			sup.Foot = dynamo.LeftFoot
		}
		poly, err := b.Polygon(sup)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d (t=%.3f)", i, l.Time)
		}
		ineqs, err := CheckedInequalities(poly)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d (t=%.3f)", i, l.Time)
		}
		if n := len(windows); n > 0 {
			windows[n-1].End = l.Time
		}
		windows = append(windows, Window{Start: l.Time, Polygon: poly, Inequalities: ineqs})
	}
	windows[len(windows)-1].End = left[len(left)-1].Time
	return windows, nil
}

// Lookup returns the index of the window active at t, starting the search at
// from. Times past the last window resolve to the last window.
func Lookup(windows []Window, from int, t float64) (int, error) {
	if len(windows) == 0 {
		return 0, errors.Wrap(dynamo.ErrConfiguration, "empty constraint queue")
	}
	if from < 0 {
		from = 0
	}
	for i := from; i < len(windows); i++ {
		if windows[i].Active(t) || t < windows[i].Start {
			return i, nil
		}
	}
	return len(windows) - 1, nil
}
