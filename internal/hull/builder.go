package hull

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Corner coefficients of a footprint rectangle, in counter-clockwise order.
var (
	cornerX = [4]float64{1, 1, -1, -1}
	cornerY = [4]float64{-1, 1, 1, -1}
)

// Footprint is a rectangular sole on the ground. HalfWidth runs along the
// foot's x axis, HalfHeight along its y axis.
type Footprint struct {
	Center     r2.Point
	Yaw        float64
	HalfWidth  float64
	HalfHeight float64
}

// Rectangle returns the footprint shrunk by the given margins, rotated by
// its yaw.
func (f Footprint) Rectangle(marginX, marginY float64) (Polygon, error) {
	hw, hh := f.HalfWidth-marginX, f.HalfHeight-marginY
	if hw <= 0 || hh <= 0 {
		return nil, errors.Wrapf(dynamo.ErrGeometry, "margins (%g, %g) exceed foot half size (%g, %g)",
			marginX, marginY, f.HalfWidth, f.HalfHeight)
	}
	c, s := math.Cos(f.Yaw), math.Sin(f.Yaw)
	p := make(Polygon, 4)
	for j := range p {
		dx, dy := cornerX[j]*hw, cornerY[j]*hh
		p[j] = r2.Point{
			X: f.Center.X + dx*c - dy*s,
			Y: f.Center.Y + dx*s + dy*c,
		}
	}
	return p, nil
}

// Support describes which feet carry the robot at one instant.
type Support struct {
	Double      bool
	Foot        dynamo.Foot
	Left, Right Footprint
}

func (s Support) supportFoot() Footprint {
	if s.Foot == dynamo.LeftFoot {
		return s.Left
	}
	return s.Right
}

// Builder turns a support configuration into a CCW support polygon.
type Builder interface {
	Polygon(s Support) (Polygon, error)
}

// FixedBuilder uses an axis-aligned rectangle spanning both feet in double
// support. It ignores foot yaw.
type FixedBuilder struct {
	MarginX, MarginY float64
}

func (b FixedBuilder) Polygon(s Support) (Polygon, error) {
	if !s.Double {
		f := s.supportFoot()
		f.Yaw = 0
		return f.Rectangle(b.MarginX, b.MarginY)
	}
	l, r := s.Left, s.Right
	xmin := math.Min(l.Center.X-l.HalfWidth, r.Center.X-r.HalfWidth) + b.MarginX
	xmax := math.Max(l.Center.X+l.HalfWidth, r.Center.X+r.HalfWidth) - b.MarginX
	ymin := math.Min(l.Center.Y-l.HalfHeight, r.Center.Y-r.HalfHeight) + b.MarginY
	ymax := math.Max(l.Center.Y+l.HalfHeight, r.Center.Y+r.HalfHeight) - b.MarginY
	if xmax <= xmin || ymax <= ymin {
		return nil, errors.Wrap(dynamo.ErrGeometry, "double support rectangle is empty after margins")
	}
	return Polygon{
		{X: xmax, Y: ymin},
		{X: xmax, Y: ymax},
		{X: xmin, Y: ymax},
		{X: xmin, Y: ymin},
	}, nil
}

// GeneralBuilder computes the true convex hull of both rotated feet in
// double support.
type GeneralBuilder struct {
	MarginX, MarginY float64
}

func (b GeneralBuilder) Polygon(s Support) (Polygon, error) {
	if !s.Double {
		return s.supportFoot().Rectangle(b.MarginX, b.MarginY)
	}
	lp, err := s.Left.Rectangle(b.MarginX, b.MarginY)
	if err != nil {
		return nil, err
	}
	rp, err := s.Right.Rectangle(b.MarginX, b.MarginY)
	if err != nil {
		return nil, err
	}
	h := ConvexHull(append(lp, rp...))
	if len(h) < 3 {
		return nil, errors.Wrap(dynamo.ErrGeometry, "double support hull is degenerate")
	}
	return h, nil
}

// PlacementRegion is the reachable area of the foot being placed, expressed
// in the frame of the foot it is placed from.
func PlacementRegion(placed dynamo.Foot) Polygon {
	p := Polygon{
		{X: -0.28, Y: -0.2},
		{X: -0.2, Y: -0.3},
		{X: 0, Y: -0.4},
		{X: 0.2, Y: -0.3},
		{X: 0.28, Y: -0.2},
	}
	if placed == dynamo.RightFoot {
		return p
	}
	for i := range p {
		p[i].Y = -p[i].Y
	}
	return p.Reverse()
}
