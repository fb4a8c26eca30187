// Package hull turns foot footprints into support polygons and support
// polygons into half-plane inequalities.
//
// Polygons are counter-clockwise: the interior lies on the left of every
// directed edge. The raw conversion [Inequalities] trusts the traversal
// order it is given; [CheckedInequalities] rejects anything that is not a
// convex CCW polygon.
package hull

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// Polygon is an ordered vertex loop. The closing edge from the last vertex
// back to the first is implicit.
type Polygon []r2.Point

// SignedArea is positive for counter-clockwise polygons.
func (p Polygon) SignedArea() float64 {
	area := 0.0
	for i := range p {
		area += p[i].Cross(p[(i+1)%len(p)])
	}
	return area / 2
}

func (p Polygon) IsCCW() bool {
	return p.SignedArea() > 0
}

// Centroid returns the area centroid, or the vertex mean when the polygon
// is degenerate.
func (p Polygon) Centroid() r2.Point {
	a := p.SignedArea()
	if math.Abs(a) < 1e-12 {
		var c r2.Point
		for _, v := range p {
			c = c.Add(v)
		}
		return c.Mul(1 / float64(len(p)))
	}
	var c r2.Point
	for i := range p {
		q, r := p[i], p[(i+1)%len(p)]
		cr := q.Cross(r)
		c = c.Add(q.Add(r).Mul(cr))
	}
	return c.Mul(1 / (6 * a))
}

// Translate returns a copy of p shifted by d.
func (p Polygon) Translate(d r2.Point) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = v.Add(d)
	}
	return out
}

// Rotate returns a copy of p rotated by yaw radians around the origin.
func (p Polygon) Rotate(yaw float64) Polygon {
	c, s := math.Cos(yaw), math.Sin(yaw)
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r2.Point{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
	}
	return out
}

// Reverse returns p traversed the other way.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Validate checks that p is a convex, counter-clockwise loop of at least
// three vertices.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return errors.Wrapf(dynamo.ErrGeometry, "polygon has %d vertices", len(p))
	}
	if !p.IsCCW() {
		return errors.Wrap(dynamo.ErrGeometry, "polygon is not counter-clockwise")
	}
	for i := range p {
		e := p[(i+1)%len(p)].Sub(p[i])
		f := p[(i+2)%len(p)].Sub(p[(i+1)%len(p)])
		if e.Cross(f) < -1e-12 {
			return errors.Wrapf(dynamo.ErrGeometry, "polygon turns clockwise at vertex %d", (i+1)%len(p))
		}
	}
	return nil
}

// ConvexHull returns the counter-clockwise convex hull of points, without
// collinear vertices.
func ConvexHull(points []r2.Point) Polygon {
	pts := make([]r2.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	if len(pts) < 3 {
		return Polygon(pts)
	}

	turn := func(o, a, b r2.Point) float64 {
		return a.Sub(o).Cross(b.Sub(o))
	}
	hull := make(Polygon, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 1e-12 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 1e-12 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
