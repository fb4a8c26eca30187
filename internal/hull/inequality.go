package hull

import (
	"math"

	"github.com/golang/geo/r2"
)

// verticalEps is the |Δx| under which an edge is treated as vertical.
const verticalEps = 1e-7

// Inequality is the half-plane A·x + B·y + C >= 0.
type Inequality struct {
	A, B, C float64
}

func (q Inequality) Eval(p r2.Point) float64 {
	return q.A*p.X + q.B*p.Y + q.C
}

// Inequalities converts each edge i -> i+1 of p into a half-plane whose
// positive side is the left of the edge. The sign follows the traversal
// order: a clockwise polygon yields half-planes pointing outwards.
func Inequalities(p Polygon) []Inequality {
	out := make([]Inequality, len(p))
	for i := range p {
		out[i] = edgeInequality(p[i], p[(i+1)%len(p)])
	}
	return out
}

func edgeInequality(p, q r2.Point) Inequality {
	dx := q.X - p.X
	if math.Abs(dx) > verticalEps {
		a := (q.Y - p.Y) / dx
		b := p.Y - a*p.X
		mul := -1.0
		if q.X < p.X {
			mul = 1
		}
		return Inequality{A: mul * a, B: -mul, C: mul * b}
	}
	// x >= const going down, x <= const going up.
	if q.Y < p.Y {
		return Inequality{A: 1, B: 0, C: -q.X}
	}
	return Inequality{A: -1, B: 0, C: q.X}
}

// CheckedInequalities validates p before converting it.
func CheckedInequalities(p Polygon) ([]Inequality, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return Inequalities(p), nil
}

// Contains reports whether pt satisfies every inequality to within tol.
func Contains(ineqs []Inequality, pt r2.Point, tol float64) bool {
	for _, q := range ineqs {
		if q.Eval(pt) < -tol {
			return false
		}
	}
	return true
}
