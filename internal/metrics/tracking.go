package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// ZMPExcursion is the largest horizontal distance between the CoM and the
// ZMP.
type ZMPExcursion struct {
	dist []float64
}

func NewZMPExcursion() *ZMPExcursion { return &ZMPExcursion{} }

func (z *ZMPExcursion) Name() string { return "zmp_excursion" }

func (z *ZMPExcursion) Observe(com dynamo.CoMState, zmp dynamo.ZMPSample, t float64) {
	z.dist = append(z.dist, math.Hypot(com.X[0]-zmp.Px, com.Y[0]-zmp.Py))
}

func (z *ZMPExcursion) Value() float64 {
	if len(z.dist) == 0 {
		return 0
	}
	return floats.Max(z.dist)
}

func (z *ZMPExcursion) Reset() { z.dist = z.dist[:0] }

// Distance is the path length travelled by the CoM on the ground.
type Distance struct {
	xs, ys []float64
}

func NewDistance() *Distance { return &Distance{} }

func (d *Distance) Name() string { return "distance" }

func (d *Distance) Observe(com dynamo.CoMState, zmp dynamo.ZMPSample, t float64) {
	d.xs = append(d.xs, com.X[0])
	d.ys = append(d.ys, com.Y[0])
}

func (d *Distance) Value() float64 {
	total := 0.0
	for i := 1; i < len(d.xs); i++ {
		total += math.Hypot(d.xs[i]-d.xs[i-1], d.ys[i]-d.ys[i-1])
	}
	return total
}

func (d *Distance) Reset() {
	d.xs, d.ys = d.xs[:0], d.ys[:0]
}

// Default returns the metrics recorded with every run.
func Default(comHeight float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewJerkEffort(),
		NewEnergy(),
		NewEnergyDrift(comHeight),
		NewStability(comHeight, 0.15),
		NewZMPExcursion(),
		NewDistance(),
	}
}
