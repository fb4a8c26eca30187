package metrics

import (
	"math"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/models"
)

// Energy is the mean kinetic energy of the CoM per unit mass.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(com dynamo.CoMState, zmp dynamo.ZMPSample, t float64) {
	vx, vy := com.X[1], com.Y[1]
	e.totalEnergy += 0.5 * (vx*vx + vy*vy)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest change of the LIPM orbital energy between two
// consecutive samples. Without a ZMP jump the orbital energy is conserved, so
// large values flag discontinuities in the synthesized pattern.
type EnergyDrift struct {
	name     string
	lipm     *models.LIPM
	last     float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(comHeight float64) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		lipm: models.NewLIPM(comHeight),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(com dynamo.CoMState, zmp dynamo.ZMPSample, t float64) {
	energy := e.lipm.OrbitalEnergy(com.X[0], com.X[1], zmp.Px) +
		e.lipm.OrbitalEnergy(com.Y[0], com.Y[1], zmp.Py)

	if e.samples > 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.last))
	}
	e.last = energy
	e.samples++
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.last = 0
	e.maxDrift = 0
	e.samples = 0
}
