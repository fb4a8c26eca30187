package models

import "math"

// LIPM is the linear inverted pendulum: a point mass kept at constant
// height above a massless leg pivoting on the ZMP.
type LIPM struct {
	Height  float64
	Gravity float64
}

func NewLIPM(height float64) *LIPM {
	return &LIPM{Height: height, Gravity: 9.81}
}

// Omega is the natural frequency sqrt(g/h).
func (l *LIPM) Omega() float64 {
	return math.Sqrt(l.Gravity / l.Height)
}

// Acceleration returns ẍ = g/h·(x - p) for CoM position x and ZMP p.
func (l *LIPM) Acceleration(x, p float64) float64 {
	return l.Gravity / l.Height * (x - p)
}

// ZMP returns the ZMP sustaining acceleration a at position x.
func (l *LIPM) ZMP(x, a float64) float64 {
	return x - l.Height/l.Gravity*a
}

// OrbitalEnergy is conserved along a LIPM trajectory with a fixed ZMP p.
func (l *LIPM) OrbitalEnergy(x, v, p float64) float64 {
	w := l.Omega()
	return 0.5*v*v - 0.5*w*w*(x-p)*(x-p)
}

// CapturePoint is the point where placing the ZMP brings the CoM to rest.
func (l *LIPM) CapturePoint(x, v float64) float64 {
	return x + v/l.Omega()
}

// Step integrates position and velocity over dt with a constant ZMP, using
// the closed-form hyperbolic solution.
func (l *LIPM) Step(x, v, p, dt float64) (float64, float64) {
	w := l.Omega()
	c, s := math.Cosh(w*dt), math.Sinh(w*dt)
	return p + (x-p)*c + v/w*s, (x-p)*w*s + v*c
}
