package models

import (
	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
)

// Robot is the read-only view of the robot model used by the generators.
type Robot interface {
	// FootSize returns the half extents of the sole and the ankle height.
	FootSize(foot dynamo.Foot) (halfWidth, halfHeight, soleHeight float64)
	ComHeight() float64
}

// Biped is a robot with two identical rectangular feet.
type Biped struct {
	FootHalfWidth  float64
	FootHalfHeight float64
	SoleHeight     float64
	CoMHeight      float64
	// FeetDistance is the lateral distance between the feet at rest.
	FeetDistance float64
}

func NewBiped() *Biped {
	return &Biped{
		FootHalfWidth:  config.DefaultFootHalfWidth,
		FootHalfHeight: config.DefaultFootHalfHeight,
		SoleHeight:     config.DefaultSoleHeight,
		CoMHeight:      config.DefaultComHeight,
		FeetDistance:   config.DefaultFeetDistance,
	}
}

func FromConfig(rc config.RobotConfig) *Biped {
	return &Biped{
		FootHalfWidth:  rc.FootHalfWidth,
		FootHalfHeight: rc.FootHalfHeight,
		SoleHeight:     rc.SoleHeight,
		CoMHeight:      rc.ComHeight,
		FeetDistance:   rc.FeetDistance,
	}
}

func (b *Biped) FootSize(dynamo.Foot) (float64, float64, float64) {
	return b.FootHalfWidth, b.FootHalfHeight, b.SoleHeight
}

func (b *Biped) ComHeight() float64 {
	return b.CoMHeight
}

// GetParams exposes the tunable geometry by name.
func (b *Biped) GetParams() map[string]float64 {
	return map[string]float64{
		"com_height":       b.CoMHeight,
		"foot_half_width":  b.FootHalfWidth,
		"foot_half_height": b.FootHalfHeight,
		"feet_distance":    b.FeetDistance,
	}
}

func (b *Biped) SetParam(name string, value float64) error {
	switch name {
	case "com_height":
		b.CoMHeight = value
	case "foot_half_width":
		b.FootHalfWidth = value
	case "foot_half_height":
		b.FootHalfHeight = value
	case "feet_distance":
		b.FeetDistance = value
	default:
		return ErrUnknownParam{Name: name}
	}
	return nil
}

type ErrUnknownParam struct {
	Name string
}

func (e ErrUnknownParam) Error() string {
	return "models: unknown parameter " + e.Name
}
