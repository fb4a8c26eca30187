package metrics

import (
	"math"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/models"
)

// Stability is the fraction of samples whose capture point lies within
// threshold of the ZMP.
type Stability struct {
	name       string
	threshold  float64
	lipm       *models.LIPM
	violations int
	samples    int
}

func NewStability(comHeight, threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		lipm:      models.NewLIPM(comHeight),
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(com dynamo.CoMState, zmp dynamo.ZMPSample, t float64) {
	s.samples++
	cx := s.lipm.CapturePoint(com.X[0], com.X[1])
	cy := s.lipm.CapturePoint(com.Y[0], com.Y[1])
	if math.Hypot(cx-zmp.Px, cy-zmp.Py) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
