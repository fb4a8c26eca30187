package metrics

import "github.com/san-kum/walkgen/internal/dynamo"

// JerkEffort integrates the squared CoM jerk over a run, the quantity the
// preview QP penalizes. Jerk is recovered from successive accelerations, so
// the first sample only seeds the estimate.
type JerkEffort struct {
	acc   [2]float64
	last  float64
	seen  bool
	total float64
}

func NewJerkEffort() *JerkEffort { return &JerkEffort{} }

func (j *JerkEffort) Name() string { return "jerk_effort" }

func (j *JerkEffort) Observe(com dynamo.CoMState, _ dynamo.ZMPSample, t float64) {
	acc := [2]float64{com.X[2], com.Y[2]}
	if dt := t - j.last; j.seen && dt > 0 {
		jx, jy := (acc[0]-j.acc[0])/dt, (acc[1]-j.acc[1])/dt
		j.total += (jx*jx + jy*jy) * dt
	}
	j.acc, j.last, j.seen = acc, t, true
}

func (j *JerkEffort) Value() float64 { return j.total }

func (j *JerkEffort) Reset() { *j = JerkEffort{} }
