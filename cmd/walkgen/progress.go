package main

import (
	"go.uber.org/zap"

	"github.com/san-kum/walkgen/internal/dynamo"
)

// progress logs the CoM once per interval of walking time.
type progress struct {
	log      *zap.SugaredLogger
	interval float64
	next     float64
	samples  int
}

func newProgress(log *zap.SugaredLogger, interval float64) *progress {
	return &progress{log: log, interval: interval, next: interval}
}

func (p *progress) OnSample(com dynamo.CoMState, zmp dynamo.ZMPSample, t float64) {
	p.samples++
	if t+1e-9 < p.next {
		return
	}
	p.log.Debugw("progress", "t", t, "samples", p.samples, "com_x", com.X[0], "com_y", com.Y[0], "zmp_x", zmp.Px, "zmp_y", zmp.Py)
	for p.next <= t+1e-9 {
		p.next += p.interval
	}
}
