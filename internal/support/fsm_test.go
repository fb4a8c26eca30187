package support_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/support"
)

func changes(states []support.State) []int {
	var idx []int
	for i, s := range states {
		if s.StateChanged {
			idx = append(idx, i)
		}
	}
	return idx
}

var _ = Describe("FSM", func() {
	forward := dynamo.Velocity{X: 0.2}

	It("holds a standing robot in place without a reference", func() {
		fsm := support.DefaultFSM(0.1)
		states := fsm.Horizon(0, 16, dynamo.Velocity{}, support.Initial(dynamo.LeftFoot, 0, 0.1, 0))

		Expect(states).To(HaveLen(17))
		Expect(changes(states)).To(BeEmpty())
		for _, s := range states {
			Expect(s.Phase).To(Equal(support.Start))
			Expect(s.StepNumber).To(BeZero())
			Expect(s.StepType()).To(Equal(dynamo.StepDouble))
		}
	})

	It("switches support exactly once in the middle of a long horizon", func() {
		fsm := support.DefaultFSM(0.02)
		current := support.State{
			Phase:     support.LeftSupport,
			Foot:      dynamo.LeftFoot,
			TimeLimit: 0.8,
		}
		states := fsm.Horizon(0, 75, forward, current)

		Expect(changes(states)).To(Equal([]int{40}))
		for i, s := range states {
			if i < 40 {
				Expect(s.StepNumber).To(Equal(0), "step %d", i)
				Expect(s.Foot).To(Equal(dynamo.LeftFoot))
			} else {
				Expect(s.StepNumber).To(Equal(1), "step %d", i)
				Expect(s.Phase).To(Equal(support.RightSupport))
				Expect(s.Landed()).To(Equal(dynamo.RightFoot))
			}
		}
		Expect(support.Steps(states)).To(Equal(1))
	})

	It("leaves double support after a bounded delay once a reference arrives", func() {
		fsm := support.DefaultFSM(0.1)
		states := fsm.Horizon(0, 16, forward, support.Initial(dynamo.LeftFoot, 0, 0.1, 0))

		Expect(changes(states)).To(Equal([]int{8, 16}))
		Expect(states[8].Phase).To(Equal(support.LeftSupport))
		Expect(states[8].StepNumber).To(Equal(0))
		Expect(states[8].StepsLeft).To(Equal(fsm.StepsSSDS))
		Expect(states[16].Phase).To(Equal(support.RightSupport))
		Expect(states[16].StepNumber).To(Equal(1))
	})

	It("takes the remaining steps and stops in double support", func() {
		fsm := support.DefaultFSM(0.1)
		current := support.State{
			Phase:     support.LeftSupport,
			Foot:      dynamo.LeftFoot,
			StepsLeft: 1,
			TimeLimit: 0.1,
		}
		states := fsm.Horizon(0, 16, dynamo.Velocity{}, current)

		Expect(changes(states)).To(Equal([]int{1, 9}))
		Expect(states[1].Phase).To(Equal(support.RightSupport))
		Expect(states[1].StepsLeft).To(Equal(0))
		Expect(states[9].Phase).To(Equal(support.DoubleSupport))
		Expect(states[9].StepNumber).To(Equal(2))
		Expect(states[9].Landed()).To(Equal(dynamo.LeftFoot))
		Expect(states[16].Phase).To(Equal(support.DoubleSupport))
	})

	It("does not count a switch of the current state as a previewed step", func() {
		fsm := support.DefaultFSM(0.1)
		current := support.State{
			Phase:     support.LeftSupport,
			Foot:      dynamo.LeftFoot,
			TimeLimit: 0.5,
		}
		next := fsm.Preview(0.5, 0, forward, current)

		Expect(next.StateChanged).To(BeTrue())
		Expect(next.Foot).To(Equal(dynamo.RightFoot))
		Expect(next.StepNumber).To(Equal(0))
		Expect(next.StartTime).To(Equal(0.5))
		Expect(next.TimeLimit).To(BeNumerically("~", 1.3, 1e-12))
	})

	It("keeps step numbers non-decreasing", func() {
		fsm := support.DefaultFSM(0.1)
		states := fsm.Horizon(0.35, 40, dynamo.Velocity{X: 0.1, Yaw: 0.2}, support.Initial(dynamo.RightFoot, 0, -0.1, 0))
		for i := 1; i < len(states); i++ {
			Expect(states[i].StepNumber).To(BeNumerically(">=", states[i-1].StepNumber))
			if states[i].StepNumber > states[i-1].StepNumber {
				Expect(states[i].StateChanged).To(BeTrue())
			}
		}
	})
})
