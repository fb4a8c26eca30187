package optim

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/experiment"
)

type bowl struct {
	a, b  float64
	calls *int32
}

func (r bowl) Run(context.Context) (*dynamo.Result, error) {
	atomic.AddInt32(r.calls, 1)
	if r.a < 0 {
		return nil, errors.New("diverged")
	}
	cost := (r.a-0.3)*(r.a-0.3) + (r.b-2)*(r.b-2)
	return &dynamo.Result{Metrics: map[string]float64{"cost": cost}}, nil
}

func TestCombinations(t *testing.T) {
	g := NewWithT(t)
	gs := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	combos := gs.Combinations()
	g.Expect(combos).To(HaveLen(6))
	g.Expect(combos[0]).To(Equal(map[string]float64{"a": 1, "b": 10}))
	g.Expect(combos[5]).To(Equal(map[string]float64{"a": 2, "b": 30}))
}

func TestSearchPicksBestCombination(t *testing.T) {
	g := NewWithT(t)
	var calls int32
	gs := NewGridSearch([]string{"a", "b"}, [][]float64{{-1, 0, 0.25, 0.5}, {1, 2, 3}})
	gs.Workers = 3

	best, evals, err := gs.Search(context.Background(), func(p map[string]float64) (Runner, error) {
		return bowl{a: p["a"], b: p["b"], calls: &calls}, nil
	}, "cost")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(calls).To(BeEquivalentTo(12))
	g.Expect(evals).To(HaveLen(12))
	g.Expect(best.Params).To(Equal(map[string]float64{"a": 0.25, "b": 2}))
	g.Expect(best.Value).To(BeNumerically("~", 0.0025, 1e-12))

	failed := 0
	for _, e := range evals {
		if e.Err != nil {
			failed++
		}
	}
	g.Expect(failed).To(Equal(3))
}

func TestSearchFailsWhenEveryRunFails(t *testing.T) {
	g := NewWithT(t)
	var calls int32
	gs := NewGridSearch([]string{"a"}, [][]float64{{-2, -1}})
	_, _, err := gs.Search(context.Background(), func(p map[string]float64) (Runner, error) {
		return bowl{a: p["a"], calls: &calls}, nil
	}, "cost")
	g.Expect(err).To(MatchError(ContainSubstring("every combination failed")))

	_, _, err = gs.Search(context.Background(), func(p map[string]float64) (Runner, error) {
		return bowl{a: 1, calls: &calls}, nil
	}, "missing")
	g.Expect(err).To(HaveOccurred())
}

func TestSearchRejectsMismatchedRanges(t *testing.T) {
	gs := NewGridSearch([]string{"a", "b"}, [][]float64{{1}})
	_, _, err := gs.Search(context.Background(), nil, "cost")
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestApplyWeights(t *testing.T) {
	g := NewWithT(t)
	base := config.DefaultConfig()
	cfg, err := ApplyWeights(base, map[string]float64{"cop": 3, "jerk": 1e-4})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Weights.CoP).To(Equal(3.0))
	g.Expect(cfg.Weights.Jerk).To(Equal(1e-4))
	g.Expect(base.Weights.CoP).To(Equal(config.DefaultCoPWeight))

	_, err = ApplyWeights(base, map[string]float64{"gravity": 1})
	g.Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	_, err = ApplyWeights(base, map[string]float64{"cop": -1})
	g.Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	g.Expect(WeightNames()).To(ContainElements("alpha", "beta", "cop", "jerk", "velocity"))
}

func TestSearchOverWalkingRuns(t *testing.T) {
	g := NewWithT(t)
	base := config.GetPreset(config.FormulationVelocity, "walk")
	base.Duration = 1

	gs := NewGridSearch([]string{"cop"}, [][]float64{{1, 10}})
	best, evals, err := gs.Search(context.Background(), func(p map[string]float64) (Runner, error) {
		cfg, err := ApplyWeights(base, p)
		if err != nil {
			return nil, err
		}
		return experiment.New(cfg, nil)
	}, "zmp_excursion")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(evals).To(HaveLen(2))
	for _, e := range evals {
		g.Expect(e.Err).NotTo(HaveOccurred())
		g.Expect(best.Value).To(BeNumerically("<=", e.Value))
	}
}
