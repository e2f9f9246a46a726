// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package mcmc_test

import (
	"math"
	"testing"

	"github.com/js-arias/ewens/infer/mcmc"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type gammaTarget struct {
	dist distuv.Gamma
}

func (g gammaTarget) Dim() int { return 1 }
func (g gammaTarget) LogProb(x []float64) float64 {
	if x[0] <= 0 {
		return math.Inf(-1)
	}
	return g.dist.LogProb(x[0])
}

func TestSampleGamma(t *testing.T) {
	tg := gammaTarget{
		dist: distuv.Gamma{Alpha: 3, Beta: 2},
	}
	r := rand.New(rand.NewSource(42))

	ch, err := mcmc.Sample(tg, []float64{1}, mcmc.Options{Steps: 40_000}, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.Draws) == 0 {
		t.Fatalf("empty chain")
	}
	if ch.Accepted <= 0 || ch.Accepted >= 1 {
		t.Errorf("acceptance rate: got %.4f", ch.Accepted)
	}

	xs := make([]float64, len(ch.Draws))
	for i, d := range ch.Draws {
		if d[0] <= 0 {
			t.Fatalf("draw %d: non positive value %.6g", i, d[0])
		}
		xs[i] = d[0]
	}
	mean := stat.Mean(xs, nil)
	if math.Abs(mean-1.5) > 0.2 {
		t.Errorf("chain mean: got %.4f, want %.4f", mean, 1.5)
	}
	sd := stat.StdDev(xs, nil)
	want := math.Sqrt(3) / 2
	if math.Abs(sd-want) > 0.2 {
		t.Errorf("chain standard deviation: got %.4f, want %.4f", sd, want)
	}
}

type pairTarget struct {
	a, b distuv.Gamma
}

func (p pairTarget) Dim() int { return 2 }
func (p pairTarget) LogProb(x []float64) float64 {
	if x[0] <= 0 || x[1] <= 0 {
		return math.Inf(-1)
	}
	return p.a.LogProb(x[0]) + p.b.LogProb(x[1])
}

func TestSamplePair(t *testing.T) {
	tg := pairTarget{
		a: distuv.Gamma{Alpha: 2, Beta: 2},
		b: distuv.Gamma{Alpha: 5, Beta: 1},
	}
	r := rand.New(rand.NewSource(6323))

	ch, err := mcmc.Sample(tg, []float64{1, 1}, mcmc.Options{Steps: 60_000}, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for p, want := range []float64{1, 5} {
		xs := make([]float64, len(ch.Draws))
		for i, d := range ch.Draws {
			xs[i] = d[p]
		}
		mean := stat.Mean(xs, nil)
		if math.Abs(mean-want) > 0.25*want {
			t.Errorf("parameter %d: chain mean: got %.4f, want %.4f", p, mean, want)
		}
	}
}

func TestSampleErrors(t *testing.T) {
	tg := gammaTarget{
		dist: distuv.Gamma{Alpha: 3, Beta: 2},
	}
	r := rand.New(rand.NewSource(42))

	if _, err := mcmc.Sample(tg, []float64{1, 1}, mcmc.Options{}, r); err == nil {
		t.Errorf("wrong dimension: expecting error")
	}
	if _, err := mcmc.Sample(tg, []float64{-1}, mcmc.Options{}, r); err == nil {
		t.Errorf("negative init: expecting error")
	}
}
